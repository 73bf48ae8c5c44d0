package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Envelope is the inbound webhook payload from the sensor network.
// It is parsed once per request and never persisted.
type Envelope struct {
	Event  *EventBody `json:"event"`
	Labels *Labels    `json:"labels"`
}

// EventBody carries the routing fields and the variant data node.
type EventBody struct {
	TargetName string    `json:"targetName"`
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"eventType"`
	Data       Data      `json:"data"`
}

// Labels holds the human-readable metadata attached upstream.
type Labels struct {
	Name string `json:"name"`
}

// Data is the variant payload keyed by sensor capability. Absent
// capabilities are nil; presence of a member drives which attributes
// and telemetry records get produced.
type Data struct {
	NetworkStatus *NetworkStatus `json:"networkStatus,omitempty"`
	Temperature   *Temperature   `json:"temperature,omitempty"`
	ObjectPresent *ObjectPresent `json:"objectPresent,omitempty"`
	BatteryStatus *BatteryStatus `json:"batteryStatus,omitempty"`
}

type NetworkStatus struct {
	SignalStrength int `json:"signalStrength"`
}

type Temperature struct {
	Value float64 `json:"value"`
}

type ObjectPresent struct {
	State string `json:"state"`
}

type BatteryStatus struct {
	Percentage float64 `json:"percentage"`
}

// ParseEnvelope decodes a raw webhook body. It fails on malformed JSON
// or when the event node or its timestamp is missing; missing targetName
// or labels are not parse errors (the caller skips mapping instead).
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == nil {
		return nil, fmt.Errorf("envelope has no event node")
	}
	if env.Event.Timestamp.IsZero() {
		return nil, fmt.Errorf("envelope event has no timestamp")
	}
	return &env, nil
}

// ExternalID returns the upstream sensor identifier: the last
// '/'-delimited segment of the event targetName, or "" when absent.
func (e *Envelope) ExternalID() string {
	if e.Event == nil || e.Event.TargetName == "" {
		return ""
	}
	segments := strings.Split(e.Event.TargetName, "/")
	return segments[len(segments)-1]
}

// DeviceName returns the display name from the labels node, or "".
func (e *Envelope) DeviceName() string {
	if e.Labels == nil {
		return ""
	}
	return e.Labels.Name
}
