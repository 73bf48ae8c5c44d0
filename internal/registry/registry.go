package registry

import (
	"context"
	"errors"
	"time"
)

// Device type tags used by the bridge.
const (
	DeviceTypeSensor  = "SensorDevice"
	DeviceTypeLogging = "LoggingDevice"
)

// ExternalIDTypeSerial is the identity namespace for upstream sensor
// serial numbers. Every mapping the bridge creates uses this type.
const ExternalIDTypeSerial = "serial"

// Measurement and event type tags.
const (
	MeasurementTypeTemperature    = "TemperatureMeasurement"
	MeasurementTypeBattery        = "BatteryMeasurement"
	MeasurementTypeSignalStrength = "SignalStrengthMeasurement"
	MeasurementTypeOpenClose      = "OpenCloseMeasurement"

	EventTypeOpenClose  = "OpenCloseEvent"
	EventTypeRawPayload = "bridgeRawPayload"
)

// ErrNotFound is returned when a lookup resolves to nothing.
var ErrNotFound = errors.New("registry: not found")

// Device is the registry's representation of a physical or logical
// device. Attributes hold last-known values keyed by attribute name.
type Device struct {
	ID         string         `json:"id,omitempty"`
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// SetAttribute records a last-known attribute value on the device.
func (d *Device) SetAttribute(name string, value any) {
	if d.Attributes == nil {
		d.Attributes = make(map[string]any)
	}
	d.Attributes[name] = value
}

// ExternalID maps an upstream (id, type) pair to a registry device.
// Created once per device on first sighting, never mutated.
type ExternalID struct {
	ID       string `json:"externalId"`
	Type     string `json:"type"`
	DeviceID string `json:"deviceId"`
}

// Value is a single named series value inside a measurement.
type Value struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

// Measurement is an immutable timestamped numeric fact for a device.
type Measurement struct {
	DeviceID string           `json:"deviceId"`
	Type     string           `json:"type"`
	Series   map[string]Value `json:"series"`
	Time     time.Time        `json:"time"`
}

// Event is an immutable timestamped occurrence for a device, optionally
// carrying extra attributes such as a boolean state flag.
type Event struct {
	DeviceID   string         `json:"deviceId"`
	Type       string         `json:"type"`
	Text       string         `json:"text"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Time       time.Time      `json:"time"`
}

// EventFilter narrows an event listing. Zero fields are not applied,
// except From/To which form a half-open interval [From, To).
type EventFilter struct {
	DeviceID string
	Type     string
	From     time.Time
	To       time.Time
}

// Client is the outbound collaborator holding all durable state. Every
// call is scoped to the tenant whose ID is passed explicitly; listing
// calls are paginated with 1-based page numbers and report whether more
// pages remain.
type Client interface {
	FindExternalID(ctx context.Context, tenantID, externalID, idType string) (*ExternalID, error)
	CreateExternalID(ctx context.Context, tenantID string, ext *ExternalID) error

	GetDevice(ctx context.Context, tenantID, deviceID string) (*Device, error)
	CreateDevice(ctx context.Context, tenantID string, device *Device) (*Device, error)
	UpdateDevice(ctx context.Context, tenantID string, device *Device) (*Device, error)
	ListDevices(ctx context.Context, tenantID string, page int) ([]Device, bool, error)

	CreateMeasurement(ctx context.Context, tenantID string, m *Measurement) error
	CreateEvent(ctx context.Context, tenantID string, e *Event) error
	ListEvents(ctx context.Context, tenantID string, filter EventFilter, page int) ([]Event, bool, error)
}
