package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
)

// External identity of the per-tenant audit device that receives a
// copy of every raw payload.
const sinkExternalID = "SENSOR_BRIDGE_AUDIT"

// AuditSink records every raw webhook payload against a dedicated
// per-tenant audit device. The device is created lazily on the first
// payload for a tenant and memoized afterwards. Recording is
// best-effort: failures are logged and never block ingestion.
type AuditSink struct {
	registry registry.Client

	mu      sync.Mutex
	devices map[string]string // tenant ID -> audit device ID
}

// NewAuditSink creates an audit sink over the registry client.
func NewAuditSink(reg registry.Client) *AuditSink {
	return &AuditSink{
		registry: reg,
		devices:  make(map[string]string),
	}
}

// RecordRawPayload stores the payload as an event on the tenant's
// audit device.
func (s *AuditSink) RecordRawPayload(ctx context.Context, tenantID string, payload []byte) {
	deviceID, err := s.deviceFor(ctx, tenantID)
	if err != nil {
		slog.Error("failed to resolve audit device",
			logging.TenantID(tenantID),
			logging.Error(err),
		)
		return
	}

	event := &registry.Event{
		DeviceID:   deviceID,
		Type:       registry.EventTypeRawPayload,
		Text:       "Raw sensor payload",
		Attributes: map[string]any{"payload": string(payload)},
		Time:       time.Now().UTC(),
	}
	if err := s.registry.CreateEvent(ctx, tenantID, event); err != nil {
		slog.Error("failed to record raw payload",
			logging.TenantID(tenantID),
			logging.DeviceID(deviceID),
			logging.Error(err),
		)
	}
}

// deviceFor returns the tenant's audit device ID, looking it up by
// its well-known external identity and creating it when absent.
func (s *AuditSink) deviceFor(ctx context.Context, tenantID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.devices[tenantID]; ok {
		return id, nil
	}

	mapping, err := s.registry.FindExternalID(ctx, tenantID, sinkExternalID, registry.ExternalIDTypeSerial)
	switch {
	case err == nil:
		s.devices[tenantID] = mapping.DeviceID
		return mapping.DeviceID, nil
	case !errors.Is(err, registry.ErrNotFound):
		return "", fmt.Errorf("find audit device: %w", err)
	}

	device, err := s.registry.CreateDevice(ctx, tenantID, &registry.Device{
		Type: registry.DeviceTypeLogging,
		Name: "Sensor Bridge Audit Log",
	})
	if err != nil {
		return "", fmt.Errorf("create audit device: %w", err)
	}
	if err := s.registry.CreateExternalID(ctx, tenantID, &registry.ExternalID{
		ID:       sinkExternalID,
		Type:     registry.ExternalIDTypeSerial,
		DeviceID: device.ID,
	}); err != nil {
		return "", fmt.Errorf("register audit device: %w", err)
	}

	slog.Info("created audit device",
		logging.TenantID(tenantID),
		logging.DeviceID(device.ID),
	)
	s.devices[tenantID] = device.ID
	return device.ID, nil
}
