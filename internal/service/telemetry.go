package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/metrics"
	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
)

// Emitter translates capability readings into typed measurement and
// event records. Every submission is independent and best-effort: a
// failure is logged and counted, never surfaced to the caller, and
// never affects sibling submissions.
type Emitter struct {
	registry registry.Client
}

// NewEmitter creates a telemetry emitter over the registry client.
func NewEmitter(reg registry.Client) *Emitter {
	return &Emitter{registry: reg}
}

// Temperature submits one temperature measurement.
func (e *Emitter) Temperature(ctx context.Context, tenantID string, device *registry.Device, value float64, ts time.Time) {
	e.submitMeasurement(ctx, tenantID, &registry.Measurement{
		DeviceID: device.ID,
		Type:     registry.MeasurementTypeTemperature,
		Series:   map[string]registry.Value{"temperature": {Value: value, Unit: "C"}},
		Time:     ts,
	})
}

// Battery submits one battery level measurement.
func (e *Emitter) Battery(ctx context.Context, tenantID string, device *registry.Device, percentage float64, ts time.Time) {
	e.submitMeasurement(ctx, tenantID, &registry.Measurement{
		DeviceID: device.ID,
		Type:     registry.MeasurementTypeBattery,
		Series:   map[string]registry.Value{"battery": {Value: percentage, Unit: "%"}},
		Time:     ts,
	})
}

// SignalStrength submits one signal strength measurement.
func (e *Emitter) SignalStrength(ctx context.Context, tenantID string, device *registry.Device, strength int, ts time.Time) {
	e.submitMeasurement(ctx, tenantID, &registry.Measurement{
		DeviceID: device.ID,
		Type:     registry.MeasurementTypeSignalStrength,
		Series:   map[string]registry.Value{"signalStrength": {Value: float64(strength), Unit: "%"}},
		Time:     ts,
	})
}

// OpenClose submits one open/close transition event.
func (e *Emitter) OpenClose(ctx context.Context, tenantID string, device *registry.Device, isOpen bool, text string, ts time.Time) {
	event := &registry.Event{
		DeviceID:   device.ID,
		Type:       registry.EventTypeOpenClose,
		Text:       text,
		Attributes: map[string]any{"isOpen": isOpen},
		Time:       ts,
	}

	if err := e.registry.CreateEvent(ctx, tenantID, event); err != nil {
		metrics.TelemetryErrors.WithLabelValues(event.Type).Inc()
		slog.Error("failed to create event",
			logging.TenantID(tenantID),
			logging.DeviceID(device.ID),
			slog.String("type", event.Type),
			logging.Error(err),
		)
		return
	}
	metrics.EventsCreated.WithLabelValues(event.Type).Inc()
}

func (e *Emitter) submitMeasurement(ctx context.Context, tenantID string, m *registry.Measurement) {
	if err := e.registry.CreateMeasurement(ctx, tenantID, m); err != nil {
		metrics.TelemetryErrors.WithLabelValues(m.Type).Inc()
		slog.Error("failed to create measurement",
			logging.TenantID(tenantID),
			logging.DeviceID(m.DeviceID),
			slog.String("type", m.Type),
			logging.Error(err),
		)
		return
	}
	metrics.MeasurementsCreated.WithLabelValues(m.Type).Inc()
}
