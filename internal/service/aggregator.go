package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/metrics"
	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
	"github.com/gridpoint-systems/sensor-bridge/internal/tenant"
)

// Aggregator computes the daily open/close activity summary: for each
// sensor device it counts the open/close events of the last full day
// and stores the count as a single measurement.
type Aggregator struct {
	registry registry.Client
	runner   *tenant.Runner

	// now is the clock source, replaceable in tests.
	now func() time.Time
}

// NewAggregator creates the daily aggregator.
func NewAggregator(reg registry.Client, runner *tenant.Runner) *Aggregator {
	return &Aggregator{
		registry: reg,
		runner:   runner,
		now:      time.Now,
	}
}

// Run executes one aggregation round across all enabled tenants. A
// tenant whose device listing fails is aborted; a device whose events
// cannot be counted is skipped.
func (a *Aggregator) Run(ctx context.Context) error {
	toDate := a.now().UTC().Truncate(24 * time.Hour)
	fromDate := toDate.Add(-24 * time.Hour)

	return a.runner.ForEach(ctx, func(ctx context.Context, t tenant.Tenant) error {
		if err := a.runForTenant(ctx, t.ID, fromDate, toDate); err != nil {
			metrics.AggregationRuns.WithLabelValues(t.ID, "error").Inc()
			return err
		}
		metrics.AggregationRuns.WithLabelValues(t.ID, "ok").Inc()
		return nil
	})
}

func (a *Aggregator) runForTenant(ctx context.Context, tenantID string, fromDate, toDate time.Time) error {
	slog.Info("starting daily aggregation",
		logging.TenantID(tenantID),
		slog.Time("from", fromDate),
		slog.Time("to", toDate),
	)

	for page := 1; ; page++ {
		devices, more, err := a.registry.ListDevices(ctx, tenantID, page)
		if err != nil {
			return fmt.Errorf("list devices page %d: %w", page, err)
		}
		for i := range devices {
			device := &devices[i]
			if device.Type != registry.DeviceTypeSensor {
				continue
			}
			if err := a.aggregateDevice(ctx, tenantID, device, fromDate, toDate); err != nil {
				metrics.AggregationDeviceErrors.WithLabelValues(tenantID).Inc()
				slog.Error("failed to aggregate device",
					logging.TenantID(tenantID),
					logging.DeviceID(device.ID),
					logging.Error(err),
				)
			}
		}
		if !more {
			return nil
		}
	}
}

// aggregateDevice counts the device's open/close events in
// [fromDate, toDate) and writes the daily count measurement.
func (a *Aggregator) aggregateDevice(ctx context.Context, tenantID string, device *registry.Device, fromDate, toDate time.Time) error {
	count := 0
	filter := registry.EventFilter{
		DeviceID: device.ID,
		Type:     registry.EventTypeOpenClose,
		From:     fromDate,
		To:       toDate,
	}
	for page := 1; ; page++ {
		events, more, err := a.registry.ListEvents(ctx, tenantID, filter, page)
		if err != nil {
			return fmt.Errorf("list events page %d: %w", page, err)
		}
		count += len(events)
		if !more {
			break
		}
	}

	m := &registry.Measurement{
		DeviceID: device.ID,
		Type:     registry.MeasurementTypeOpenClose,
		Series: map[string]registry.Value{
			"openCloseCountsPerDay": {Value: float64(count), Unit: "# per Day"},
		},
		Time: toDate,
	}
	if err := a.registry.CreateMeasurement(ctx, tenantID, m); err != nil {
		return fmt.Errorf("create daily measurement: %w", err)
	}
	metrics.MeasurementsCreated.WithLabelValues(m.Type).Inc()
	return nil
}
