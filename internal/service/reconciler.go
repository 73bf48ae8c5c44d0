package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gridpoint-systems/sensor-bridge/internal/identity"
	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/metrics"
	"github.com/gridpoint-systems/sensor-bridge/internal/models"
	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
)

// Device attribute names written by the reconciler.
const (
	attrDeviceMarker   = "isDevice"
	attrSignalStrength = "signalStrength"
	attrTemperature    = "temperature"
	attrIsOpen         = "isOpen"
	attrBattery        = "battery"
	attrLastUpdate     = "lastUpdateTimestamp"
)

// Object presence state reported by the sensor. PRESENT means the
// magnet is in range of the sensor, i.e. the door is closed.
const statePresent = "PRESENT"

// Reconciler resolves external sensor identities to registry devices
// and applies envelope state. Concurrent upserts for the same
// (tenant, external ID) pair are serialized so at most one device is
// ever created per identity.
type Reconciler struct {
	registry registry.Client
	cache    *identity.Cache
	emitter  *Emitter

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewReconciler creates a reconciler. The cache may be disabled;
// resolution then always goes through the registry.
func NewReconciler(reg registry.Client, cache *identity.Cache, emitter *Emitter) *Reconciler {
	return &Reconciler{
		registry: reg,
		cache:    cache,
		emitter:  emitter,
		locks:    make(map[string]*sync.Mutex),
	}
}

// Upsert creates or updates the device for the envelope's external ID
// and, once the device is persisted, emits the envelope's telemetry.
// Persistence failures are logged and counted; the caller only sees
// whether a device materialized.
func (r *Reconciler) Upsert(ctx context.Context, tenantID string, env *models.Envelope) (*registry.Device, error) {
	externalID := env.ExternalID()

	lock := r.keyLock(tenantID, externalID)
	lock.Lock()
	defer lock.Unlock()

	device, created, err := r.resolveOrCreate(ctx, tenantID, externalID, env)
	if err != nil {
		metrics.UpsertErrors.WithLabelValues(tenantID).Inc()
		return nil, err
	}

	if !created {
		applyEnvelope(device, env)
		device, err = r.registry.UpdateDevice(ctx, tenantID, device)
		if err != nil {
			metrics.UpsertErrors.WithLabelValues(tenantID).Inc()
			return nil, fmt.Errorf("update device: %w", err)
		}
		metrics.DevicesUpdated.WithLabelValues(tenantID).Inc()
	}

	r.emitTelemetry(ctx, tenantID, device, env)
	return device, nil
}

// resolveOrCreate finds the device behind the external ID, creating
// both the device and its identity mapping when nothing exists yet.
// New devices are created with the envelope state already applied.
func (r *Reconciler) resolveOrCreate(ctx context.Context, tenantID, externalID string, env *models.Envelope) (*registry.Device, bool, error) {
	if deviceID, cacheErr := r.cache.Get(ctx, tenantID, externalID, registry.ExternalIDTypeSerial); cacheErr == nil && deviceID != "" {
		device, err := r.registry.GetDevice(ctx, tenantID, deviceID)
		if err == nil {
			return device, false, nil
		}
		// Stale cache entry; fall through to the registry lookup.
		slog.Warn("cached device lookup failed",
			logging.TenantID(tenantID),
			logging.ExternalID(externalID),
			logging.Error(err),
		)
	}

	mapping, err := r.registry.FindExternalID(ctx, tenantID, externalID, registry.ExternalIDTypeSerial)
	switch {
	case err == nil:
		device, err := r.registry.GetDevice(ctx, tenantID, mapping.DeviceID)
		if err != nil {
			return nil, false, fmt.Errorf("get device %s: %w", mapping.DeviceID, err)
		}
		r.cachePut(ctx, tenantID, externalID, device.ID)
		return device, false, nil
	case !errors.Is(err, registry.ErrNotFound):
		return nil, false, fmt.Errorf("find external id %s: %w", externalID, err)
	}

	device := &registry.Device{
		Type: registry.DeviceTypeSensor,
		Name: env.DeviceName(),
	}
	applyEnvelope(device, env)
	device, err = r.registry.CreateDevice(ctx, tenantID, device)
	if err != nil {
		return nil, false, fmt.Errorf("create device: %w", err)
	}
	if err := r.registry.CreateExternalID(ctx, tenantID, &registry.ExternalID{
		ID:       externalID,
		Type:     registry.ExternalIDTypeSerial,
		DeviceID: device.ID,
	}); err != nil {
		return nil, false, fmt.Errorf("create external id %s: %w", externalID, err)
	}

	r.cachePut(ctx, tenantID, externalID, device.ID)
	metrics.DevicesCreated.WithLabelValues(tenantID).Inc()
	slog.Info("created device",
		logging.TenantID(tenantID),
		logging.DeviceID(device.ID),
		logging.ExternalID(externalID),
	)
	return device, true, nil
}

func (r *Reconciler) cachePut(ctx context.Context, tenantID, externalID, deviceID string) {
	if err := r.cache.Put(ctx, tenantID, externalID, registry.ExternalIDTypeSerial, deviceID); err != nil {
		slog.Warn("failed to cache identity mapping",
			logging.TenantID(tenantID),
			logging.ExternalID(externalID),
			logging.Error(err),
		)
	}
}

// applyEnvelope copies the envelope's capability readings onto the
// device as attributes. Absent capabilities leave prior values intact.
func applyEnvelope(device *registry.Device, env *models.Envelope) {
	device.SetAttribute(attrDeviceMarker, true)
	device.SetAttribute(attrLastUpdate, env.Event.Timestamp.UTC().Format(time.RFC3339))

	data := env.Event.Data
	if data.NetworkStatus != nil {
		device.SetAttribute(attrSignalStrength, data.NetworkStatus.SignalStrength)
	}
	if data.Temperature != nil {
		device.SetAttribute(attrTemperature, data.Temperature.Value)
	}
	if data.ObjectPresent != nil {
		device.SetAttribute(attrIsOpen, data.ObjectPresent.State != statePresent)
	}
	if data.BatteryStatus != nil {
		device.SetAttribute(attrBattery, data.BatteryStatus.Percentage)
	}
}

// emitTelemetry submits one record per capability present in the
// envelope. The device is persisted at this point, so every record
// carries a real device ID.
func (r *Reconciler) emitTelemetry(ctx context.Context, tenantID string, device *registry.Device, env *models.Envelope) {
	ts := env.Event.Timestamp
	data := env.Event.Data

	if data.Temperature != nil {
		r.emitter.Temperature(ctx, tenantID, device, data.Temperature.Value, ts)
	}
	if data.BatteryStatus != nil {
		r.emitter.Battery(ctx, tenantID, device, data.BatteryStatus.Percentage, ts)
	}
	if data.NetworkStatus != nil {
		r.emitter.SignalStrength(ctx, tenantID, device, data.NetworkStatus.SignalStrength, ts)
	}
	if data.ObjectPresent != nil {
		isOpen := data.ObjectPresent.State != statePresent
		text := "Object opened"
		if !isOpen {
			text = "Object closed"
		}
		r.emitter.OpenClose(ctx, tenantID, device, isOpen, text, ts)
	}
}

func (r *Reconciler) keyLock(tenantID, externalID string) *sync.Mutex {
	key := tenantID + "/" + externalID
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[key] = lock
	}
	return lock
}
