package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gridpoint-systems/sensor-bridge/internal/models"
	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
)

// fakeRegistry is an in-memory registry.Client. State is keyed by
// tenant so tests can assert isolation; error fields inject failures
// per operation.
type fakeRegistry struct {
	mu sync.Mutex

	externalIDs  map[string]*registry.ExternalID
	devices      map[string]*registry.Device
	measurements map[string][]registry.Measurement
	events       map[string][]registry.Event

	nextID   int
	pageSize int

	findErr        error
	getErr         error
	createErr      error
	updateErr      error
	listDevicesErr error
	measurementErr error
	eventErr       error
	listEventsErr  error

	createDeviceCalls int
	updateDeviceCalls int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		externalIDs:  make(map[string]*registry.ExternalID),
		devices:      make(map[string]*registry.Device),
		measurements: make(map[string][]registry.Measurement),
		events:       make(map[string][]registry.Event),
		pageSize:     100,
	}
}

func (f *fakeRegistry) extKey(tenantID, externalID, idType string) string {
	return tenantID + "/" + idType + "/" + externalID
}

func (f *fakeRegistry) devKey(tenantID, deviceID string) string {
	return tenantID + "/" + deviceID
}

func (f *fakeRegistry) FindExternalID(ctx context.Context, tenantID, externalID, idType string) (*registry.ExternalID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	ext, ok := f.externalIDs[f.extKey(tenantID, externalID, idType)]
	if !ok {
		return nil, registry.ErrNotFound
	}
	cp := *ext
	return &cp, nil
}

func (f *fakeRegistry) CreateExternalID(ctx context.Context, tenantID string, ext *registry.ExternalID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	key := f.extKey(tenantID, ext.ID, ext.Type)
	if _, ok := f.externalIDs[key]; ok {
		return fmt.Errorf("external id %s already exists", ext.ID)
	}
	cp := *ext
	f.externalIDs[key] = &cp
	return nil
}

func (f *fakeRegistry) GetDevice(ctx context.Context, tenantID, deviceID string) (*registry.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	device, ok := f.devices[f.devKey(tenantID, deviceID)]
	if !ok {
		return nil, registry.ErrNotFound
	}
	return copyDevice(device), nil
}

func (f *fakeRegistry) CreateDevice(ctx context.Context, tenantID string, device *registry.Device) (*registry.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createDeviceCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	cp := copyDevice(device)
	cp.ID = strconv.Itoa(f.nextID)
	f.devices[f.devKey(tenantID, cp.ID)] = cp
	return copyDevice(cp), nil
}

func (f *fakeRegistry) UpdateDevice(ctx context.Context, tenantID string, device *registry.Device) (*registry.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateDeviceCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	key := f.devKey(tenantID, device.ID)
	if _, ok := f.devices[key]; !ok {
		return nil, registry.ErrNotFound
	}
	f.devices[key] = copyDevice(device)
	return copyDevice(device), nil
}

func (f *fakeRegistry) ListDevices(ctx context.Context, tenantID string, page int) ([]registry.Device, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listDevicesErr != nil {
		return nil, false, f.listDevicesErr
	}
	var all []registry.Device
	prefix := tenantID + "/"
	// Deterministic order by numeric ID.
	for i := 1; i <= f.nextID; i++ {
		if d, ok := f.devices[prefix+strconv.Itoa(i)]; ok {
			all = append(all, *copyDevice(d))
		}
	}
	return paginate(all, page, f.pageSize)
}

func (f *fakeRegistry) CreateMeasurement(ctx context.Context, tenantID string, m *registry.Measurement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.measurementErr != nil {
		return f.measurementErr
	}
	f.measurements[tenantID] = append(f.measurements[tenantID], *m)
	return nil
}

func (f *fakeRegistry) CreateEvent(ctx context.Context, tenantID string, e *registry.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events[tenantID] = append(f.events[tenantID], *e)
	return nil
}

func (f *fakeRegistry) ListEvents(ctx context.Context, tenantID string, filter registry.EventFilter, page int) ([]registry.Event, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listEventsErr != nil {
		return nil, false, f.listEventsErr
	}
	var matched []registry.Event
	for _, e := range f.events[tenantID] {
		if filter.DeviceID != "" && e.DeviceID != filter.DeviceID {
			continue
		}
		if filter.Type != "" && e.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && e.Time.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.Time.Before(filter.To) {
			continue
		}
		matched = append(matched, e)
	}
	return paginate(matched, page, f.pageSize)
}

func (f *fakeRegistry) measurementsOfType(tenantID, mType string) []registry.Measurement {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []registry.Measurement
	for _, m := range f.measurements[tenantID] {
		if m.Type == mType {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeRegistry) eventsOfType(tenantID, eType string) []registry.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []registry.Event
	for _, e := range f.events[tenantID] {
		if e.Type == eType {
			out = append(out, e)
		}
	}
	return out
}

func copyDevice(d *registry.Device) *registry.Device {
	cp := *d
	if d.Attributes != nil {
		cp.Attributes = make(map[string]any, len(d.Attributes))
		for k, v := range d.Attributes {
			cp.Attributes[k] = v
		}
	}
	return &cp
}

func paginate[T any](items []T, page, pageSize int) ([]T, bool, error) {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil, false, nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], end < len(items), nil
}

func testEnvelope(externalID, name string, ts time.Time, data models.Data) *models.Envelope {
	return &models.Envelope{
		Event: &models.EventBody{
			TargetName: "projects/test-project/devices/" + externalID,
			Timestamp:  ts,
			EventType:  "sensorEvent",
			Data:       data,
		},
		Labels: &models.Labels{Name: name},
	}
}
