package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpoint-systems/sensor-bridge/internal/registry"
)

func TestAuditSinkCreatesDeviceOnce(t *testing.T) {
	reg := newFakeRegistry()
	sink := NewAuditSink(reg)

	sink.RecordRawPayload(context.Background(), "tenant-a", []byte(`{"a":1}`))
	sink.RecordRawPayload(context.Background(), "tenant-a", []byte(`{"b":2}`))

	assert.Equal(t, 1, reg.createDeviceCalls)

	events := reg.eventsOfType("tenant-a", registry.EventTypeRawPayload)
	require.Len(t, events, 2)
	assert.Equal(t, `{"a":1}`, events[0].Attributes["payload"])
	assert.Equal(t, `{"b":2}`, events[1].Attributes["payload"])
	assert.Equal(t, events[0].DeviceID, events[1].DeviceID)

	ext, err := reg.FindExternalID(context.Background(), "tenant-a", sinkExternalID, registry.ExternalIDTypeSerial)
	require.NoError(t, err)
	assert.Equal(t, events[0].DeviceID, ext.DeviceID)

	device, err := reg.GetDevice(context.Background(), "tenant-a", ext.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, registry.DeviceTypeLogging, device.Type)
}

func TestAuditSinkReusesExistingDevice(t *testing.T) {
	reg := newFakeRegistry()

	existing, err := reg.CreateDevice(context.Background(), "tenant-a", &registry.Device{
		Type: registry.DeviceTypeLogging,
		Name: "Sensor Bridge Audit Log",
	})
	require.NoError(t, err)
	require.NoError(t, reg.CreateExternalID(context.Background(), "tenant-a", &registry.ExternalID{
		ID:       sinkExternalID,
		Type:     registry.ExternalIDTypeSerial,
		DeviceID: existing.ID,
	}))
	reg.createDeviceCalls = 0

	sink := NewAuditSink(reg)
	sink.RecordRawPayload(context.Background(), "tenant-a", []byte(`{}`))

	assert.Equal(t, 0, reg.createDeviceCalls, "existing audit device is adopted")
	events := reg.eventsOfType("tenant-a", registry.EventTypeRawPayload)
	require.Len(t, events, 1)
	assert.Equal(t, existing.ID, events[0].DeviceID)
}

func TestAuditSinkPerTenantDevices(t *testing.T) {
	reg := newFakeRegistry()
	sink := NewAuditSink(reg)

	sink.RecordRawPayload(context.Background(), "tenant-a", []byte(`{}`))
	sink.RecordRawPayload(context.Background(), "tenant-b", []byte(`{}`))

	assert.Equal(t, 2, reg.createDeviceCalls)
	a := reg.eventsOfType("tenant-a", registry.EventTypeRawPayload)
	b := reg.eventsOfType("tenant-b", registry.EventTypeRawPayload)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
}

func TestAuditSinkSwallowsFailures(t *testing.T) {
	reg := newFakeRegistry()
	reg.createErr = assert.AnError
	sink := NewAuditSink(reg)

	// Must not panic or error; the payload is simply lost from audit.
	sink.RecordRawPayload(context.Background(), "tenant-a", []byte(`{}`))
	assert.Empty(t, reg.eventsOfType("tenant-a", registry.EventTypeRawPayload))
}
