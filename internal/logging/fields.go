package logging

import "log/slog"

// Common field names for consistent logging across the bridge.
const (
	FieldService    = "service"
	FieldTenantID   = "tenant_id"
	FieldDeviceID   = "device_id"
	FieldExternalID = "external_id"
	FieldEventType  = "event_type"
	FieldError      = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// TenantID returns a slog attribute for the tenant identifier.
func TenantID(id string) slog.Attr {
	return slog.String(FieldTenantID, id)
}

// DeviceID returns a slog attribute for a registry device identifier.
func DeviceID(id string) slog.Attr {
	return slog.String(FieldDeviceID, id)
}

// ExternalID returns a slog attribute for an upstream sensor identifier.
func ExternalID(id string) slog.Attr {
	return slog.String(FieldExternalID, id)
}

// EventType returns a slog attribute for the envelope event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
