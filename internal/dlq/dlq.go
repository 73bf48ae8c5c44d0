// Package dlq records envelopes the ingestion pipeline could not
// process. The pipeline never retries; the DLQ exists so an operator
// can inspect and replay what was dropped.
package dlq

import (
	"context"
	"time"
)

// Reasons attached to DLQ entries.
const (
	ReasonParseError = "parse_error"
)

// FailedEnvelope is a DLQ entry: the raw payload plus failure metadata.
type FailedEnvelope struct {
	Timestamp time.Time `json:"timestamp"`
	TenantID  string    `json:"tenant_id"`
	Payload   []byte    `json:"payload"`
	Error     string    `json:"error"`
	Reason    string    `json:"reason"`
}

// Writer records failed envelopes.
type Writer interface {
	Write(ctx context.Context, tenantID string, payload []byte, cause error, reason string) error
}

// NoopWriter discards entries. Used when the DLQ is disabled.
type NoopWriter struct{}

func (NoopWriter) Write(ctx context.Context, tenantID string, payload []byte, cause error, reason string) error {
	return nil
}
