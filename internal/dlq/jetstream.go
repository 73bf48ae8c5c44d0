package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/messaging"
)

// JetStreamQueue writes failed envelopes to NATS JetStream.
// Safe for use across multiple bridge instances.
type JetStreamQueue struct {
	js      *messaging.JetStreamClient
	stream  jetstream.Stream
	written uint64
}

// NewJetStreamQueue creates a DLQ backed by NATS JetStream.
func NewJetStreamQueue(ctx context.Context, js *messaging.JetStreamClient) (*JetStreamQueue, error) {
	if js == nil {
		return nil, fmt.Errorf("jetstream client is nil")
	}

	stream, err := js.CreateOrUpdateStream(ctx, messaging.BridgeDLQStream)
	if err != nil {
		return nil, fmt.Errorf("create dlq stream: %w", err)
	}

	slog.Info("DLQ stream ready", slog.String("stream", messaging.BridgeDLQStream.Name))

	return &JetStreamQueue{
		js:     js,
		stream: stream,
	}, nil
}

// Write records a failed envelope. Errors are returned for logging but
// a DLQ failure must never be treated as an ingestion failure.
func (q *JetStreamQueue) Write(ctx context.Context, tenantID string, payload []byte, cause error, reason string) error {
	if q == nil {
		return nil
	}

	failed := FailedEnvelope{
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
		Payload:   payload,
		Error:     cause.Error(),
		Reason:    reason,
	}

	data, marshalErr := json.Marshal(failed)
	if marshalErr != nil {
		return fmt.Errorf("marshal dlq entry: %w", marshalErr)
	}

	// Subject format: bridge.dlq.<reason>
	subject := fmt.Sprintf("bridge.dlq.%s", reason)

	if _, pubErr := q.js.PublishSync(ctx, subject, data); pubErr != nil {
		return fmt.Errorf("publish dlq entry: %w", pubErr)
	}

	atomic.AddUint64(&q.written, 1)
	return nil
}

// List returns failed envelopes from the JetStream DLQ.
func (q *JetStreamQueue) List(ctx context.Context, limit int) ([]FailedEnvelope, error) {
	if q == nil {
		return nil, fmt.Errorf("dlq not enabled")
	}
	if limit <= 0 {
		limit = 100
	}

	// Ephemeral consumer to read messages without consuming them
	consumer, err := q.stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		FilterSubject: "bridge.dlq.>",
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		MaxDeliver:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("create list consumer: %w", err)
	}

	msgs, err := consumer.Fetch(limit, jetstream.FetchMaxWait(2*time.Second))
	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	var entries []FailedEnvelope
	for msg := range msgs.Messages() {
		var failed FailedEnvelope
		if err := json.Unmarshal(msg.Data(), &failed); err != nil {
			slog.Error("failed to parse DLQ message", logging.Error(err))
			continue
		}
		entries = append(entries, failed)
	}
	if msgs.Error() != nil {
		slog.Warn("DLQ fetch completed with error", logging.Error(msgs.Error()))
	}

	return entries, nil
}

// Purge removes all entries from the DLQ stream.
func (q *JetStreamQueue) Purge(ctx context.Context) error {
	if q == nil {
		return fmt.Errorf("dlq not enabled")
	}
	if err := q.stream.Purge(ctx); err != nil {
		return fmt.Errorf("purge dlq stream: %w", err)
	}
	return nil
}

// Written returns the number of entries this instance has published.
func (q *JetStreamQueue) Written() uint64 {
	if q == nil {
		return 0
	}
	return atomic.LoadUint64(&q.written)
}
