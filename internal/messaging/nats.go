// Package messaging provides the NATS JetStream client used for the
// bridge's dead letter queue.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config holds NATS client configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(url string) Config {
	return Config{
		URL:           url,
		Name:          "sensor-bridge",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// StreamConfig defines a JetStream stream configuration.
type StreamConfig struct {
	Name      string
	Subjects  []string
	MaxAge    time.Duration
	MaxBytes  int64
	MaxMsgs   int64
	Retention jetstream.RetentionPolicy
	Storage   jetstream.StorageType
}

// BridgeDLQStream captures envelopes the ingestion pipeline rejected.
var BridgeDLQStream = StreamConfig{
	Name:      "BRIDGE_DLQ",
	Subjects:  []string{"bridge.dlq.>"},
	MaxAge:    7 * 24 * time.Hour,
	MaxBytes:  100 * 1024 * 1024, // 100MB
	MaxMsgs:   100000,
	Retention: jetstream.LimitsPolicy,
	Storage:   jetstream.FileStorage,
}

// JetStreamClient wraps a NATS connection with a JetStream context.
type JetStreamClient struct {
	conn *nats.Conn
	js   jetstream.JetStream
}

// NewJetStreamClient connects to NATS and creates a JetStream context.
func NewJetStreamClient(cfg Config) (*JetStreamClient, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &JetStreamClient{conn: conn, js: js}, nil
}

// CreateOrUpdateStream creates or updates a stream.
func (c *JetStreamClient) CreateOrUpdateStream(ctx context.Context, cfg StreamConfig) (jetstream.Stream, error) {
	streamCfg := jetstream.StreamConfig{
		Name:      cfg.Name,
		Subjects:  cfg.Subjects,
		MaxAge:    cfg.MaxAge,
		MaxBytes:  cfg.MaxBytes,
		MaxMsgs:   cfg.MaxMsgs,
		Retention: cfg.Retention,
		Storage:   cfg.Storage,
	}

	stream, err := c.js.CreateOrUpdateStream(ctx, streamCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create/update stream %s: %w", cfg.Name, err)
	}
	return stream, nil
}

// PublishSync publishes a message and waits for acknowledgment.
func (c *JetStreamClient) PublishSync(ctx context.Context, subject string, data []byte) (*jetstream.PubAck, error) {
	return c.js.Publish(ctx, subject, data)
}

// Close drains and closes the underlying connection.
func (c *JetStreamClient) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
