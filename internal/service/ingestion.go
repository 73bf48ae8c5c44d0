package service

import (
	"context"
	"log/slog"

	"github.com/gridpoint-systems/sensor-bridge/internal/dlq"
	"github.com/gridpoint-systems/sensor-bridge/internal/logging"
	"github.com/gridpoint-systems/sensor-bridge/internal/metrics"
	"github.com/gridpoint-systems/sensor-bridge/internal/models"
	"github.com/gridpoint-systems/sensor-bridge/internal/tenant"
)

// Pipeline drives one webhook payload through every enabled tenant:
// audit recording, envelope parsing, device reconciliation and
// telemetry emission. Failures inside one tenant never affect the
// others, and the caller never sees an error for a bad payload.
type Pipeline struct {
	runner     *tenant.Runner
	reconciler *Reconciler
	sink       *AuditSink
	deadLetter dlq.Writer
}

// NewPipeline assembles the ingestion pipeline.
func NewPipeline(runner *tenant.Runner, reconciler *Reconciler, sink *AuditSink, deadLetter dlq.Writer) *Pipeline {
	return &Pipeline{
		runner:     runner,
		reconciler: reconciler,
		sink:       sink,
		deadLetter: deadLetter,
	}
}

// Ingest processes the raw payload for every enabled tenant. The
// returned error only reports a failure to list tenants; per-tenant
// processing errors are logged and swallowed.
func (p *Pipeline) Ingest(ctx context.Context, payload []byte) error {
	metrics.EnvelopeBytesTotal.Add(float64(len(payload)))

	return p.runner.ForEach(ctx, func(ctx context.Context, t tenant.Tenant) error {
		return p.ingestForTenant(ctx, t.ID, payload)
	})
}

func (p *Pipeline) ingestForTenant(ctx context.Context, tenantID string, payload []byte) error {
	// The audit trail gets every payload, parseable or not.
	p.sink.RecordRawPayload(ctx, tenantID, payload)

	env, err := models.ParseEnvelope(payload)
	if err != nil {
		metrics.ParseErrors.Inc()
		metrics.EnvelopesTotal.WithLabelValues("parse_error").Inc()
		slog.Error("failed to parse envelope",
			logging.TenantID(tenantID),
			logging.Error(err),
		)
		if dlqErr := p.deadLetter.Write(ctx, tenantID, payload, err, dlq.ReasonParseError); dlqErr != nil {
			slog.Error("failed to dead-letter envelope",
				logging.TenantID(tenantID),
				logging.Error(dlqErr),
			)
		}
		return err
	}

	if env.ExternalID() == "" || env.DeviceName() == "" {
		metrics.EnvelopesTotal.WithLabelValues("skipped").Inc()
		slog.Warn("envelope missing identity, skipping device mapping",
			logging.TenantID(tenantID),
			slog.String("target", env.Event.TargetName),
		)
		return nil
	}

	device, err := p.reconciler.Upsert(ctx, tenantID, env)
	if err != nil {
		metrics.EnvelopesTotal.WithLabelValues("upsert_error").Inc()
		slog.Error("failed to upsert device",
			logging.TenantID(tenantID),
			logging.ExternalID(env.ExternalID()),
			logging.Error(err),
		)
		return err
	}

	metrics.EnvelopesTotal.WithLabelValues("ok").Inc()
	slog.Debug("envelope processed",
		logging.TenantID(tenantID),
		logging.DeviceID(device.ID),
		logging.ExternalID(env.ExternalID()),
	)
	return nil
}
