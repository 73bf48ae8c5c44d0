package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Webhook ingestion metrics
	EnvelopesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_envelopes_total",
			Help: "Total number of webhook envelopes received",
		},
		[]string{"status"},
	)

	EnvelopeBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_envelope_bytes_total",
			Help: "Total bytes of envelope data received",
		},
	)

	ParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_parse_errors_total",
			Help: "Total number of envelope parse failures",
		},
	)

	// Reconciliation metrics
	DevicesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_devices_created_total",
			Help: "Total number of registry devices created",
		},
		[]string{"tenant"},
	)

	DevicesUpdated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_devices_updated_total",
			Help: "Total number of registry devices updated",
		},
		[]string{"tenant"},
	)

	UpsertErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_upsert_errors_total",
			Help: "Total number of failed device upserts",
		},
		[]string{"tenant"},
	)

	// Telemetry metrics
	MeasurementsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_measurements_created_total",
			Help: "Total number of measurement records submitted",
		},
		[]string{"type"},
	)

	EventsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_created_total",
			Help: "Total number of domain event records submitted",
		},
		[]string{"type"},
	)

	TelemetryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_telemetry_errors_total",
			Help: "Total number of failed telemetry submissions",
		},
		[]string{"type"},
	)

	// Registry client metrics
	RegistryCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_registry_call_duration_seconds",
			Help:    "Duration of outbound registry calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Aggregation metrics
	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_aggregation_runs_total",
			Help: "Total number of daily aggregation runs",
		},
		[]string{"tenant", "status"},
	)

	AggregationDeviceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_aggregation_device_errors_total",
			Help: "Total number of devices skipped during aggregation",
		},
		[]string{"tenant"},
	)

	// Signature verification metrics
	SignatureRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_signature_rejections_total",
			Help: "Total number of webhooks rejected for bad signatures",
		},
	)
)
