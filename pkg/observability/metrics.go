package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Flow session metrics
	GatherStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "flow",
			Name:      "gather_steps_total",
			Help:      "Total number of gather steps appended to flows",
		},
		[]string{"mode"},
	)

	GatherDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "beacon",
			Subsystem: "flow",
			Name:      "gather_duration_seconds",
			Help:      "Wall time of gather operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.4min
		},
		[]string{"mode"},
	)

	GatherFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "flow",
			Name:      "gather_failures_total",
			Help:      "Total number of failed gather operations",
		},
		[]string{"mode"},
	)

	InvalidStateRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "flow",
			Name:      "invalid_state_rejections_total",
			Help:      "Total number of operations rejected by slot preconditions",
		},
		[]string{"operation"},
	)

	ActiveOperations = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "beacon",
			Subsystem: "flow",
			Name:      "active_operations",
			Help:      "Currently active long-running operations by kind",
		},
		[]string{"kind"}, // "navigation" or "timespan"
	)

	// Audit pipeline metrics
	AuditRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "audit",
			Name:      "runs_total",
			Help:      "Total number of flow aggregation runs",
		},
		[]string{"result"}, // "success" or "failure"
	)

	AuditStepsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "audit",
			Name:      "steps_scored_total",
			Help:      "Total number of steps handed to the scoring engine",
		},
		[]string{"mode"},
	)

	AuditReconstructions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "audit",
			Name:      "options_reconstructions_total",
			Help:      "Total number of runner-options reconstructions for non-live steps",
		},
	)

	ReportsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "audit",
			Name:      "reports_generated_total",
			Help:      "Total number of rendered flow reports",
		},
	)

	// Archive metrics
	ArchiveFlowsSaved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "archive",
			Name:      "flows_saved_total",
			Help:      "Total number of flow artifact snapshots saved",
		},
	)

	ArchiveFlowsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "beacon",
			Subsystem: "archive",
			Name:      "flows_deleted_total",
			Help:      "Total number of flow artifact snapshots deleted",
		},
	)

	ArchiveRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "beacon",
			Subsystem: "archive",
			Name:      "request_duration_seconds",
			Help:      "Archive API request latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"route", "method", "status"},
	)

	ActiveEventStreamClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "beacon",
			Subsystem: "archive",
			Name:      "event_stream_clients_active",
			Help:      "Number of currently connected event stream WebSocket clients",
		},
	)
)
