// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	SessionsReceived  prometheus.Counter
	SessionsStored    prometheus.Counter
	MalformedRecords  prometheus.Counter
	DuplicateSessions prometheus.Counter
	SessionBufferSize prometheus.Gauge
	FeedReconnects    prometheus.Counter

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec
	ModelsTrained     prometheus.Counter
	SessionsRanked    prometheus.Counter
	ReportsGenerated  prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulRun       prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "purchase_intent_lab"
	}

	return &Metrics{
		// Ingestion metrics
		SessionsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sessions_received_total",
			Help:      "Total number of raw session records received from the feed",
		}),
		SessionsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "sessions_stored_total",
			Help:      "Total number of sessions stored to the event log",
		}),
		MalformedRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "malformed_records_total",
			Help:      "Total number of feed records dropped as malformed",
		}),
		DuplicateSessions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duplicate_sessions_total",
			Help:      "Total number of sessions skipped as already stored",
		}),
		SessionBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "session_buffer_size",
			Help:      "Current number of sessions buffered before flush",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_reconnects_total",
			Help:      "Total number of tracking feed reconnect attempts",
		}),

		// Pipeline metrics
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline execution duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"status"}),
		ModelsTrained: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "models_trained_total",
			Help:      "Total number of model artifacts trained",
		}),
		SessionsRanked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sessions_ranked_total",
			Help:      "Total number of sessions scored and ranked",
		}),
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "reports_generated_total",
			Help:      "Total number of reports generated",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulIngestion: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful session flush",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordSessionReceived increments the sessions received counter.
func RecordSessionReceived() {
	DefaultMetrics.SessionsReceived.Inc()
}

// RecordSessionsStored adds to the sessions stored counter.
func RecordSessionsStored(n int) {
	DefaultMetrics.SessionsStored.Add(float64(n))
}

// RecordMalformedRecord increments the malformed records counter.
func RecordMalformedRecord() {
	DefaultMetrics.MalformedRecords.Inc()
}

// RecordDuplicateSession increments the duplicate sessions counter.
func RecordDuplicateSession() {
	DefaultMetrics.DuplicateSessions.Inc()
}

// UpdateSessionBuffer updates the session buffer size gauge.
func UpdateSessionBuffer(size int) {
	DefaultMetrics.SessionBufferSize.Set(float64(size))
}

// RecordFeedReconnect increments the feed reconnects counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}

// RecordPipelineRun records a pipeline run with its duration.
func RecordPipelineRun(status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(status).Observe(durationSeconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
