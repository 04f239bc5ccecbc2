package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Manager metrics
	DevicesLoggedTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "karabologd_devices_logged_total",
			Help: "Total number of devices tracked by the logger map, by logger server",
		},
		[]string{"logger_server"},
	)

	ManagerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "karabologd_manager_state",
			Help: "Logger Manager state (1 = ON, 0 = ERROR)",
		},
	)

	AssignmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "karabologd_assignment_duration_seconds",
			Help:    "Time taken to assign a device to a logger",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Data Logger metrics
	DataLoggerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "karabologd_datalogger_state",
			Help: "Data Logger state by logger server id (1 = ON, 0 = ERROR)",
		},
		[]string{"logger_server"},
	)

	UpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_updates_received_total",
			Help: "Total property updates received, by logger server",
		},
		[]string{"logger_server"},
	)

	UpdatesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_updates_written_total",
			Help: "Total property updates written to the backend, by logger server",
		},
		[]string{"logger_server"},
	)

	BadDataTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_bad_data_total",
			Help: "Total events classified as bad data, by reason",
		},
		[]string{"reason"},
	)

	FlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "karabologd_flush_duration_seconds",
			Help:    "Time taken to flush a batch to the backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"logger_server"},
	)

	FlushBatchBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "karabologd_flush_batch_bytes",
			Help:    "Size in bytes of flushed write batches",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)

	SchemaWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_schema_writes_total",
			Help: "Total schema revisions written, by outcome (written, deduplicated)",
		},
		[]string{"outcome"},
	)

	WallTimeReferenceActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "karabologd_walltime_reference_active",
			Help: "Whether a Data Logger has switched to wall-time reference for rate accounting (1 = active)",
		},
		[]string{"logger_server"},
	)

	// Log Reader metrics
	ReaderState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "karabologd_reader_state",
			Help: "Log Reader state by server id (1 = ON, 0 = ERROR)",
		},
		[]string{"server"},
	)

	PropertyHistoryQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "karabologd_property_history_queries_total",
			Help: "Total slotGetPropertyHistory invocations",
		},
	)

	ConfigurationFromPastQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "karabologd_configuration_from_past_queries_total",
			Help: "Total slotGetConfigurationFromPast invocations",
		},
	)

	BadDataQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "karabologd_bad_data_queries_total",
			Help: "Total slotGetBadData invocations",
		},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "karabologd_query_duration_seconds",
			Help:    "Reader query duration in seconds, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	SchemaCacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_schema_cache_total",
			Help: "Schema cache lookups, by outcome (hit, miss)",
		},
		[]string{"outcome"},
	)

	// Backend Client metrics
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_backend_requests_total",
			Help: "Total backend requests, by operation and status",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "karabologd_backend_request_duration_seconds",
			Help:    "Backend request duration in seconds, by operation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	BackendCircuitState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "karabologd_backend_circuit_state",
			Help: "Backend Client circuit breaker state (0 = closed, 1 = half-open, 2 = open)",
		},
	)

	RateLimitRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "karabologd_rate_limit_rejections_total",
			Help: "Total admission rejections, by window kind (property, schema)",
		},
		[]string{"window"},
	)
)

func init() {
	prometheus.MustRegister(DevicesLoggedTotal)
	prometheus.MustRegister(ManagerState)
	prometheus.MustRegister(AssignmentDuration)

	prometheus.MustRegister(DataLoggerState)
	prometheus.MustRegister(UpdatesReceivedTotal)
	prometheus.MustRegister(UpdatesWrittenTotal)
	prometheus.MustRegister(BadDataTotal)
	prometheus.MustRegister(FlushDuration)
	prometheus.MustRegister(FlushBatchBytes)
	prometheus.MustRegister(SchemaWritesTotal)
	prometheus.MustRegister(WallTimeReferenceActive)

	prometheus.MustRegister(ReaderState)
	prometheus.MustRegister(PropertyHistoryQueriesTotal)
	prometheus.MustRegister(ConfigurationFromPastQueriesTotal)
	prometheus.MustRegister(BadDataQueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(SchemaCacheHitsTotal)

	prometheus.MustRegister(BackendRequestsTotal)
	prometheus.MustRegister(BackendRequestDuration)
	prometheus.MustRegister(BackendCircuitState)
	prometheus.MustRegister(RateLimitRejectionsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
