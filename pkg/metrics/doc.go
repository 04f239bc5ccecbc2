/*
Package metrics provides Prometheus metrics collection and exposition for
karabologd.

The metrics package defines and registers every metric the Logger Manager,
Data Logger, Log Reader and Backend Client expose, using the Prometheus
client library. Metrics are served over HTTP for scraping.

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│  Prometheus Registry (MustRegister at package init)      │
	│                                                            │
	│  Manager metrics: devices logged, state, assignment time │
	│  Data Logger metrics: state, updates, bad data, flush,    │
	│    schema writes, wall-time reference                    │
	│  Log Reader metrics: state, query counts, query duration,│
	│    schema cache hit rate                                  │
	│  Backend Client metrics: request count/duration by op,   │
	│    circuit breaker state, rate-limit rejections           │
	│                                                            │
	│  Exposed at /metrics via promhttp.Handler()               │
	└────────────────────────────────────────────────────────┘

# Metrics Catalog

See the variable declarations in metrics.go for the authoritative set;
names follow karabologd_<component>_<noun>_total|_seconds convention.
Labels are kept low-cardinality: logger_server, reason, outcome,
operation, status, window — never device IDs or property paths.

# Usage

	import "github.com/karabo-go/karabologd/pkg/metrics"

	metrics.DataLoggerState.WithLabelValues("karabo/dataLoggerA").Set(1)
	metrics.UpdatesReceivedTotal.WithLabelValues("karabo/dataLoggerA").Inc()

	timer := metrics.NewTimer()
	// ... perform a flush ...
	timer.ObserveDurationVec(metrics.FlushDuration, "karabo/dataLoggerA")

	http.Handle("/metrics", metrics.Handler())

# Design Patterns

Package Init Registration:
  - All metrics registered in init(), MustRegister panics on duplicate
  - No runtime registration needed by callers

Timer Pattern:
  - NewTimer() at operation start, ObserveDuration(Vec) at completion

Label Discipline:
  - WithLabelValues only on bounded label sets (server id, reason code,
    outcome); never on device ID or property path, which are unbounded
*/
package metrics
