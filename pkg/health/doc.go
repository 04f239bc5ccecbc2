/*
Package health provides a small HTTP health-check mechanism used to
probe the time-series backend's reachability, independent of whether a
write or query is currently in flight.

Unlike the Backend Client's circuit breaker (which trips on consecutive
request failures already incurred), this package lets a caller actively
poll reachability on its own schedule, e.g. to decide when the Data
Logger or Log Reader should attempt to leave ERROR.

# Architecture

	┌─────────────── HEALTH CHECK ───────────────┐
	│  Checker interface                           │
	│    Check(ctx) Result                         │
	│    Type() CheckType                          │
	│                                               │
	│  HTTPChecker: GET <backend>/ping,            │
	│    healthy iff status in [min, max]          │
	│                                               │
	│  Status: consecutive failure/success         │
	│    tracking, Retries before flipping Healthy │
	└───────────────────────────────────────────────┘

# Usage

	import "github.com/karabo-go/karabologd/pkg/health"

	checker := health.NewHTTPChecker("http://influx.example.org:8086/ping")
	status := health.NewStatus()
	cfg := health.DefaultConfig()

	result := checker.Check(ctx)
	status.Update(result, cfg)
	if !status.Healthy {
		// backend has failed Retries consecutive checks
	}

# Integration Points

  - cmd/karabologd/{logger,reader}.go: each starts a background
    HTTPChecker loop against its backendclient.Config's read URL,
    feeding the result into its /healthz handler as the "backend"
    component alongside the Data Logger's/Log Reader's own state
  - pkg/backendclient: the checked URL is the backend's read endpoint
*/
package health
