/*
Package reconciler runs a periodic background sweep that checks for
Data Logger staleness: a logger server that has not acknowledged a
write in longer than a configured threshold is surfaced via a warning
log (no metric is set for it), so an operator notices before a query
against it times out.

Staleness detection is deliberately advisory only: it never drives the
Logger Manager to ERROR on its own. The Manager enters ERROR for
exactly one reason (spec.md §4.1): the persisted loggermap.xml names a
server absent from the configured serverList. A stale-but-consistent
logger is an operational concern, not a configuration inconsistency.

# Architecture

	┌────────────── RECONCILER ──────────────┐
	│  ticker (10s)                            │
	│    -> dedup logger servers from          │
	│       Manager.LoggerMap()                │
	│    -> StalenessProbe(serverID)           │
	│    -> warn (log only) if age > threshold │
	└──────────────────────────────────────────┘

# Usage

	import "github.com/karabo-go/karabologd/pkg/reconciler"

	r := reconciler.NewReconciler(mgr, func(serverID string) (time.Duration, bool) {
		dl, ok := loggers[serverID]
		if !ok {
			return 0, false
		}
		return dl.StalenessSince(time.Now())
	})
	r.Start()
	defer r.Stop()

# Integration Points

  - pkg/manager: source of the current device-to-server assignment
  - pkg/datalogger: DataLogger.StalenessSince backs a StalenessProbe
    through a small wrapper (see Usage)
*/
package reconciler
