// Package reconciler periodically checks the logger servers named in
// the Logger Manager's assignment for staleness (a logger that has
// gone silent). It does not re-check the assignment against
// serverList; that check runs only once, in the Manager's Start.
package reconciler

import (
	"sync"
	"time"

	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/manager"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/rs/zerolog"
)

// StalenessProbe reports, for a logger server, how long it has been
// since the Data Logger running on it last acknowledged a write. The
// Data Logger itself implements this via its lastUpdatesUtc property.
type StalenessProbe func(loggerServerID string) (time.Duration, bool)

// Reconciler runs the periodic consistency sweep.
type Reconciler struct {
	mgr    *manager.Manager
	probe  StalenessProbe
	logger zerolog.Logger
	mu     sync.RWMutex
	stopCh chan struct{}

	staleThreshold time.Duration
}

// NewReconciler creates a Reconciler for mgr. probe may be nil if no
// staleness data is available yet.
func NewReconciler(mgr *manager.Manager, probe StalenessProbe) *Reconciler {
	return &Reconciler{
		mgr:            mgr,
		probe:          probe,
		logger:         log.WithComponent("reconciler"),
		stopCh:         make(chan struct{}),
		staleThreshold: 60 * time.Second,
	}
}

// Start begins the reconciliation loop.
func (r *Reconciler) Start() {
	go r.run()
}

// Stop stops the reconciler.
func (r *Reconciler) Stop() {
	close(r.stopCh)
}

func (r *Reconciler) run() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	r.logger.Info().Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			r.reconcile()
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

func (r *Reconciler) reconcile() {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.AssignmentDuration)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkStaleLoggers()
}

// checkStaleLoggers warns when a logger server referenced by the map
// has not acknowledged a write within staleThreshold. It does not
// drive the Manager to ERROR by itself: only a serverList/loggermap
// name mismatch does that, per the Manager's public contract.
func (r *Reconciler) checkStaleLoggers() {
	if r.probe == nil {
		return
	}

	seen := make(map[string]bool)
	for _, row := range r.mgr.LoggerMap() {
		if seen[row.LoggerServerID] {
			continue
		}
		seen[row.LoggerServerID] = true

		age, ok := r.probe(row.LoggerServerID)
		if !ok {
			continue
		}
		if age > r.staleThreshold {
			r.logger.Warn().
				Str("logger_server", row.LoggerServerID).
				Dur("since_last_ack", age).
				Msg("logger server has not acknowledged a write recently")
		}
	}
}
