package logreader

import (
	"sync"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/schemacache"
	"github.com/rs/zerolog"
)

// Reader owns the read path for the backend: property history,
// past-configuration reconstruction, and bad-data lookup. Counters
// and state are protected by mu; unlike the Data Logger, the read
// path has no cooperative event loop of its own, since every
// operation here is a bounded, synchronous backend round trip rather
// than an unbounded stream of device updates.
type Reader struct {
	cfg     Config
	backend *backendclient.Client
	cache   *schemacache.Cache
	logger  zerolog.Logger

	mu     sync.RWMutex
	state  State
	status string

	numGetPropertyHistory      uint64
	numGetConfigurationFromPast uint64
	numGetBadData              uint64
}

// New builds a Reader. cache may be nil, in which case every schema
// lookup falls through to the backend.
func New(cfg Config, backend *backendclient.Client, cache *schemacache.Cache) *Reader {
	return &Reader{
		cfg:     cfg,
		backend: backend,
		cache:   cache,
		logger:  log.WithComponent("logreader"),
		state:   StateON,
	}
}

// State returns the Reader's current state.
func (r *Reader) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Status returns the human-readable status, set when the Reader last
// transitioned state.
func (r *Reader) Status() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// MaxHistorySize returns the configured maxHistorySize observable
// property.
func (r *Reader) MaxHistorySize() int {
	return r.cfg.MaxHistorySize
}

// NumGetPropertyHistory returns the numGetPropertyHistory counter.
func (r *Reader) NumGetPropertyHistory() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.numGetPropertyHistory
}

// NumGetConfigurationFromPast returns the
// numGetConfigurationFromPast counter.
func (r *Reader) NumGetConfigurationFromPast() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.numGetConfigurationFromPast
}

// NumGetBadData returns the numGetBadData counter.
func (r *Reader) NumGetBadData() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.numGetBadData
}

// enterError transitions the Reader to ERROR on the first failed
// backend access. It is idempotent: once in ERROR, repeated failures
// just update status.
func (r *Reader) enterError(cause error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateERROR
	r.status = cause.Error()
	r.logger.Error().Err(cause).Msg("log reader entering ERROR on failed backend access")
}

// recoverOK transitions the Reader back to ON after a successful
// backend access.
func (r *Reader) recoverOK() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == StateERROR {
		r.logger.Info().Msg("log reader recovered, returning to ON")
	}
	r.state = StateON
	r.status = ""
}
