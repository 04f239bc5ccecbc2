package datalogger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/baddata"
	"github.com/karabo-go/karabologd/pkg/log"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/ratelimit"
	"github.com/karabo-go/karabologd/pkg/types"
	"github.com/rs/zerolog"
)

type schemaMsg struct {
	deviceID string
	blob     []byte
	seenAt   types.Timestamp
}

type tagMsg struct {
	reason   string
	deviceID string
}

type flushRequest struct {
	done chan error
}

// DataLogger owns the write path for one logger server: intake queue,
// classification, rate-limiting, schema de-duplication, batching and
// flush. All mutable state is touched only on the run goroutine.
type DataLogger struct {
	cfg     Config
	backend *backendclient.Client
	badData *baddata.Ring

	mu      sync.RWMutex
	logger  zerolog.Logger
	state   State
	status  string

	devicesToBeLogged map[string]bool
	devicesNotLogged  map[string]bool
	discontinued      map[string]bool
	lastUpdatesUtc    map[string]types.Timestamp

	propWindows   map[string]map[string]*ratelimit.Window
	schemaWindows map[string]*ratelimit.Window

	schemaLastWritten map[string]map[string]time.Time

	usingWallTimeReference bool
	wallTimeRecoveryCount  int

	batch     []string
	batchMeta []batchEntry

	// badDataBatch holds the write-through line-protocol encoding of
	// every bad-data record raised since the last flush, submitted
	// alongside batch but excluded from batchMeta/lastUpdatesUtc
	// bookkeeping: a rejected or retimed update must not count as the
	// device's last successful write.
	badDataBatch []string

	updateCh  chan types.PropertyUpdate
	schemaCh  chan schemaMsg
	flushReqCh chan flushRequest
	tagCh     chan tagMsg
	levelCh   chan zerolog.Level
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New builds an un-started DataLogger for one logger server.
func New(cfg Config, backend *backendclient.Client) *DataLogger {
	return &DataLogger{
		cfg:     cfg,
		backend: backend,
		badData: baddata.NewRing(cfg.BadDataRingCapacity),
		logger:  log.WithLoggerServerID(cfg.LoggerServerID),
		state:   StateINIT,

		devicesToBeLogged: make(map[string]bool),
		devicesNotLogged:  make(map[string]bool),
		discontinued:      make(map[string]bool),
		lastUpdatesUtc:    make(map[string]types.Timestamp),

		propWindows:       make(map[string]map[string]*ratelimit.Window),
		schemaWindows:     make(map[string]*ratelimit.Window),
		schemaLastWritten: make(map[string]map[string]time.Time),

		updateCh:   make(chan types.PropertyUpdate, 1024),
		schemaCh:   make(chan schemaMsg, 256),
		flushReqCh: make(chan flushRequest),
		tagCh:      make(chan tagMsg, 16),
		levelCh:    make(chan zerolog.Level, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start transitions the logger from INIT to ON and begins its event
// loop goroutine.
func (d *DataLogger) Start() {
	d.mu.Lock()
	d.state = StateON
	d.mu.Unlock()

	metrics.DataLoggerState.WithLabelValues(d.cfg.LoggerServerID).Set(1)
	d.logger.Info().Msg("data logger started")
	go d.run()
}

// Stop requests the event loop to flush its pending batch and exit.
func (d *DataLogger) Stop() {
	close(d.stopCh)
	<-d.doneCh
}

// State returns the current state.
func (d *DataLogger) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Status returns the current status string.
func (d *DataLogger) Status() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// DevicesToBeLogged returns the observable set of devices this logger
// is actively logging.
func (d *DataLogger) DevicesToBeLogged() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.devicesToBeLogged))
	for id := range d.devicesToBeLogged {
		out = append(out, id)
	}
	return out
}

// DevicesNotLogged returns the subset of devicesToBeLogged currently
// failing to log (e.g. because the logger itself is in ERROR).
func (d *DataLogger) DevicesNotLogged() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, 0, len(d.devicesNotLogged))
	for id := range d.devicesNotLogged {
		out = append(out, id)
	}
	return out
}

// LastUpdateUTC returns the latest acknowledged event time for a
// device, if any.
func (d *DataLogger) LastUpdateUTC(deviceID string) (types.Timestamp, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	t, ok := d.lastUpdatesUtc[deviceID]
	return t, ok
}

// UsingWallTimeReference reports whether this logger has switched to
// wall-time reference for rate accounting.
func (d *DataLogger) UsingWallTimeReference() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.usingWallTimeReference
}

// BadData returns this logger's recent bad-data records grouped by
// device, restricted to [from, to]. It reads the bounded in-memory
// ring rather than the backend, so it only covers recent history; the
// durable record is the write-through line slotGetBadData queries.
func (d *DataLogger) BadData(from, to types.Timestamp) map[string][]types.BadDataRecord {
	return d.badData.ByDevice(from, to)
}

// StalenessSince returns how long it has been since this logger last
// acknowledged a write for any device, used by pkg/reconciler's
// StalenessProbe.
func (d *DataLogger) StalenessSince(now time.Time) (time.Duration, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var newest types.Timestamp
	found := false
	for _, t := range d.lastUpdatesUtc {
		if !found || t.After(newest) {
			newest = t
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return now.Sub(newest.Time()), true
}

// Ingest submits a property update to the intake queue. It never
// blocks the caller beyond the channel buffer: submission from the
// transport layer must not depend on logger-internal backpressure any
// more than the buffer allows.
func (d *DataLogger) Ingest(update types.PropertyUpdate) {
	metrics.UpdatesReceivedTotal.WithLabelValues(d.cfg.LoggerServerID).Inc()
	select {
	case d.updateCh <- update:
	case <-d.stopCh:
	}
}

// IngestSchema submits a schema revision to the intake queue.
func (d *DataLogger) IngestSchema(deviceID string, blob []byte, seenAt types.Timestamp) {
	select {
	case d.schemaCh <- schemaMsg{deviceID: deviceID, blob: blob, seenAt: seenAt}:
	case <-d.stopCh:
	}
}

// TagDeviceToBeDiscontinued removes device from the active set; the
// next update from it is ignored.
func (d *DataLogger) TagDeviceToBeDiscontinued(reason, deviceID string) {
	select {
	case d.tagCh <- tagMsg{reason: reason, deviceID: deviceID}:
	case <-d.stopCh:
	}
}

// SetLevel adjusts this logger instance's log verbosity without
// affecting other loggers in the process (slotLoggerLevel).
func (d *DataLogger) SetLevel(level zerolog.Level) {
	select {
	case d.levelCh <- level:
	case <-d.stopCh:
	}
}

// Flush blocks until all events received prior to the call have been
// durably acknowledged by the backend, or returns an error on timeout.
func (d *DataLogger) Flush(ctx context.Context) error {
	req := flushRequest{done: make(chan error, 1)}
	select {
	case d.flushReqCh <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopCh:
		return fmt.Errorf("data logger stopped")
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *DataLogger) run() {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case update := <-d.updateCh:
			d.handleUpdate(update)

		case msg := <-d.schemaCh:
			d.handleSchema(msg)

		case msg := <-d.tagCh:
			d.handleTag(msg)

		case level := <-d.levelCh:
			d.logger = d.logger.Level(level)

		case req := <-d.flushReqCh:
			err := d.doFlush(context.Background())
			req.done <- err

		case <-ticker.C:
			if err := d.doFlush(context.Background()); err != nil {
				d.logger.Warn().Err(err).Msg("periodic flush failed")
			}

		case <-d.stopCh:
			_ = d.doFlush(context.Background())
			return
		}
	}
}

func (d *DataLogger) handleTag(msg tagMsg) {
	d.mu.Lock()
	d.discontinued[msg.deviceID] = true
	delete(d.devicesToBeLogged, msg.deviceID)
	d.mu.Unlock()
	d.logger.Info().Str("device_id", msg.deviceID).Str("reason", msg.reason).Msg("device discontinued")
}
