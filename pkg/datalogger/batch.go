package datalogger

import (
	"context"

	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
)

// batchEntry remembers which device/stamp a queued line came from, so
// a successful flush can advance lastUpdatesUtc without re-parsing the
// line-protocol text.
type batchEntry struct {
	deviceID string
	stamp    types.Timestamp
}

// enqueue appends a line-protocol line to the pending batch.
func (d *DataLogger) enqueue(deviceID string, stamp types.Timestamp, line string) {
	d.batch = append(d.batch, line)
	d.batchMeta = append(d.batchMeta, batchEntry{deviceID: deviceID, stamp: stamp})
}

// doFlush submits the pending batch to the backend. On success it
// advances lastUpdatesUtc for every device represented in the batch
// and clears it; on failure the batch is left intact for the next
// flush attempt, and once the backend client's circuit breaker trips,
// the logger enters ERROR.
func (d *DataLogger) doFlush(ctx context.Context) error {
	if len(d.batch) == 0 && len(d.badDataBatch) == 0 {
		return nil
	}

	lines := d.batch
	if len(d.badDataBatch) > 0 {
		lines = append(append([]string{}, d.batch...), d.badDataBatch...)
	}

	timer := metrics.NewTimer()
	err := d.backend.WriteBatch(ctx, lines)
	timer.ObserveDurationVec(metrics.FlushDuration, d.cfg.LoggerServerID)

	if err != nil {
		d.logger.Error().Err(err).Int("batch_size", len(lines)).Msg("flush failed")
		if d.backend.Tripped() {
			d.enterError(err)
		}
		return err
	}

	metrics.UpdatesWrittenTotal.WithLabelValues(d.cfg.LoggerServerID).Add(float64(len(d.batch)))

	d.mu.Lock()
	for _, entry := range d.batchMeta {
		if cur, ok := d.lastUpdatesUtc[entry.deviceID]; !ok || entry.stamp.After(cur) {
			d.lastUpdatesUtc[entry.deviceID] = entry.stamp
		}
	}
	d.mu.Unlock()

	d.batch = d.batch[:0]
	d.batchMeta = d.batchMeta[:0]
	d.badDataBatch = d.badDataBatch[:0]
	return nil
}

func (d *DataLogger) enterError(cause error) {
	d.mu.Lock()
	d.state = StateERROR
	d.status = cause.Error()
	for entry := range d.devicesToBeLogged {
		d.devicesNotLogged[entry] = true
	}
	d.mu.Unlock()

	metrics.DataLoggerState.WithLabelValues(d.cfg.LoggerServerID).Set(0)
	d.logger.Error().Err(cause).Msg("data logger entering ERROR: backend retry budget exhausted")
}
