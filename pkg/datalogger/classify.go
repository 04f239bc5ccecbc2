package datalogger

import (
	"fmt"
	"time"

	"github.com/karabo-go/karabologd/pkg/backendclient"
	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/ratelimit"
	"github.com/karabo-go/karabologd/pkg/types"
)

// handleUpdate classifies, rate-limits and (on admission) batches one
// property update. It is called only from the run goroutine.
func (d *DataLogger) handleUpdate(update types.PropertyUpdate) {
	d.mu.RLock()
	discontinued := d.discontinued[update.DeviceID]
	d.mu.RUnlock()
	if discontinued {
		return
	}

	now := time.Now()
	update = d.applyTimeReference(update, now)

	if len(update.Path) > 0 && update.Value.VectorLen() > 0 && update.Value.ByteSize() > d.cfg.MaxVectorSize {
		info := fmt.Sprintf("vector of size %d exceeds maxVectorSize >> [1] '%s'", update.Value.ByteSize(), update.Path)
		d.reject(update.DeviceID, now, types.ReasonVectorOversize, info)
		return
	}
	if update.Value.Type == types.TypeString && len(update.Value.Str) > d.cfg.MaxValueStringSize {
		info := fmt.Sprintf("string exceeds maxValueStringSize >> [1] '%s'", update.Path)
		d.reject(update.DeviceID, now, types.ReasonStringOversize, info)
		return
	}

	window := d.propWindowFor(update.DeviceID, update.Path)
	cost := update.ByteSize()
	if !window.Admit(now, cost) {
		metrics.RateLimitRejectionsTotal.WithLabelValues("property").Inc()
		d.reject(update.DeviceID, now, types.ReasonPropertyRateLimited, "property log rate exceeded")
		return
	}

	line := backendclient.Line(update.DeviceID, update.Path, update.Value, update.Stamp)
	d.enqueue(update.DeviceID, update.Stamp, line)

	d.mu.Lock()
	d.devicesToBeLogged[update.DeviceID] = true
	delete(d.devicesNotLogged, update.DeviceID)
	d.mu.Unlock()
}

// applyTimeReference implements the event-time/wall-time reference
// switch: it retimestamps the update when its stamp is judged
// untrustworthy, and maintains the sticky usingWallTimeReference flag
// and its recovery streak.
func (d *DataLogger) applyTimeReference(update types.PropertyUpdate, now time.Time) types.PropertyUpdate {
	skew := now.Sub(update.Stamp.Time())
	if skew < 0 {
		skew = -skew
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switchThreshold := time.Duration(float64(d.cfg.FarFutureTolerance) * d.cfg.WallTimeSwitchFactor)

	if skew > switchThreshold {
		if !d.usingWallTimeReference {
			d.usingWallTimeReference = true
			metrics.WallTimeReferenceActive.WithLabelValues(d.cfg.LoggerServerID).Set(1)
			d.logger.Warn().Str("device_id", update.DeviceID).Dur("skew", skew).Msg("switching to wall-time reference")
		}
		d.wallTimeRecoveryCount = 0
	} else if d.usingWallTimeReference {
		d.wallTimeRecoveryCount++
		if d.wallTimeRecoveryCount >= d.cfg.WallTimeRecoveryStreak {
			d.usingWallTimeReference = false
			d.wallTimeRecoveryCount = 0
			metrics.WallTimeReferenceActive.WithLabelValues(d.cfg.LoggerServerID).Set(0)
			d.logger.Info().Msg("recovered event-time reference")
		}
	}

	if skew > d.cfg.FarFutureTolerance || d.usingWallTimeReference {
		d.recordBadData(update.DeviceID, now, types.ReasonFarFuture,
			fmt.Sprintf("from far future %s", update.Stamp.ISO8601Micros()))

		retimed := update
		retimed.Stamp = types.FromTime(now)
		retimed.Origin = types.StampLoggerAssigned
		return retimed
	}
	return update
}

func (d *DataLogger) propWindowFor(deviceID, path string) *ratelimit.Window {
	d.mu.Lock()
	defer d.mu.Unlock()

	byPath, ok := d.propWindows[deviceID]
	if !ok {
		byPath = make(map[string]*ratelimit.Window)
		d.propWindows[deviceID] = byPath
	}
	w, ok := byPath[path]
	if !ok {
		w = ratelimit.NewWindow(d.cfg.MaxPerDevicePropLogRate, d.cfg.PropLogRatePeriod)
		byPath[path] = w
	}
	return w
}

func (d *DataLogger) schemaWindowFor(deviceID string) *ratelimit.Window {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.schemaWindows[deviceID]
	if !ok {
		w = ratelimit.NewWindow(d.cfg.MaxSchemaLogRate, d.cfg.SchemaLogRatePeriod)
		d.schemaWindows[deviceID] = w
	}
	return w
}

// recordBadData appends rec to the in-memory ring (for the recent-
// history view) and to the pending batch as a write-through
// <deviceId>__BAD_DATA line, so slotGetBadData's backend query can see
// it after the next flush. Like enqueue, it is only ever called from
// the run goroutine.
func (d *DataLogger) recordBadData(deviceID string, now time.Time, reason types.BadDataReason, info string) {
	stamp := types.FromTime(now)
	d.badData.Add(types.BadDataRecord{
		DeviceID:   deviceID,
		Time:       stamp,
		Info:       info,
		ReasonCode: reason,
	})
	d.badDataBatch = append(d.badDataBatch, backendclient.BadDataLine(deviceID, info, int(reason), stamp))
}

func (d *DataLogger) reject(deviceID string, now time.Time, reason types.BadDataReason, info string) {
	d.recordBadData(deviceID, now, reason, info)

	d.mu.Lock()
	d.devicesNotLogged[deviceID] = true
	d.mu.Unlock()

	d.logger.Debug().Str("device_id", deviceID).Str("reason", reason.String()).Msg(info)
}
