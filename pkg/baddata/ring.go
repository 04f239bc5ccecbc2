// Package baddata implements the bad-data subcomponent: an in-memory
// ring per logger instance, write-through to the backend's
// <deviceId>__BAD_DATA measurement. Entries are immutable once
// created and are grouped by deviceId at read time.
package baddata

import (
	"sync"

	"github.com/karabo-go/karabologd/pkg/metrics"
	"github.com/karabo-go/karabologd/pkg/types"
)

// Ring holds a bounded, per-logger in-memory history of bad-data
// records, independent of the backend write-through (which is durable
// and unbounded).
type Ring struct {
	mu       sync.RWMutex
	capacity int
	records  []types.BadDataRecord
	next     int
	full     bool
}

// NewRing creates a Ring holding up to capacity records before it
// begins overwriting the oldest entry.
func NewRing(capacity int) *Ring {
	return &Ring{
		capacity: capacity,
		records:  make([]types.BadDataRecord, capacity),
	}
}

// Add records rec, evicting the oldest entry once the ring is full.
func (r *Ring) Add(rec types.BadDataRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[r.next] = rec
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.full = true
	}

	metrics.BadDataTotal.WithLabelValues(rec.ReasonCode.String()).Inc()
}

// ByDevice returns, for each deviceId in the current ring contents,
// the slice of records for that device in insertion order. Used by
// slotGetBadData.
func (r *Ring) ByDevice(fromTime, toTime types.Timestamp) map[string][]types.BadDataRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := r.next
	if r.full {
		n = r.capacity
	}

	out := make(map[string][]types.BadDataRecord)
	start := 0
	if r.full {
		start = r.next
	}
	for i := 0; i < n; i++ {
		rec := r.records[(start+i)%r.capacity]
		if rec.Time.Before(fromTime) || rec.Time.After(toTime) {
			continue
		}
		out[rec.DeviceID] = append(out[rec.DeviceID], rec)
	}
	return out
}
