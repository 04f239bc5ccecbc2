package types

import "time"

// Timestamp carries Karabo's native (seconds, attoseconds, trainId)
// time representation. Attosecond precision is kept only in memory;
// conversion to the backend's microsecond resolution always truncates.
type Timestamp struct {
	Seconds int64
	Atto    uint64
	TrainID *uint64
}

// Now returns a Timestamp for the current wall-clock time with no
// train ID, used whenever the logger must assign its own stamp (e.g.
// far-future correction).
func Now() Timestamp {
	return FromTime(time.Now())
}

// FromTime converts a time.Time into a Timestamp.
func FromTime(t time.Time) Timestamp {
	return Timestamp{
		Seconds: t.Unix(),
		Atto:    uint64(t.Nanosecond()) * 1_000_000_000,
	}
}

// Time converts a Timestamp back to a time.Time, truncated to
// nanosecond resolution (Go's native clock resolution).
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Atto/1_000_000_000))
}

// MicrosSinceEpoch truncates (never rounds) the Timestamp to the
// backend's microsecond resolution.
func (t Timestamp) MicrosSinceEpoch() int64 {
	return t.Seconds*1_000_000 + int64(t.Atto/1_000_000_000_000)
}

// Before reports whether t occurs strictly before o.
func (t Timestamp) Before(o Timestamp) bool {
	if t.Seconds != o.Seconds {
		return t.Seconds < o.Seconds
	}
	return t.Atto < o.Atto
}

// After reports whether t occurs strictly after o.
func (t Timestamp) After(o Timestamp) bool {
	return o.Before(t)
}

// Sub returns the duration t - o, with sub-nanosecond attoseconds
// discarded.
func (t Timestamp) Sub(o Timestamp) time.Duration {
	return t.Time().Sub(o.Time())
}

// ISO8601Micros formats t as extended ISO-8601 with microsecond
// precision, the format slotGetConfigurationFromPast's configTimepoint
// uses.
func (t Timestamp) ISO8601Micros() string {
	us := t.Atto / 1_000_000_000_000
	return t.Time().UTC().Format("2006-01-02T15:04:05.") + padMicros(us)
}

func padMicros(us uint64) string {
	s := [6]byte{'0', '0', '0', '0', '0', '0'}
	for i := 5; i >= 0 && us > 0; i-- {
		s[i] = byte('0' + us%10)
		us /= 10
	}
	return string(s[:]) + "Z"
}
