package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromTimeRoundTripsSeconds(t *testing.T) {
	tm := time.Date(2026, 3, 5, 12, 30, 0, 500_000_000, time.UTC)
	ts := FromTime(tm)

	assert.Equal(t, tm.Unix(), ts.Seconds)
	assert.True(t, ts.Time().Equal(tm))
}

func TestMicrosSinceEpochTruncatesNotRounds(t *testing.T) {
	ts := Timestamp{Seconds: 1000, Atto: 999_999_999_999_999_999}
	assert.Equal(t, int64(1000_999_999), ts.MicrosSinceEpoch())
}

func TestBeforeAndAfterCompareSecondsThenAtto(t *testing.T) {
	a := Timestamp{Seconds: 100, Atto: 5}
	b := Timestamp{Seconds: 100, Atto: 10}
	c := Timestamp{Seconds: 101, Atto: 0}

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, b.Before(c))
	assert.False(t, a.Before(a))
}

func TestSubReturnsDuration(t *testing.T) {
	a := FromTime(time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC))
	b := FromTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 10*time.Second, a.Sub(b))
}

func TestISO8601MicrosFormatsWithMicrosecondPrecisionAndZSuffix(t *testing.T) {
	ts := Timestamp{Seconds: time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC).Unix(), Atto: 123_456_000_000_000_000}
	got := ts.ISO8601Micros()

	assert.Equal(t, "2026-03-05T12:00:00.123456Z", got)
}

func TestISO8601MicrosPadsLeadingZeros(t *testing.T) {
	ts := Timestamp{Seconds: time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC).Unix(), Atto: 7_000_000_000_000}
	got := ts.ISO8601Micros()

	assert.Equal(t, "2026-03-05T12:00:00.000007Z", got)
}
