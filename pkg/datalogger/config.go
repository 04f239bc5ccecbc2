package datalogger

import "time"

// Config holds the per-logger-server configuration recognized from
// the external configuration surface.
type Config struct {
	LoggerServerID string

	FlushInterval time.Duration

	MaxVectorSize      int
	MaxValueStringSize int

	MaxPerDevicePropLogRate int // bytes
	PropLogRatePeriod       time.Duration

	MaxSchemaLogRate    int // bytes
	SchemaLogRatePeriod time.Duration

	SafeSchemaRetentionPeriod time.Duration

	// FarFutureTolerance is the threshold beyond which an event's
	// stamp is classified as far-future and retimestamped.
	FarFutureTolerance time.Duration

	// WallTimeSwitchFactor and WallTimeRecoveryStreak parameterize the
	// event-time/wall-time reference switch; see SPEC_FULL.md §9.
	WallTimeSwitchFactor  float64
	WallTimeRecoveryStreak int

	BadDataRingCapacity int
}

// DefaultConfig returns the defaults named in the external interfaces:
// 1s flush cadence, 120s far-future tolerance, a safe schema retention
// period of roughly two years.
func DefaultConfig(loggerServerID string) Config {
	return Config{
		LoggerServerID:            loggerServerID,
		FlushInterval:             1 * time.Second,
		MaxVectorSize:             1 << 20,
		MaxValueStringSize:        8192,
		MaxPerDevicePropLogRate:   1 << 20,
		PropLogRatePeriod:         10 * time.Second,
		MaxSchemaLogRate:          1 << 20,
		SchemaLogRatePeriod:       10 * time.Second,
		SafeSchemaRetentionPeriod: 2 * 365 * 24 * time.Hour,
		FarFutureTolerance:        120 * time.Second,
		WallTimeSwitchFactor:      1.0,
		WallTimeRecoveryStreak:    10,
		BadDataRingCapacity:       4096,
	}
}
