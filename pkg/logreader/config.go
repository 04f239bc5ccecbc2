package logreader

// Config configures a Reader instance.
type Config struct {
	// MaxHistorySize is the hard cap on maxNumData accepted by
	// slotGetPropertyHistory.
	MaxHistorySize int

	// DefaultNumData is the bucket count used when a caller passes
	// maxNumData == 0 ("use the reader's default cap").
	DefaultNumData int
}

// DefaultConfig returns the defaults named in spec.md §6.
func DefaultConfig() Config {
	return Config{
		MaxHistorySize: 100000,
		DefaultNumData: 1000,
	}
}
