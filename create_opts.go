package pka

import "log/slog"

// DefaultMaxEntries is the entry limit used when no MaxEntries option is set.
const DefaultMaxEntries = 200_000

// LengthCheck controls whether Create verifies producer byte counts.
type LengthCheck uint8

const (
	// LengthCheckStrict measures the stream position after each item and
	// fails if it disagrees with the count the producer reported.
	LengthCheckStrict LengthCheck = iota
	// LengthCheckNone trusts the producer's count and skips the extra
	// position query per item.
	LengthCheckNone
)

// createConfig holds configuration for archive creation.
type createConfig struct {
	codec       IndexCodec
	lengthCheck LengthCheck
	maxEntries  int
	logger      *slog.Logger
	progress    ProgressFunc
}

// CreateOption configures archive creation.
type CreateOption func(*createConfig)

// CreateWithCodec sets the index encoding. The default is CodecBincode.
func CreateWithCodec(c IndexCodec) CreateOption {
	return func(cfg *createConfig) {
		cfg.codec = c
	}
}

// CreateWithLengthCheck controls whether producer byte counts are verified
// against the stream position. The zero value is LengthCheckStrict.
func CreateWithLengthCheck(lc LengthCheck) CreateOption {
	return func(cfg *createConfig) {
		cfg.lengthCheck = lc
	}
}

// CreateWithMaxEntries limits the number of items in the archive.
// Zero uses DefaultMaxEntries. Negative means no limit.
func CreateWithMaxEntries(n int) CreateOption {
	return func(cfg *createConfig) {
		cfg.maxEntries = n
	}
}

// CreateWithLogger sets a logger for debug output. By default nothing is logged.
func CreateWithLogger(logger *slog.Logger) CreateOption {
	return func(cfg *createConfig) {
		cfg.logger = logger
	}
}

// CreateWithProgress sets a callback that receives progress updates.
func CreateWithProgress(fn ProgressFunc) CreateOption {
	return func(cfg *createConfig) {
		cfg.progress = fn
	}
}

// effectiveMaxEntries maps the option value to a codec limit (<= 0 = none).
func effectiveMaxEntries(n int) int {
	switch {
	case n == 0:
		return DefaultMaxEntries
	case n < 0:
		return 0
	default:
		return n
	}
}

// logOrDiscard returns logger, falling back to a discard logger if nil.
func logOrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
