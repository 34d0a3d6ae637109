package pka

import "log/slog"

// readConfig holds configuration for Read and Open.
type readConfig struct {
	codec      IndexCodec
	maxEntries int
	logger     *slog.Logger
}

// ReadOption configures Read and Open.
type ReadOption func(*readConfig)

// ReadWithCodec sets the index encoding expected in the archive.
// It must match the codec the archive was created with.
func ReadWithCodec(c IndexCodec) ReadOption {
	return func(cfg *readConfig) {
		cfg.codec = c
	}
}

// ReadWithMaxEntries limits how many index entries are decoded.
// Zero uses DefaultMaxEntries. Negative means no limit.
func ReadWithMaxEntries(n int) ReadOption {
	return func(cfg *readConfig) {
		cfg.maxEntries = n
	}
}

// ReadWithLogger sets a logger for debug output. By default nothing is logged.
func ReadWithLogger(logger *slog.Logger) ReadOption {
	return func(cfg *readConfig) {
		cfg.logger = logger
	}
}
