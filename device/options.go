package device

import (
	"log/slog"
	"time"
)

// DefaultPollInterval is the delay between register polls.
const DefaultPollInterval = 50 * time.Microsecond

type config struct {
	pollInterval time.Duration
	maxPolls     uint64
	logger       *slog.Logger
}

// Option configures a Stream.
type Option func(*config)

// WithPollInterval sets the delay between polls of the status and
// completion flags. Zero polls without delay.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		if d < 0 {
			d = 0
		}
		c.pollInterval = d
	}
}

// WithMaxPolls bounds how many times a flag is polled before ErrTimeout.
// Zero (the default) polls forever.
func WithMaxPolls(n uint64) Option {
	return func(c *config) {
		c.maxPolls = n
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
