package agent

import (
	"time"

	"github.com/aki/tailbox/internal/core/logger"
)

type config struct {
	id           string
	pollInterval time.Duration
	lockOutbox   bool
	lockTimeout  time.Duration
	logger       logger.Logger
}

// Option configures an Agent
type Option func(*config)

// WithID overrides the generated agent identifier
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithPollInterval sets how often the inbox is polled when idle
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}

// WithLogger sets the logger used for task failures and lifecycle events
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithOutboxLock serialises outbox appends across processes with an
// advisory file lock, waiting at most timeout for it.
func WithOutboxLock(timeout time.Duration) Option {
	return func(c *config) {
		c.lockOutbox = true
		c.lockTimeout = timeout
	}
}
