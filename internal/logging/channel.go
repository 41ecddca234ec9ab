package logging

import (
	"sync"

	"go.uber.org/zap"
)

// Channel is a named, scoped logging sink.
//
// A channel owns a named child logger and guarantees exactly one flush on
// Close, no matter how many times Close is called. Callers that receive a
// channel own its disposal.
type Channel struct {
	name   string
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewChannel creates a named channel backed by the given logger.
func NewChannel(name string, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		name:   name,
		logger: logger.Named(name),
	}
}

// Name returns the channel's label.
func (c *Channel) Name() string {
	return c.name
}

// Logger returns the channel's logger.
func (c *Channel) Logger() *zap.Logger {
	return c.logger
}

// Close flushes the channel. Safe to call more than once; only the first
// call performs the flush.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = Sync(c.logger)
	})
	return c.closeErr
}
