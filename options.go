package uderia

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
)

// Option is a functional option for configuring a Client
type Option func(*internalConfig) error

// WithLogger sets the structured logger used by the client and every
// component it owns
func WithLogger(log Logger) Option {
	return func(c *internalConfig) error {
		if log == nil {
			return NewSessionError("WithLogger", ErrInvalidConfig).
				WithContext("reason", "logger must not be nil")
		}
		c.logger = log
		return nil
	}
}

// WithClock sets the clock used for snapshot timestamps and TTL checks.
// Tests pass a mock clock
func WithClock(clk clock.Clock) Option {
	return func(c *internalConfig) error {
		if clk == nil {
			return NewSessionError("WithClock", ErrInvalidConfig).
				WithContext("reason", "clock must not be nil")
		}
		c.clock = clk
		return nil
	}
}

// WithSnapshotTTL bounds how long a left-while-active view snapshot
// remains restorable (default 30 minutes)
func WithSnapshotTTL(ttl time.Duration) Option {
	return func(c *internalConfig) error {
		if ttl <= 0 {
			return NewSessionError("WithSnapshotTTL", ErrInvalidConfig).
				WithContext("ttl", ttl).
				WithContext("reason", "ttl must be positive")
		}
		c.snapshotTTL = ttl
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for the event feed connection
func WithHTTPClient(hc *http.Client) Option {
	return func(c *internalConfig) error {
		c.httpClient = hc
		return nil
	}
}

// WithReconnectDelay sets how long the event feed waits before
// reconnecting after a disconnect (default 5 seconds)
func WithReconnectDelay(d time.Duration) Option {
	return func(c *internalConfig) error {
		if d <= 0 {
			return NewSessionError("WithReconnectDelay", ErrInvalidConfig).
				WithContext("delay", d).
				WithContext("reason", "delay must be positive")
		}
		c.reconnectDelay = d
		return nil
	}
}

// WithStreamErrorHandler registers a callback invoked when the event
// feed connection fails
func WithStreamErrorHandler(fn func(err error)) Option {
	return func(c *internalConfig) error {
		c.onStreamError = fn
		return nil
	}
}

// WithStreamReconnectHandler registers a callback invoked before each
// event feed reconnection attempt
func WithStreamReconnectHandler(fn func()) Option {
	return func(c *internalConfig) error {
		c.onStreamReconnect = fn
		return nil
	}
}
