package transport

import "errors"

// Errors returned by the transport package.
var (
	// ErrAlreadyStarted is returned when Start() is called on an already started subscriber.
	ErrAlreadyStarted = errors.New("subscriber already started")

	// ErrNotStarted is returned when Stop() is called on a subscriber that hasn't started.
	ErrNotStarted = errors.New("subscriber not started")

	// ErrInvalidURL is returned when the feed URL is missing or not absolute.
	ErrInvalidURL = errors.New("invalid feed url")

	// ErrNoHandler is returned when no event handler is provided.
	ErrNoHandler = errors.New("event handler is required")

	// ErrNoPool is returned when no connection pool is provided.
	ErrNoPool = errors.New("connection pool is required")
)
