package stream

import "errors"

// Package errors.
var (
	// ErrMissingType is returned when an event envelope has no type field.
	ErrMissingType = errors.New("stream: event has no type")
)
