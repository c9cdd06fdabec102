package xp

import "errors"

var (
	// ErrInvalidGranularity is returned when granularity is unsupported.
	ErrInvalidGranularity = errors.New("xp: invalid granularity")
	// ErrInvalidTimestamp is returned when a timestamp is zero.
	ErrInvalidTimestamp = errors.New("xp: invalid timestamp")
)
