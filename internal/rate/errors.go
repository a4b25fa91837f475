package rate

import "errors"

var (
	// ErrRateLimited is returned once a subject exceeds its budget for the
	// current window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps any Redis failure. Callers usually fail open.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
