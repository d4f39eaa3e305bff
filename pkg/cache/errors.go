package cache

import "errors"

// ErrUnavailable is returned when a backend cannot be reached
// (e.g. Redis connection refused). Callers treat it as a miss and
// recompute, but may want to log it.
var ErrUnavailable = errors.New("cache backend unavailable")
