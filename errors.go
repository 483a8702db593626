package quiver

import "errors"

var (
	// ErrTaskDiscarded settles the future of every pending task removed
	// by Clear before it ran. Callers distinguish it from a task's own
	// failure with errors.Is.
	ErrTaskDiscarded = errors.New("quiver: task discarded before running")

	// Configuration errors, returned from New.
	ErrInvalidConcurrency = errors.New("quiver: concurrency limit must be at least 1")
	ErrInvalidRateLimit   = errors.New("quiver: rate limit must be positive")
	ErrNilRunner          = errors.New("quiver: runner must not be nil")
)
