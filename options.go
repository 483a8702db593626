package quiver

import (
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/quivertask/quiver/hook"
	"github.com/quivertask/quiver/middleware"
)

// Option configures a Queue.
type Option func(*Queue) error

// WithConcurrency sets the maximum number of simultaneously running
// tasks. Must be at least 1; the default is 1.
func WithConcurrency(n int) Option {
	return func(q *Queue) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		q.limit = n
		return nil
	}
}

// WithAutoStart controls whether submission immediately attempts
// scheduling. When false the queue starts paused and holds submitted
// tasks until Start is called. The default is true.
func WithAutoStart(auto bool) Option {
	return func(q *Queue) error {
		q.paused = !auto
		return nil
	}
}

// WithLogger sets the structured logger for the queue.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) error {
		q.logger = l
		return nil
	}
}

// WithHooks sets the lifecycle hook registry the queue emits events to.
func WithHooks(r *hook.Registry) Option {
	return func(q *Queue) error {
		q.hooks = r
		return nil
	}
}

// WithMiddleware replaces the queue's middleware chain. The default chain
// is Chain(Recover, Timeout); a replacement that omits Recover lets task
// panics escape into the executing goroutine.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(q *Queue) error {
		q.mw = middleware.Chain(mws...)
		return nil
	}
}

// WithRateLimit caps the sustained rate of task starts at perSecond with
// the given burst, using a token bucket. Zero burst is raised to 1.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(q *Queue) error {
		if perSecond <= 0 {
			return ErrInvalidRateLimit
		}
		if burst < 1 {
			burst = 1
		}
		q.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithRunner sets the execution primitive used to start task work.
// The default runner spawns a goroutine per running task.
func WithRunner(r Runner) Option {
	return func(q *Queue) error {
		if r == nil {
			return ErrNilRunner
		}
		q.runner = r
		return nil
	}
}
