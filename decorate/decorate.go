// Package decorate provides wrappers for work functions submitted to a
// queue: retry with backoff, per-call timeout, memoization, logging, and
// timing.
//
// The queue is agnostic to what a task does; callers opt in to these
// behaviours by wrapping the work function before submission:
//
//	work := decorate.Retry(fetchUser, 3, backoff.Default())
//	handle := quiver.Submit(q, work)
package decorate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quivertask/quiver/backoff"
)

// Func is a unit of asynchronous work: it runs under a context and
// produces a value or an error.
type Func[T any] func(ctx context.Context) (T, error)

// Retry wraps fn so that a failure is retried up to retries times, waiting
// strategy.Delay(attempt) between attempts. The last error is returned
// when retries are exhausted. A nil strategy uses backoff.Default().
// Context cancellation aborts the wait and returns the context error.
func Retry[T any](fn Func[T], retries int, strategy backoff.Strategy) Func[T] {
	if strategy == nil {
		strategy = backoff.Default()
	}

	return func(ctx context.Context) (T, error) {
		var (
			v   T
			err error
		)

		for attempt := 0; ; attempt++ {
			v, err = fn(ctx)
			if err == nil || attempt >= retries {
				return v, err
			}

			timer := time.NewTimer(strategy.Delay(attempt + 1))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				var zero T
				return zero, ctx.Err()
			}
		}
	}
}

// Timeout wraps fn with a per-call deadline.
func Timeout[T any](fn Func[T], d time.Duration) Func[T] {
	return func(ctx context.Context) (T, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return fn(ctx)
	}
}

// Memoize wraps fn so that it executes at most once; every later call
// returns the first call's outcome (including its error). Concurrent
// callers block until the first execution finishes.
func Memoize[T any](fn Func[T]) Func[T] {
	var (
		once sync.Once
		v    T
		err  error
	)

	return func(ctx context.Context) (T, error) {
		once.Do(func() {
			v, err = fn(ctx)
		})
		return v, err
	}
}

// Logged wraps fn with start/finish log lines in the queue's field style.
func Logged[T any](logger *slog.Logger, name string, fn Func[T]) Func[T] {
	return func(ctx context.Context) (T, error) {
		logger.Info("work started", slog.String("name", name))

		start := time.Now()
		v, err := fn(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("work failed",
				slog.String("name", name),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("work completed",
				slog.String("name", name),
				slog.Duration("elapsed", elapsed),
			)
		}

		return v, err
	}
}

// Timed wraps fn and reports each call's duration to sink.
func Timed[T any](fn Func[T], sink func(time.Duration)) Func[T] {
	return func(ctx context.Context) (T, error) {
		start := time.Now()
		v, err := fn(ctx)
		sink(time.Since(start))
		return v, err
	}
}
