// Package future provides a one-shot settable future and combinators for
// awaiting groups of futures.
//
// A Future settles exactly once, with either a value or an error. Settling
// is idempotent: the first Resolve or Reject wins and later calls are
// no-ops, which lets producers settle defensively without coordinating.
package future

import (
	"context"
	"errors"
	"sync"
)

// ErrUnresolved is returned by TryResult when the future has not settled.
var ErrUnresolved = errors.New("future: not yet resolved")

// Future is a write-once container for the eventual outcome of an
// asynchronous operation. The zero value is not usable; create one with
// New.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// New creates an unsettled future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved creates a future already settled with the given value.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected creates a future already settled with the given error.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Resolve settles the future with a value. No-op if already settled.
func (f *Future[T]) Resolve(v T) {
	f.once.Do(func() {
		f.val = v
		close(f.done)
	})
}

// Reject settles the future with an error. No-op if already settled.
func (f *Future[T]) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future settles or ctx is cancelled. On
// cancellation it returns the context's error; the future itself remains
// pending and may still settle later.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryResult returns the settled outcome without blocking. If the future
// has not settled it returns ErrUnresolved.
func (f *Future[T]) TryResult() (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
		var zero T
		return zero, ErrUnresolved
	}
}
