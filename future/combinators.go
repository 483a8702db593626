package future

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Result pairs a settled value with its error for AllSettled.
type Result[T any] struct {
	Value T
	Err   error
}

// All awaits every future and returns their values in input order.
// It fails fast: the first rejection cancels the remaining waits and is
// returned as the error.
func All[T any](ctx context.Context, futures ...*Future[T]) ([]T, error) {
	results := make([]T, len(futures))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range futures {
		g.Go(func() error {
			v, err := f.Await(gctx)
			if err != nil {
				return err
			}
			results[i] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// AllSettled awaits every future and returns each outcome, success or
// failure, in input order. It only returns an error if ctx is cancelled
// before all futures settle.
func AllSettled[T any](ctx context.Context, futures ...*Future[T]) ([]Result[T], error) {
	results := make([]Result[T], len(futures))

	for i, f := range futures {
		v, err := f.Await(ctx)
		if err != nil && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results[i] = Result[T]{Value: v, Err: err}
	}

	return results, nil
}

// Any returns the value of the first future to resolve successfully.
// If every future rejects, the joined errors are returned in input order.
func Any[T any](ctx context.Context, futures ...*Future[T]) (T, error) {
	var zero T
	if len(futures) == 0 {
		return zero, errors.New("future: Any of no futures")
	}

	type settled struct {
		idx int
		val T
		err error
	}

	// Buffer so late settlements never block a goroutine.
	ch := make(chan settled, len(futures))
	for i, f := range futures {
		go func() {
			v, err := f.Await(ctx)
			ch <- settled{idx: i, val: v, err: err}
		}()
	}

	errs := make([]error, len(futures))
	for range futures {
		select {
		case s := <-ch:
			if s.err == nil {
				return s.val, nil
			}
			errs[s.idx] = s.err
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, errors.Join(errs...)
}

// Race returns the outcome of the first future to settle, success or
// failure.
func Race[T any](ctx context.Context, futures ...*Future[T]) (T, error) {
	var zero T
	if len(futures) == 0 {
		return zero, errors.New("future: Race of no futures")
	}

	type settled struct {
		val T
		err error
	}

	ch := make(chan settled, len(futures))
	for _, f := range futures {
		go func() {
			v, err := f.Await(ctx)
			ch <- settled{val: v, err: err}
		}()
	}

	select {
	case s := <-ch:
		return s.val, s.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
