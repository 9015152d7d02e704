package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Map applies fn to every element in its own goroutine, at most limit at a
// time (limit <= 0 means unbounded), and returns the results in input order.
// The first error cancels ctx for the remaining calls and is returned.
func Map[T any, R any](ctx context.Context, in []T, limit int, fn func(ctx context.Context, value T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	group, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for idx, value := range in {
		group.Go(func() error {
			r, err := fn(ctx, value)
			if err != nil {
				return err
			}
			out[idx] = r
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// MapAll is Map without cancellation: every element is processed, each
// result is paired with its own error.
func MapAll[T any, R any](ctx context.Context, in []T, limit int, fn func(ctx context.Context, value T) (R, error)) []Result[R] {
	out := make([]Result[R], len(in))
	var group errgroup.Group
	if limit > 0 {
		group.SetLimit(limit)
	}

	for idx, value := range in {
		group.Go(func() error {
			r, err := fn(ctx, value)
			out[idx] = Result[R]{Value: r, Err: err}
			return nil
		})
	}

	_ = group.Wait()
	return out
}

// Result pairs a value with the error produced alongside it.
type Result[R any] struct {
	Value R
	Err   error
}

// Go runs every function concurrently and returns the first error; ctx
// passed to the functions is cancelled as soon as one fails.
func Go(ctx context.Context, fns ...func(ctx context.Context) error) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		group.Go(func() error { return fn(ctx) })
	}
	return group.Wait()
}
