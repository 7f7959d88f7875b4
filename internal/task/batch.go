package task

import "context"

// BatchResult pairs each input of RunAll with its outcome, by index.
// For every i exactly one of Values[i] or Errors[i] is meaningful:
// Errors[i] is nil when item i succeeded.
type BatchResult[R any] struct {
	Values []R
	Errors []error
}

// Succeeded returns the number of items that completed without error.
func (b BatchResult[R]) Succeeded() int {
	n := 0
	for _, err := range b.Errors {
		if err == nil {
			n++
		}
	}
	return n
}

// Failed returns the number of items that ended in an error.
func (b BatchResult[R]) Failed() int {
	return len(b.Errors) - b.Succeeded()
}

// RunAll submits fn once per item and waits for all of them, returning the
// results in input order. A failing item never affects the others.
//
// RunAll returns only after every future has settled, so no task is still
// touching its item when the caller reads the result. Ending ctx makes
// queued items settle with ctx.Err() without running; items already
// running see the cancellation through their own ctx.
func RunAll[T, R any](ctx context.Context, d *Dispatcher, items []T, fn func(ctx context.Context, item T) (R, error)) BatchResult[R] {
	futures := make([]*Future[R], len(items))
	for i, item := range items {
		futures[i] = Submit(d, ctx, func(ctx context.Context) (R, error) {
			return fn(ctx, item)
		})
	}

	result := BatchResult[R]{
		Values: make([]R, len(items)),
		Errors: make([]error, len(items)),
	}
	for i, f := range futures {
		<-f.Done()
		result.Values[i], result.Errors[i] = f.Result()
	}
	return result
}
