package task

import "errors"

var (
	// ErrInvalidConcurrency is returned when a dispatcher is configured with
	// a negative concurrency ceiling.
	ErrInvalidConcurrency = errors.New("invalid max concurrency")

	// ErrTaskPanicked is the error a future settles with when its task panics.
	ErrTaskPanicked = errors.New("task panicked")

	// ErrNotSettled is returned by Future.Result before the task has finished.
	ErrNotSettled = errors.New("task not settled")
)
