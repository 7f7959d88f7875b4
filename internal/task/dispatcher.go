package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/leadwire-api/internal/metrics"
)

// DefaultMaxConcurrent is the concurrency ceiling used when none is configured.
const DefaultMaxConcurrent = 3

// DispatcherConfig holds configuration for a Dispatcher
type DispatcherConfig struct {
	// Name labels the dispatcher in logs and metrics
	Name string

	// MaxConcurrent is the ceiling on simultaneously running tasks.
	// Zero means DefaultMaxConcurrent; negative values are rejected.
	MaxConcurrent int

	// TaskTimeout bounds each task through its context. Zero disables it.
	// The timeout is cooperative: a task that ignores its context keeps its
	// slot until it returns.
	TaskTimeout time.Duration
}

// DefaultDispatcherConfig returns a DispatcherConfig with reasonable defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Name:          "default",
		MaxConcurrent: DefaultMaxConcurrent,
	}
}

// DispatcherStats is a point-in-time snapshot of dispatcher counters.
type DispatcherStats struct {
	Pending       int
	InFlight      int
	Completed     uint64
	Failed        uint64
	MaxConcurrent int
}

// job is a type-erased submitted task.
type job struct {
	ctx context.Context
	// execute runs the task and settles its future.
	execute func(ctx context.Context) error
	// abort settles the future with err without running the task.
	abort func(err error)
}

// Dispatcher runs submitted tasks with at most MaxConcurrent executing at
// once. Tasks start in submission order. Submission never blocks and never
// fails; each task's outcome is delivered only through its Future.
type Dispatcher struct {
	name          string
	maxConcurrent int
	taskTimeout   time.Duration
	logger        *slog.Logger

	mu        sync.Mutex
	pending   []*job
	inFlight  int
	completed uint64
	failed    uint64
	// idle is closed whenever the dispatcher has nothing pending or running.
	// A fresh channel is made when work arrives on an idle dispatcher.
	idle chan struct{}
	busy bool
}

// NewDispatcher creates a Dispatcher. A nil logger falls back to slog.Default.
func NewDispatcher(config DispatcherConfig, logger *slog.Logger) (*Dispatcher, error) {
	if config.MaxConcurrent < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidConcurrency, config.MaxConcurrent)
	}
	if config.MaxConcurrent == 0 {
		config.MaxConcurrent = DefaultMaxConcurrent
	}
	if config.TaskTimeout < 0 {
		config.TaskTimeout = 0
	}
	if config.Name == "" {
		config.Name = "default"
	}
	if logger == nil {
		logger = slog.Default()
	}

	idle := make(chan struct{})
	close(idle)

	return &Dispatcher{
		name:          config.Name,
		maxConcurrent: config.MaxConcurrent,
		taskTimeout:   config.TaskTimeout,
		logger:        logger.With("component", "dispatcher", "dispatcher", config.Name),
		idle:          idle,
	}, nil
}

// Submit enqueues fn and returns a Future for its result. It never blocks.
//
// ctx is passed to fn when it runs. If ctx is already done when the task
// reaches the front of the queue, the future settles with ctx.Err() and fn
// is never called. Submit panics if fn is nil.
func Submit[T any](d *Dispatcher, ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	if fn == nil {
		panic("task: Submit called with nil function")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	future := newFuture[T]()
	d.enqueue(&job{
		ctx: ctx,
		execute: func(ctx context.Context) error {
			value, err := fn(ctx)
			future.settle(value, err)
			return err
		},
		abort: func(err error) {
			var zero T
			future.settle(zero, err)
		},
	})
	return future
}

func (d *Dispatcher) enqueue(j *job) {
	d.mu.Lock()
	if !d.busy {
		d.busy = true
		d.idle = make(chan struct{})
	}
	d.pending = append(d.pending, j)
	ready := d.fillLocked()
	pending, inFlight := len(d.pending), d.inFlight
	d.mu.Unlock()

	metrics.UpdateDispatcherGauges(d.name, pending, inFlight)
	d.start(ready)
}

// fillLocked moves jobs from the front of the queue into free slots and
// returns the ones to start. Jobs whose context has ended are settled here
// without taking a slot. Callers must hold d.mu.
func (d *Dispatcher) fillLocked() []*job {
	var ready []*job
	for d.inFlight < d.maxConcurrent && len(d.pending) > 0 {
		j := d.pending[0]
		d.pending[0] = nil
		d.pending = d.pending[1:]

		if err := j.ctx.Err(); err != nil {
			j.abort(err)
			d.failed++
			metrics.RecordTaskFinished(d.name, metrics.OutcomeCancelled, 0)
			continue
		}

		d.inFlight++
		ready = append(ready, j)
	}

	if len(d.pending) == 0 {
		d.pending = nil
		if d.inFlight == 0 && d.busy {
			d.busy = false
			close(d.idle)
		}
	}
	return ready
}

func (d *Dispatcher) start(jobs []*job) {
	for _, j := range jobs {
		go d.run(j)
	}
}

func (d *Dispatcher) run(j *job) {
	started := time.Now()
	err := d.execute(j)
	d.finish(err, time.Since(started))
}

// execute runs a job, converting a panic into that job's error.
func (d *Dispatcher) execute(j *job) (err error) {
	ctx := j.ctx
	if d.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			d.logger.Error("task panicked", "panic", r)
			j.abort(err)
		}
	}()

	return j.execute(ctx)
}

func (d *Dispatcher) finish(err error, duration time.Duration) {
	d.mu.Lock()
	d.inFlight--
	if err != nil {
		d.failed++
	} else {
		d.completed++
	}
	ready := d.fillLocked()
	pending, inFlight := len(d.pending), d.inFlight
	d.mu.Unlock()

	outcome := classifyOutcome(err)
	if outcome != metrics.OutcomeSucceeded {
		d.logger.Debug("task finished with error", "outcome", outcome, "error", err)
	}
	metrics.RecordTaskFinished(d.name, outcome, duration)
	metrics.UpdateDispatcherGauges(d.name, pending, inFlight)
	d.start(ready)
}

func classifyOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSucceeded
	case errors.Is(err, ErrTaskPanicked):
		return metrics.OutcomePanicked
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCancelled
	default:
		return metrics.OutcomeFailed
	}
}

// Drain waits until nothing is pending or running, then returns nil. It
// returns ctx.Err() only if ctx ends first. Task failures are never
// reported here; they live on each task's Future.
//
// Quiescence is observed, not reserved: a task submitted by another
// goroutine right after Drain returns starts a new busy period that this
// call does not wait for.
func (d *Dispatcher) Drain(ctx context.Context) error {
	d.mu.Lock()
	idle := d.idle
	d.mu.Unlock()

	select {
	case <-idle:
		return nil
	default:
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the dispatcher's counters.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DispatcherStats{
		Pending:       len(d.pending),
		InFlight:      d.inFlight,
		Completed:     d.completed,
		Failed:        d.failed,
		MaxConcurrent: d.maxConcurrent,
	}
}

// Name returns the dispatcher's label.
func (d *Dispatcher) Name() string {
	return d.name
}
