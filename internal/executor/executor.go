// Package executor runs re-triggerable background tasks on a fixed pool of workers. Tasks are
// keyed by an identity; submitting an identity again cancels the run in flight and starts a
// new one. The UI polls results between frames and never blocks on a task.
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"
)

// Status is the state of a keyed task.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusDone
	StatusFailed
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Func is the work of a task. It must return promptly once ctx is cancelled.
type Func func(ctx context.Context) (any, error)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("executor closed")

type task struct {
	gen       uint64
	status    Status
	data      any
	err       error
	submitted time.Time
	finished  time.Time
	cancel    context.CancelFunc
}

// Executor owns the worker pool.
type Executor struct {
	sem         *semaphore.Weighted
	minInterval time.Duration
	timeout     time.Duration
	log         logr.Logger
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	tasks  map[string]*task
	closed bool
}

// Option configures New.
type Option func(*Executor)

// WithMinInterval rejects a resubmission of an identity sooner than d after the previous one.
func WithMinInterval(d time.Duration) Option {
	return func(e *Executor) { e.minInterval = d }
}

// WithTimeout bounds every run.
func WithTimeout(d time.Duration) Option {
	return func(e *Executor) { e.timeout = d }
}

func WithLogger(log logr.Logger) Option {
	return func(e *Executor) { e.log = log }
}

func withClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New starts an executor with the given number of workers (at least one).
func New(workers int, opts ...Option) *Executor {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		sem:    semaphore.NewWeighted(int64(workers)),
		log:    logr.Discard(),
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		tasks:  make(map[string]*task),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Submit schedules fn under id. A run already in flight for id is cancelled and its result
// discarded. It reports false when the minimum interval has not elapsed since the previous
// submission of id.
func (e *Executor) Submit(id string, fn Func) (bool, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false, ErrClosed
	}
	now := e.now()
	t, ok := e.tasks[id]
	if !ok {
		t = &task{}
		e.tasks[id] = t
	} else {
		if e.minInterval > 0 && now.Sub(t.submitted) < e.minInterval {
			e.mu.Unlock()
			return false, nil
		}
		if t.cancel != nil {
			t.cancel()
			e.log.V(1).Info("cancelled task in flight", "id", id, "generation", t.gen)
		}
	}
	t.gen++
	gen := t.gen
	t.status = StatusPending
	t.submitted = now

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if e.timeout > 0 {
		ctx, cancel = context.WithTimeout(e.ctx, e.timeout)
	} else {
		ctx, cancel = context.WithCancel(e.ctx)
	}
	t.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(ctx, cancel, id, gen, fn)
	return true, nil
}

func (e *Executor) run(ctx context.Context, cancel context.CancelFunc, id string, gen uint64, fn Func) {
	defer e.wg.Done()
	defer cancel()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.finish(id, gen, nil, err)
		return
	}
	defer e.sem.Release(1)

	if !e.setStatus(id, gen, StatusRunning) {
		return
	}
	data, err := fn(ctx)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	e.finish(id, gen, data, err)
}

// setStatus updates the task when gen is still current.
func (e *Executor) setStatus(id string, gen uint64, s Status) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[id]
	if !ok || t.gen != gen {
		return false
	}
	t.status = s
	return true
}

func (e *Executor) finish(id string, gen uint64, data any, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[id]
	if !ok || t.gen != gen {
		// superseded by a newer submission
		return
	}
	t.cancel = nil
	t.finished = e.now()
	switch {
	case err == nil:
		t.status, t.data, t.err = StatusDone, data, nil
	case errors.Is(err, context.Canceled):
		t.status, t.err = StatusCancelled, err
	default:
		t.status, t.err = StatusFailed, err
		e.log.Error(err, "background task failed", "id", id)
	}
}

// Poll returns the latest successful result for id together with the task's current status.
// The data stays available while a resubmitted run is in flight. ok is false for unknown ids.
func (e *Executor) Poll(id string) (data any, status Status, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[id]
	if !ok {
		return nil, StatusPending, false
	}
	return t.data, t.status, true
}

// Err returns the error of the last finished run of id.
func (e *Executor) Err(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tasks[id]; ok {
		return t.err
	}
	return nil
}

// Finished returns when the last run of id ended, or the zero time.
func (e *Executor) Finished(id string) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tasks[id]; ok {
		return t.finished
	}
	return time.Time{}
}

// Cancel stops the run in flight for id, if any.
func (e *Executor) Cancel(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tasks[id]; ok && t.cancel != nil {
		t.cancel()
	}
}

// Forget cancels id and drops its result.
func (e *Executor) Forget(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tasks[id]; ok {
		if t.cancel != nil {
			t.cancel()
		}
		delete(e.tasks, id)
	}
}

// Close cancels every task and waits for the workers to return.
func (e *Executor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}
