package async

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// TaskFunc is the work run by a Slot. It must return promptly once ctx is done.
type TaskFunc[T any] func(ctx context.Context, progress *Progress) (T, error)

// SubmitOption configures one submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	onProgress func(ProgressSnapshot)
}

// OnProgress registers a listener for progress updates. It stops being
// called once the task finishes or is superseded.
func OnProgress(fn func(ProgressSnapshot)) SubmitOption {
	return func(o *submitOptions) {
		o.onProgress = fn
	}
}

// Handle is the caller's view of one submitted task.
type Handle[T any] struct {
	id       string
	progress *Progress
	cancel   context.CancelFunc
	done     chan struct{}

	// Written once under the owning slot's lock, before done is closed.
	result     T
	err        error
	superseded bool
}

// ID returns the task's unique identifier.
func (h *Handle[T]) ID() string {
	return h.id
}

// Done is closed when the task's outcome is available.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task completes and returns its outcome. A cancelled
// or superseded task returns an error matching errors.ErrAborted.
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.result, h.err
}

// Progress returns a snapshot of the task's progress.
func (h *Handle[T]) Progress() ProgressSnapshot {
	return h.progress.Snapshot()
}

// Cancel aborts the task. It is safe to call more than once.
func (h *Handle[T]) Cancel() {
	h.cancel()
}

// Slot runs at most one task at a time. Submitting while a task is in flight
// cancels that task; only the newest task can deliver a result.
type Slot[T any] struct {
	mu      sync.Mutex
	current *Handle[T]
}

// NewSlot creates an empty slot.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Submit cancels any in-flight task and starts fn in a new goroutine.
// This is non-blocking; use the returned handle to wait for the outcome.
func (s *Slot[T]) Submit(ctx context.Context, fn TaskFunc[T], opts ...SubmitOption) *Handle[T] {
	var o submitOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{
		id:       uuid.NewString(),
		progress: NewProgress(),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.progress.listener = o.onProgress

	s.mu.Lock()
	if prev := s.current; prev != nil {
		prev.superseded = true
		prev.progress.stop()
		prev.cancel()
	}
	s.current = h
	s.mu.Unlock()

	go s.run(ctx, h, fn)
	return h
}

func (s *Slot[T]) run(ctx context.Context, h *Handle[T], fn TaskFunc[T]) {
	defer h.cancel()

	result, err := fn(ctx, h.progress)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case h.superseded || ctx.Err() != nil:
		if errors.IsAborted(err) {
			h.err = err
		} else {
			h.err = errors.Aborted(context.Cause(ctx))
		}
		h.progress.finish(StatusAborted, "")
	case err != nil:
		h.err = err
		h.progress.finish(StatusError, err.Error())
	default:
		h.result = result
		h.progress.finish(StatusDone, "")
	}

	if s.current == h {
		s.current = nil
	}
	close(h.done)
}

// Current returns the in-flight task, or nil.
func (s *Slot[T]) Current() *Handle[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Cancel aborts the in-flight task, if any.
func (s *Slot[T]) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
	}
}
