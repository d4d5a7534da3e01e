// Package async runs long searches off the caller's path. A Slot holds at
// most one live task; submitting a new one cancels the previous task.
package async

import (
	"sync"
	"time"
)

// TaskStatus represents the state of a submitted task.
type TaskStatus string

const (
	// StatusRunning indicates the task is still computing.
	StatusRunning TaskStatus = "running"
	// StatusDone indicates the task delivered a result.
	StatusDone TaskStatus = "done"
	// StatusError indicates the task failed.
	StatusError TaskStatus = "error"
	// StatusAborted indicates the task was cancelled or superseded.
	StatusAborted TaskStatus = "aborted"
)

// ProgressSnapshot is an immutable copy of task progress.
type ProgressSnapshot struct {
	Status         string `json:"status"`
	Percent        int    `json:"percent"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

// Progress provides thread-safe tracking of one task's progress.
type Progress struct {
	mu sync.RWMutex

	status       TaskStatus
	percent      int
	startTime    time.Time
	errorMessage string

	// listener sees every accepted update until the task stops.
	listener func(ProgressSnapshot)
	reported bool
	stopped  bool
}

// NewProgress creates a tracker in the running state.
func NewProgress() *Progress {
	return &Progress{
		status:    StatusRunning,
		startTime: time.Now(),
	}
}

// Set records a completion percentage, clamped to [0, 100]. Values lower than
// the current one are ignored.
func (p *Progress) Set(percent int) {
	percent = max(0, min(percent, 100))

	p.mu.Lock()
	if p.stopped || (p.reported && percent <= p.percent) {
		p.mu.Unlock()
		return
	}
	p.percent = percent
	p.reported = true
	listener := p.listener
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if listener != nil {
		listener(snap)
	}
}

// finish moves the tracker to a terminal status and silences the listener.
func (p *Progress) finish(status TaskStatus, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = status
	p.errorMessage = message
	if status == StatusDone {
		p.percent = 100
	}
	p.stopped = true
}

// stop silences the listener without changing status.
func (p *Progress) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
}

// IsRunning returns true until the task reaches a terminal status.
func (p *Progress) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusRunning
}

// Snapshot returns an immutable copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.snapshotLocked()
}

func (p *Progress) snapshotLocked() ProgressSnapshot {
	return ProgressSnapshot{
		Status:         string(p.status),
		Percent:        p.percent,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errorMessage,
	}
}
