package ui

import (
	"sync"
	"time"
)

// ProgressTracker holds the progress of one search.
// It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.RWMutex
	percent    int
	message    string
	startTime  time.Time
	stageStart time.Time
	stage      Stage
	failed     error

	// lastETA smooths the estimate between updates.
	lastETA time.Duration
}

// ProgressStats is a snapshot of the tracker.
type ProgressStats struct {
	Stage   Stage
	Percent int
	Message string
	Elapsed time.Duration
	ETA     time.Duration
	Err     error
}

// NewProgressTracker creates a tracker starting at 0%.
func NewProgressTracker() *ProgressTracker {
	now := time.Now()
	return &ProgressTracker{
		startTime:  now,
		stageStart: now,
		stage:      StageLoading,
	}
}

// Update records a new percentage. Lower percentages than already seen are
// ignored, so the display never runs backwards.
func (p *ProgressTracker) Update(percent int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	percent = max(0, min(100, percent))
	if message != "" {
		p.message = message
	}
	if percent <= p.percent && p.percent > 0 {
		return
	}
	p.percent = percent
	if s := StageOf(percent); s != p.stage {
		p.stage = s
		p.stageStart = time.Now()
	}
}

// Fail records the error that ended the search.
func (p *ProgressTracker) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = err
}

// Stage returns the current stage.
func (p *ProgressTracker) Stage() Stage {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stage
}

// Elapsed returns time since the tracker was created.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}

// Stats returns a snapshot. It takes the write lock because the ETA
// estimate is smoothed across calls.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		Stage:   p.stage,
		Percent: p.percent,
		Message: p.message,
		Elapsed: time.Since(p.startTime),
		ETA:     p.calculateETA(),
		Err:     p.failed,
	}
}

// etaSmoothingFactor is the weight of the newest estimate.
const etaSmoothingFactor = 0.3

// calculateETA must be called with the lock held.
func (p *ProgressTracker) calculateETA() time.Duration {
	if p.percent <= 0 || p.percent >= 100 {
		return 0
	}

	elapsed := time.Since(p.startTime)
	fraction := float64(p.percent) / 100
	raw := time.Duration(float64(elapsed)/fraction) - elapsed
	if raw < 0 {
		return 0
	}

	if p.lastETA == 0 {
		p.lastETA = raw
		return raw
	}
	smoothed := time.Duration(etaSmoothingFactor*float64(raw) + (1-etaSmoothingFactor)*float64(p.lastETA))
	p.lastETA = smoothed
	return smoothed
}
