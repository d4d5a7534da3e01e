package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// plainStep is the minimum percentage change that produces a new line.
const plainStep = 10

// PlainRenderer outputs plain text progress (for CI/pipes).
type PlainRenderer struct {
	mu      sync.Mutex
	out     io.Writer
	tracker *ProgressTracker
	printed int
	stage   Stage
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		tracker: NewProgressTracker(),
		printed: -1,
		stage:   -1,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer. A line is written on each stage change
// and every plainStep percent within a stage.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(event.Percent, event.Message)
	stats := r.tracker.Stats()
	if stats.Stage == StageComplete {
		return
	}
	if stats.Stage == r.stage && stats.Percent-r.printed < plainStep {
		return
	}
	r.stage = stats.Stage
	r.printed = stats.Percent

	if stats.Message != "" {
		_, _ = fmt.Fprintf(r.out, "[%s] %3d%% - %s\n", stats.Stage.Icon(), stats.Percent, stats.Message)
	} else {
		_, _ = fmt.Fprintf(r.out, "[%s] %3d%%\n", stats.Stage.Icon(), stats.Percent)
	}
}

// Fail implements Renderer.
func (r *PlainRenderer) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Fail(err)
	if errors.IsAborted(err) {
		_, _ = fmt.Fprintln(r.out, "Search cancelled.")
		return
	}
	_, _ = fmt.Fprintf(r.out, "ERROR: %v\n", err)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d results over %d letters in %s",
		s.Results, s.Letters, s.Duration.Round(100*time.Millisecond))
	if s.Truncated {
		_, _ = fmt.Fprint(r.out, " (truncated)")
	}
	_, _ = fmt.Fprintln(r.out)
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
