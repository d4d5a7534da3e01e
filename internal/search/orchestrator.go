package search

import (
	"context"
	"log/slog"

	"github.com/noamulm-dev/Tanach100/internal/async"
)

// Orchestrator owns the single in-flight search slot. A new submission
// cancels the running search, and only the newest search delivers results.
type Orchestrator struct {
	engine *Engine
	slot   *async.Slot[*Response]
}

// NewOrchestrator creates an orchestrator running searches on engine.
func NewOrchestrator(engine *Engine) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		slot:   async.NewSlot[*Response](),
	}
}

// Submit starts req in the background and returns immediately. onProgress
// may be nil; it is never called for a superseded search.
func (o *Orchestrator) Submit(ctx context.Context, req Request, onProgress ProgressFunc) *async.Handle[*Response] {
	var opts []async.SubmitOption
	if onProgress != nil {
		opts = append(opts, async.OnProgress(func(s async.ProgressSnapshot) {
			onProgress(s.Percent)
		}))
	}

	if prev := o.slot.Current(); prev != nil {
		slog.Debug("search_superseded", slog.String("id", prev.ID()))
	}
	return o.slot.Submit(ctx, func(ctx context.Context, p *async.Progress) (*Response, error) {
		return o.engine.Search(ctx, req, p.Set)
	}, opts...)
}

// Search submits req and waits for its outcome.
func (o *Orchestrator) Search(ctx context.Context, req Request, onProgress ProgressFunc) (*Response, error) {
	return o.Submit(ctx, req, onProgress).Wait()
}

// Cancel aborts the in-flight search, if any.
func (o *Orchestrator) Cancel() {
	o.slot.Cancel()
}
