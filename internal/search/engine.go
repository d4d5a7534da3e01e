package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/letters"
	"github.com/noamulm-dev/Tanach100/internal/telemetry"
)

// Progress ranges of one invocation.
const (
	loadDonePct    = 20
	literalDonePct = 40
)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = stderrors.New("nil dependency")

// Engine runs search invocations against a corpus source. An Engine holds
// no per-search state and may serve concurrent invocations.
type Engine struct {
	src           corpus.Source
	workers       int
	maxResults    int
	maxSkipValues int
	metrics       *telemetry.SearchMetrics
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithWorkers bounds parallel book loads and parallel ELS words.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithMaxResults truncates responses to n results. Zero means unlimited.
func WithMaxResults(n int) EngineOption {
	return func(e *Engine) {
		e.maxResults = n
	}
}

// WithMaxSkipValues caps how many skip values a query may expand to.
func WithMaxSkipValues(n int) EngineOption {
	return func(e *Engine) {
		e.maxSkipValues = n
	}
}

// WithMetrics sets an optional search metrics collector.
func WithMetrics(m *telemetry.SearchMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine creates a search engine reading verses from src.
func NewEngine(src corpus.Source, opts ...EngineOption) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: corpus source is required", ErrNilDependency)
	}
	e := &Engine{
		src:           src,
		workers:       4,
		maxSkipValues: DefaultMaxSkipValues,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.workers = max(1, e.workers)
	return e, nil
}

// Search runs one invocation. progress may be nil. Cancelling ctx stops the
// scan promptly and returns an error matching errors.ErrAborted.
func (e *Engine) Search(ctx context.Context, req Request, progress ProgressFunc) (*Response, error) {
	start := time.Now()
	report := newProgressReporter(progress)

	q, err := ParseQuery(req.Query, e.maxSkipValues)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Results:             []Result{},
		LiteralModeEligible: q.LiteralEligible(),
	}
	runLiteral, runELS := q.LiteralEligible(), q.ELSEligible()
	mode := telemetry.ModeOf(runLiteral, runELS)
	if !runLiteral && !runELS {
		report.set(100)
		return resp, nil
	}

	books, err := corpus.ResolveScope(req.Scope, req.CurrentBook)
	if err != nil {
		return nil, err
	}

	slog.Debug("search_started",
		slog.String("query", q.String()),
		slog.String("scope", string(req.Scope)),
		slog.String("mode", string(mode)),
		slog.Bool("whole_word", req.WholeWord),
		slog.Int("books", len(books)))

	results, letterCount, err := e.run(ctx, q, req, books, report)
	if err != nil {
		return nil, e.fail(ctx, err, q, mode, start)
	}

	resp.Results = results
	resp.Letters = letterCount
	if e.maxResults > 0 && len(resp.Results) > e.maxResults {
		resp.Results = resp.Results[:e.maxResults]
		resp.Truncated = true
	}
	report.set(100)

	elapsed := time.Since(start)
	slog.Info("search_complete",
		slog.String("query", q.String()),
		slog.String("mode", string(mode)),
		slog.Int("results", len(resp.Results)),
		slog.Int("letters", letterCount),
		slog.Bool("truncated", resp.Truncated),
		slog.Duration("duration", elapsed))
	e.metrics.Record(telemetry.SearchEvent{
		Query:   q.String(),
		Mode:    mode,
		Status:  telemetry.StatusOK,
		Results: len(resp.Results),
		Letters: letterCount,
		Latency: elapsed,
	})
	return resp, nil
}

func (e *Engine) run(ctx context.Context, q Query, req Request, books []corpus.Book, report *progressReporter) ([]Result, int, error) {
	opts := []letters.BuildOption{
		letters.WithWorkers(e.workers),
		letters.WithProgress(func(done, total int) {
			report.set(done * loadDonePct / max(total, 1))
		}),
	}
	if p, ok := req.Scope.Parasha(); ok {
		opts = append(opts, letters.WithRange(p.Range))
	}
	stream, err := letters.Build(ctx, e.src, books, opts...)
	if err != nil {
		return nil, 0, err
	}
	report.set(loadDonePct)

	var results []Result
	if q.LiteralEligible() {
		lm, err := newLiteralMatcher(q.Terms, req.WholeWord)
		if err != nil {
			return nil, 0, err
		}
		found, err := lm.match(ctx, stream)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, found...)
	}
	report.set(literalDonePct)

	if words := elsWords(q.Terms); q.ELSEligible() && len(words) > 0 {
		em := newELSMatcher(stream, words, q.ELSSkips(), e.workers)
		var mu sync.Mutex
		finished := 0
		em.onWord = func() {
			mu.Lock()
			finished++
			pct := literalDonePct + finished*(100-literalDonePct)/len(words)
			mu.Unlock()
			report.set(pct)
		}
		found, err := em.match(ctx)
		if err != nil {
			return nil, 0, err
		}
		results = append(results, found...)
	}

	return finalize(results), stream.Len(), nil
}

// finalize drops repeated position sets, sorts into corpus order and numbers
// every hit within its verse, literal and ELS alike.
func finalize(results []Result) []Result {
	seen := make(map[positionKey]bool, len(results))
	out := results[:0]
	for _, r := range results {
		k := keyOf(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b Result) int {
		switch {
		case less(a, b):
			return -1
		case less(b, a):
			return 1
		}
		return 0
	})

	type verseKey struct {
		book           string
		chapter, verse int
	}
	ordinal := make(map[verseKey]int)
	for i := range out {
		k := verseKey{out[i].BookID, out[i].Chapter, out[i].Verse}
		out[i].OccurrenceIndex = ordinal[k]
		ordinal[k]++
	}
	if out == nil {
		out = []Result{}
	}
	return out
}

func (e *Engine) fail(ctx context.Context, err error, q Query, mode telemetry.Mode, start time.Time) error {
	status := telemetry.StatusError
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		status = telemetry.StatusAborted
		err = errors.Aborted(err)
		slog.Info("search_aborted",
			slog.String("query", q.String()),
			slog.Duration("after", time.Since(start)))
	} else {
		slog.Warn("search_failed", errors.LogAttrs(err)...)
	}
	e.metrics.Record(telemetry.SearchEvent{
		Query:   q.String(),
		Mode:    mode,
		Status:  status,
		Latency: time.Since(start),
	})
	return err
}

// progressReporter forwards only increasing percentages.
type progressReporter struct {
	mu   sync.Mutex
	fn   ProgressFunc
	last int
}

func newProgressReporter(fn ProgressFunc) *progressReporter {
	return &progressReporter{fn: fn, last: -1}
}

func (p *progressReporter) set(pct int) {
	if p.fn == nil {
		return
	}
	pct = max(0, min(pct, 100))
	p.mu.Lock()
	defer p.mu.Unlock()
	if pct <= p.last {
		return
	}
	p.last = pct
	p.fn(pct)
}
