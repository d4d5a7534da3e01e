// Package telemetry records search activity in memory and, when a registry is
// supplied, as Prometheus metrics. Nothing is written to disk.
package telemetry

import (
	"slices"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Mode is which matchers an invocation ran.
type Mode string

const (
	ModeNone    Mode = "none"
	ModeLiteral Mode = "literal"
	ModeELS     Mode = "els"
	ModeMixed   Mode = "mixed"
)

// ModeOf classifies an invocation by the matchers it runs.
func ModeOf(literal, els bool) Mode {
	switch {
	case literal && els:
		return ModeMixed
	case literal:
		return ModeLiteral
	case els:
		return ModeELS
	default:
		return ModeNone
	}
}

// Status is how an invocation ended.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusAborted Status = "aborted"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP50   LatencyBucket = "p50"   // <50ms
	BucketP250  LatencyBucket = "p250"  // 50-250ms
	BucketP1000 LatencyBucket = "p1000" // 250ms-1s
	BucketP5000 LatencyBucket = "p5000" // 1-5s
	BucketSlow  LatencyBucket = "slow"  // >=5s
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 50:
		return BucketP50
	case ms < 250:
		return BucketP250
	case ms < 1000:
		return BucketP1000
	case ms < 5000:
		return BucketP5000
	default:
		return BucketSlow
	}
}

// SearchEvent is one finished invocation.
type SearchEvent struct {
	Query   string
	Mode    Mode
	Status  Status
	Results int
	Letters int
	Latency time.Duration
}

// IsZeroResult returns true for a successful search with no hits.
func (e SearchEvent) IsZeroResult() bool {
	return e.Status == StatusOK && e.Results == 0
}

// TermCount is a query term and how often it was searched.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Snapshot is an immutable copy of the collected metrics.
type Snapshot struct {
	ModeCounts          map[Mode]int64          `json:"mode_counts"`
	StatusCounts        map[Status]int64        `json:"status_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopTerms            []TermCount             `json:"top_terms"`
	ZeroResultQueries   []string                `json:"zero_result_queries"`
	TotalSearches       int64                   `json:"total_searches"`
	Since               time.Time               `json:"since"`
}

// Config configures a SearchMetrics collector.
type Config struct {
	TopTermsCapacity    int // default 100
	ZeroResultsCapacity int // default 50

	// Registerer receives the Prometheus collectors. Nil keeps metrics in memory only.
	Registerer prometheus.Registerer
}

// SearchMetrics collects search telemetry. It is safe for concurrent use,
// and a nil *SearchMetrics discards everything.
type SearchMetrics struct {
	mu sync.Mutex

	modes       map[Mode]int64
	statuses    map[Status]int64
	latencies   map[LatencyBucket]int64
	topTerms    *lru.Cache[string, int64]
	zeroResults *CircularBuffer[string]
	total       int64
	startTime   time.Time

	searchesTotal  *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	resultsTotal   *prometheus.CounterVec
	lettersScanned prometheus.Counter
}

// NewSearchMetrics creates a collector and registers its Prometheus
// collectors with cfg.Registerer, if set.
func NewSearchMetrics(cfg Config) (*SearchMetrics, error) {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = 50
	}
	topTerms, err := lru.New[string, int64](cfg.TopTermsCapacity)
	if err != nil {
		return nil, err
	}

	m := &SearchMetrics{
		modes:       make(map[Mode]int64),
		statuses:    make(map[Status]int64),
		latencies:   make(map[LatencyBucket]int64),
		topTerms:    topTerms,
		zeroResults: NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		startTime:   time.Now(),

		searchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tanach",
				Name:      "searches_total",
				Help:      "Total number of search invocations",
			},
			[]string{"mode", "status"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tanach",
				Name:      "search_duration_seconds",
				Help:      "Search invocation duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		resultsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tanach",
				Name:      "search_results_total",
				Help:      "Total results returned by successful searches",
			},
			[]string{"mode"},
		),
		lettersScanned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "tanach",
				Name:      "letters_scanned_total",
				Help:      "Letters loaded into search streams",
			},
		),
	}

	if cfg.Registerer != nil {
		for _, c := range []prometheus.Collector{m.searchesTotal, m.searchDuration, m.resultsTotal, m.lettersScanned} {
			if err := cfg.Registerer.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Record captures one finished invocation. It is a no-op on a nil receiver.
func (m *SearchMetrics) Record(event SearchEvent) {
	if m == nil {
		return
	}

	mode, status := string(event.Mode), string(event.Status)
	m.searchesTotal.WithLabelValues(mode, status).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(event.Latency.Seconds())
	if event.Status == StatusOK {
		m.resultsTotal.WithLabelValues(mode).Add(float64(event.Results))
		m.lettersScanned.Add(float64(event.Letters))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.modes[event.Mode]++
	m.statuses[event.Status]++
	m.latencies[LatencyToBucket(event.Latency)]++
	for _, term := range ExtractTerms(event.Query) {
		count, _ := m.topTerms.Get(term)
		m.topTerms.Add(term, count+1)
	}
	if event.IsZeroResult() {
		m.zeroResults.Add(event.Query)
	}
}

// ExtractTerms returns the word tokens of a query, skipping numeric tokens
// and the forward-only marker.
func ExtractTerms(query string) []string {
	query = strings.ReplaceAll(query, "+", "")
	var terms []string
	for _, tok := range strings.Split(query, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || isNumeric(tok) {
			continue
		}
		terms = append(terms, tok)
	}
	return terms
}

func isNumeric(tok string) bool {
	return strings.Trim(tok, "-0123456789") == ""
}

// Snapshot returns current metrics for reporting. A nil receiver yields an
// empty snapshot.
func (m *SearchMetrics) Snapshot() *Snapshot {
	snap := &Snapshot{
		ModeCounts:          make(map[Mode]int64),
		StatusCounts:        make(map[Status]int64),
		LatencyDistribution: make(map[LatencyBucket]int64),
	}
	if m == nil {
		return snap
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range m.modes {
		snap.ModeCounts[k] = v
	}
	for k, v := range m.statuses {
		snap.StatusCounts[k] = v
	}
	for k, v := range m.latencies {
		snap.LatencyDistribution[k] = v
	}
	for _, key := range m.topTerms.Keys() {
		if count, ok := m.topTerms.Peek(key); ok {
			snap.TopTerms = append(snap.TopTerms, TermCount{Term: key, Count: count})
		}
	}
	slices.SortStableFunc(snap.TopTerms, func(a, b TermCount) int {
		return int(b.Count - a.Count)
	})
	snap.ZeroResultQueries = m.zeroResults.Items()
	snap.TotalSearches = m.total
	snap.Since = m.startTime
	return snap
}
