package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

// Resource URIs.
const (
	BooksURI         = "tanach://books"
	ParashotURI      = "tanach://parashot"
	SearchMetricsURI = "tanach://search_metrics"
)

// SearchMetricsOutput is the JSON structure for the search_metrics resource.
type SearchMetricsOutput struct {
	Summary             SearchMetricsSummary `json:"summary"`
	ModeCounts          map[string]int64     `json:"mode_counts"`
	StatusCounts        map[string]int64     `json:"status_counts"`
	TopTerms            []SearchTermCount    `json:"top_terms"`
	ZeroResultQueries   []string             `json:"zero_result_queries"`
	LatencyDistribution map[string]int64     `json:"latency_distribution"`
}

// SearchMetricsSummary provides overview statistics.
type SearchMetricsSummary struct {
	TotalSearches int64  `json:"total_searches"`
	Since         string `json:"since"`
}

// SearchTermCount represents a term and its frequency.
type SearchTermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// registerBooksResource registers the static book table.
func (s *Server) registerBooksResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "books",
			URI:         BooksURI,
			Description: "The 39 books in canonical order with Hebrew names, sections and chapter counts",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonResource(BooksURI, corpus.Books)
		},
	)
}

// ParashaEntry is one row of the parashot resource.
type ParashaEntry struct {
	corpus.Parasha
	Scope string `json:"scope"`
}

func (s *Server) registerParashotResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "parashot",
			URI:         ParashotURI,
			Description: "The 54 weekly Torah portions with verse ranges and the search scope selecting each",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return jsonResource(ParashotURI, parashaEntries())
		},
	)
}

func parashaEntries() []ParashaEntry {
	out := make([]ParashaEntry, len(corpus.Parashot))
	for i, p := range corpus.Parashot {
		out[i] = ParashaEntry{Parasha: p, Scope: string(corpus.ParashaScope(p))}
	}
	return out
}

// registerSearchMetricsResource registers the search_metrics resource.
func (s *Server) registerSearchMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "search_metrics",
			URI:         SearchMetricsURI,
			Description: "Search telemetry: modes, outcomes, latency and frequent terms",
			MIMEType:    "application/json",
		},
		s.readSearchMetrics,
	)
}

func (s *Server) readSearchMetrics(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	out, err := s.searchMetrics()
	if err != nil {
		return nil, err
	}
	return jsonResource(SearchMetricsURI, out)
}

// searchMetrics converts the current telemetry snapshot to its resource form.
func (s *Server) searchMetrics() (*SearchMetricsOutput, error) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()

	if metrics == nil {
		return nil, NewResourceNotFoundError(SearchMetricsURI)
	}

	snapshot := metrics.Snapshot()

	out := &SearchMetricsOutput{
		Summary: SearchMetricsSummary{
			TotalSearches: snapshot.TotalSearches,
			Since:         snapshot.Since.UTC().Format(time.RFC3339),
		},
		ModeCounts:          make(map[string]int64, len(snapshot.ModeCounts)),
		StatusCounts:        make(map[string]int64, len(snapshot.StatusCounts)),
		TopTerms:            make([]SearchTermCount, 0, len(snapshot.TopTerms)),
		ZeroResultQueries:   snapshot.ZeroResultQueries,
		LatencyDistribution: make(map[string]int64, len(snapshot.LatencyDistribution)),
	}
	if out.ZeroResultQueries == nil {
		out.ZeroResultQueries = []string{}
	}

	for mode, n := range snapshot.ModeCounts {
		out.ModeCounts[string(mode)] = n
	}
	for status, n := range snapshot.StatusCounts {
		out.StatusCounts[string(status)] = n
	}
	for bucket, n := range snapshot.LatencyDistribution {
		out.LatencyDistribution[string(bucket)] = n
	}
	for _, tc := range snapshot.TopTerms {
		out.TopTerms = append(out.TopTerms, SearchTermCount{Term: tc.Term, Count: tc.Count})
	}
	return out, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(content),
			},
		},
	}, nil
}
