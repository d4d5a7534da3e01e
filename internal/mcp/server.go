package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/noamulm-dev/Tanach100/internal/config"
	"github.com/noamulm-dev/Tanach100/internal/corpus"
	tnerrors "github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
	"github.com/noamulm-dev/Tanach100/internal/letters"
	"github.com/noamulm-dev/Tanach100/internal/output"
	"github.com/noamulm-dev/Tanach100/internal/search"
	"github.com/noamulm-dev/Tanach100/internal/telemetry"
	"github.com/noamulm-dev/Tanach100/pkg/version"
)

const serverName = "Tanach"

// StatusFunc reports corpus completeness.
type StatusFunc func(ctx context.Context) (*corpus.Status, error)

// Server is the MCP server for the Tanach engine.
// Searches go through a single orchestrator, so a newer search call
// aborts one still running.
type Server struct {
	mcp    *mcp.Server
	orch   *search.Orchestrator
	nav    *letters.Navigator
	status StatusFunc
	config *config.Config
	logger *slog.Logger

	// Search telemetry (optional, set via SetMetrics)
	metrics *telemetry.SearchMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var toolInfos = []ToolInfo{
	{
		Name:        ToolSearch,
		Description: "Search the Hebrew Bible. Plain words match verse text; a term followed by a skip (\"משה, 50\" or \"אלהים, 48-51\") finds equidistant letter sequences. Scope limits the books searched.",
	},
	{
		Name:        ToolLettersWindow,
		Description: "Return consecutive letters of the text starting at a verse and letter index, crossing chapter and book boundaries.",
	},
	{
		Name:        ToolLettersNext,
		Description: "Page forward: return the letters after a given letter position.",
	},
	{
		Name:        ToolLettersPrev,
		Description: "Page backward: return the letters before a given letter position.",
	},
	{
		Name:        ToolGematria,
		Description: "Compute the gematria of Hebrew text: standard, mispar katan, mispar gadol, ordinal (siduri) and atbash.",
	},
	{
		Name:        ToolCorpusStatus,
		Description: "Report which books and chapters of the corpus are present. Use before searching to check the corpus is complete.",
	},
}

// NewServer creates a new MCP server over a search orchestrator and a letter navigator.
func NewServer(orch *search.Orchestrator, nav *letters.Navigator, status StatusFunc, cfg *config.Config) (*Server, error) {
	if orch == nil {
		return nil, errors.New("search orchestrator is required")
	}
	if nav == nil {
		return nil, errors.New("letter navigator is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		orch:   orch,
		nav:    nav,
		status: status,
		config: cfg,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerBooksResource()
	s.registerParashotResource()

	return s, nil
}

// SetMetrics sets the search metrics collector.
// When set, a search_metrics resource is registered.
func (s *Server) SetMetrics(m *telemetry.SearchMetrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = m

	if m != nil {
		s.registerSearchMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return serverName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, len(toolInfos))
	copy(out, toolInfos)
	return out
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolSearch:
		return callTyped(ctx, args, s.mcpSearchHandler)
	case ToolLettersWindow:
		return callTyped(ctx, args, s.mcpLettersWindowHandler)
	case ToolLettersNext:
		return callTyped(ctx, args, s.mcpLettersNextHandler)
	case ToolLettersPrev:
		return callTyped(ctx, args, s.mcpLettersPrevHandler)
	case ToolGematria:
		return callTyped(ctx, args, s.mcpGematriaHandler)
	case ToolCorpusStatus:
		return callTyped(ctx, args, s.mcpCorpusStatusHandler)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// callTyped decodes loosely typed arguments into In and runs a typed handler.
func callTyped[In, Out any](ctx context.Context, args map[string]any,
	h func(context.Context, *mcp.CallToolRequest, In) (*mcp.CallToolResult, Out, error)) (Out, error) {
	var (
		in   In
		zero Out
	)
	if len(args) > 0 {
		raw, err := json.Marshal(args)
		if err != nil {
			return zero, NewInvalidParamsError(err.Error())
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return zero, NewInvalidParamsError(fmt.Sprintf("invalid arguments: %v", err))
		}
	}
	_, out, err := h(ctx, nil, in)
	return out, err
}

// registerTools registers all tools with the MCP server.
func (s *Server) registerTools() {
	s.logger.Debug("Registering MCP tools")

	desc := make(map[string]string, len(toolInfos))
	for _, t := range toolInfos {
		desc[t.Name] = t.Description
	}

	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolSearch, Description: desc[ToolSearch]}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolLettersWindow, Description: desc[ToolLettersWindow]}, s.mcpLettersWindowHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolLettersNext, Description: desc[ToolLettersNext]}, s.mcpLettersNextHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolLettersPrev, Description: desc[ToolLettersPrev]}, s.mcpLettersPrevHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolGematria, Description: desc[ToolGematria]}, s.mcpGematriaHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: ToolCorpusStatus, Description: desc[ToolCorpusStatus]}, s.mcpCorpusStatusHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", len(toolInfos)))
}

// mcpSearchHandler is the MCP SDK handler for the search tool.
func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, SearchOutput{}, NewInvalidParamsError("query parameter is required and must be a non-empty string")
	}

	scope := s.config.DefaultScope()
	if input.Scope != "" {
		parsed, err := corpus.ParseScope(input.Scope)
		if err != nil {
			return nil, SearchOutput{}, MapError(err)
		}
		scope = parsed
	}
	limit := clampLimit(input.Limit, defaultLimit, 1, maxLimit)

	requestID := generateRequestID()
	start := time.Now()
	s.logger.Info("search_started",
		slog.String("request_id", requestID),
		slog.String("query", input.Query),
		slog.String("scope", string(scope)),
		slog.Int("limit", limit))

	req := search.Request{
		Query:       input.Query,
		WholeWord:   input.WholeWord,
		Scope:       scope,
		CurrentBook: input.Book,
	}
	resp, err := s.orch.Search(ctx, req, func(pct int) {
		s.logger.Debug("search_progress",
			slog.String("request_id", requestID),
			slog.Int("percent", pct))
	})
	duration := time.Since(start)
	if err != nil {
		if tnerrors.IsAborted(err) {
			s.logger.Info("search_aborted",
				slog.String("request_id", requestID),
				slog.Duration("duration", duration))
		} else {
			s.logger.Error("search_failed",
				append([]any{slog.String("request_id", requestID), slog.Duration("duration", duration)},
					tnerrors.LogAttrs(err)...)...)
		}
		return nil, SearchOutput{}, MapError(err)
	}

	out := toSearchOutput(resp, limit)
	s.logger.Info("search_complete",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("result_count", out.Total),
		slog.Bool("truncated", out.Truncated))

	return nil, out, nil
}

func toSearchOutput(resp *search.Response, limit int) SearchOutput {
	out := SearchOutput{
		Results:             make([]SearchResultOutput, 0, min(len(resp.Results), limit)),
		Total:               len(resp.Results),
		Letters:             resp.Letters,
		LiteralModeEligible: resp.LiteralModeEligible,
		Truncated:           resp.Truncated || len(resp.Results) > limit,
	}
	for _, r := range resp.Results[:min(len(resp.Results), limit)] {
		kind := "literal"
		if r.IsELS() {
			kind = "els"
		}
		comps := r.ELSComponents
		if comps == nil {
			comps = []search.MatchComponent{}
		}
		out.Results = append(out.Results, SearchResultOutput{
			Ref:        output.Ref(r.BookID, r.Chapter, r.Verse),
			BookID:     r.BookID,
			Chapter:    r.Chapter,
			Verse:      r.Verse,
			Text:       r.Text,
			Kind:       kind,
			Skip:       r.ELSSkip,
			Term:       r.Term,
			Occurrence: r.OccurrenceIndex,
			Components: comps,
		})
	}
	return out
}

// windowSize applies the configured default and rejects sizes over the maximum.
func (s *Server) windowSize(n int) (int, error) {
	if n <= 0 {
		return s.config.Navigator.DefaultWindow, nil
	}
	if n > s.config.Navigator.MaxWindow {
		return 0, tnerrors.New(tnerrors.ErrCodeWindowTooLarge,
			fmt.Sprintf("window of %d letters exceeds the maximum of %d", n, s.config.Navigator.MaxWindow), nil).
			WithSuggestion("Page with letters_next or letters_prev instead.")
	}
	return n, nil
}

// mcpLettersWindowHandler is the MCP SDK handler for the letters_window tool.
func (s *Server) mcpLettersWindowHandler(ctx context.Context, _ *mcp.CallToolRequest, input LettersWindowInput) (
	*mcp.CallToolResult,
	LettersOutput,
	error,
) {
	if input.Book == "" {
		return nil, LettersOutput{}, NewInvalidParamsError("book parameter is required")
	}
	size, err := s.windowSize(input.Size)
	if err != nil {
		return nil, LettersOutput{}, MapError(err)
	}
	verse := max(input.Verse, 1)

	records, err := s.nav.Window(ctx, input.Book, input.Chapter, verse, input.LetterIdx, size)
	if err != nil {
		return nil, LettersOutput{}, MapError(err)
	}
	s.logger.Debug("letters_window",
		slog.String("book", input.Book),
		slog.Int("chapter", input.Chapter),
		slog.Int("verse", verse),
		slog.Int("size", size),
		slog.Int("returned", len(records)))

	out := toLettersOutput(records)
	if input.Offset && len(records) > 0 {
		offset, err := s.nav.Offset(ctx, records[0])
		if err != nil {
			return nil, LettersOutput{}, MapError(err)
		}
		out.GlobalOffset = &offset
	}
	return nil, out, nil
}

// mcpLettersNextHandler is the MCP SDK handler for the letters_next tool.
func (s *Server) mcpLettersNextHandler(ctx context.Context, _ *mcp.CallToolRequest, input LettersPageInput) (
	*mcp.CallToolResult,
	LettersOutput,
	error,
) {
	return s.page(ctx, input, s.nav.Next)
}

// mcpLettersPrevHandler is the MCP SDK handler for the letters_prev tool.
func (s *Server) mcpLettersPrevHandler(ctx context.Context, _ *mcp.CallToolRequest, input LettersPageInput) (
	*mcp.CallToolResult,
	LettersOutput,
	error,
) {
	return s.page(ctx, input, s.nav.Prev)
}

func (s *Server) page(ctx context.Context, input LettersPageInput,
	fn func(context.Context, letters.Record, int) ([]letters.Record, error)) (*mcp.CallToolResult, LettersOutput, error) {
	if input.Book == "" {
		return nil, LettersOutput{}, NewInvalidParamsError("book parameter is required")
	}
	count, err := s.windowSize(input.Count)
	if err != nil {
		return nil, LettersOutput{}, MapError(err)
	}
	records, err := fn(ctx, input.record(), count)
	if err != nil {
		return nil, LettersOutput{}, MapError(err)
	}
	return nil, toLettersOutput(records), nil
}

// mcpGematriaHandler is the MCP SDK handler for the gematria tool.
func (s *Server) mcpGematriaHandler(_ context.Context, _ *mcp.CallToolRequest, input GematriaInput) (
	*mcp.CallToolResult,
	GematriaOutput,
	error,
) {
	if hebrew.CountLetters(input.Text) == 0 {
		return nil, GematriaOutput{}, NewInvalidParamsError("text must contain Hebrew letters")
	}

	methods := hebrew.Methods
	if len(input.Methods) > 0 {
		methods = make([]hebrew.Method, 0, len(input.Methods))
		for _, name := range input.Methods {
			m, err := hebrew.ParseMethod(name)
			if err != nil {
				return nil, GematriaOutput{}, NewInvalidParamsError(err.Error())
			}
			methods = append(methods, m)
		}
	}

	out := GematriaOutput{Text: input.Text, Values: make([]GematriaValue, 0, len(methods))}
	for _, m := range methods {
		v := hebrew.Gematria(input.Text, m)
		out.Values = append(out.Values, GematriaValue{
			Method:   string(m),
			Value:    v,
			Numerals: hebrew.NumberToHebrew(v),
		})
	}
	return nil, out, nil
}

// mcpCorpusStatusHandler is the MCP SDK handler for the corpus_status tool.
func (s *Server) mcpCorpusStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ CorpusStatusInput) (
	*mcp.CallToolResult,
	CorpusStatusOutput,
	error,
) {
	if s.status == nil {
		return nil, CorpusStatusOutput{}, MapError(tnerrors.CorpusError("corpus status is not available", nil))
	}
	st, err := s.status(ctx)
	if err != nil {
		return nil, CorpusStatusOutput{}, MapError(err)
	}
	out := CorpusStatusOutput{Path: s.config.Corpus.Path, Status: *st}
	if out.Status.Books == nil {
		out.Status.Books = []corpus.BookStatus{}
	}
	return nil, out, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			s.logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// Close cancels any running search.
func (s *Server) Close() error {
	s.orch.Cancel()
	return nil
}

func clampLimit(v, def, lo, hi int) int {
	if v <= 0 {
		return def
	}
	return max(lo, min(v, hi))
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	return uuid.NewString()[:8]
}
