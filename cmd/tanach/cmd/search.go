package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/config"
	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/output"
	"github.com/noamulm-dev/Tanach100/internal/search"
	"github.com/noamulm-dev/Tanach100/internal/telemetry"
	"github.com/noamulm-dev/Tanach100/internal/ui"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	scope     string
	book      string
	wholeWord bool
	limit     int
	format    string // "text", "json"
	plain     bool
	noColor   bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search for words and letter sequences",
		Long: `Search the corpus with a comma-separated query.

Word tokens are matched literally. Numeric tokens are skip values: a
skip above 1 in magnitude scans the words as equidistant letter
sequences (ELS) at that skip, both directions. A range such as 2-50
expands to every skip in it. A "+" anywhere restricts ELS to forward
skips. With no skip values only the literal search runs.

Examples:
  tanach search "בראשית"
  tanach search "תורה, 50" --scope torah
  tanach search "+משה, 2-100" --book Exodus --scope current
  tanach search "אור" --whole-word --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.scope, "scope", "s", "", "Scope: current, torah, nevim, ketuvim, tanakh or parasha:<name> (default from config)")
	cmd.Flags().StringVarP(&opts.book, "book", "b", "", "Book for --scope current")
	cmd.Flags().BoolVarP(&opts.wholeWord, "whole-word", "w", false, "Match literal terms as whole words only")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results to print (0 = all)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain progress output (no TUI)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

// newEngine builds a search engine configured from cfg.
func newEngine(cfg *config.Config, src corpus.Source, metrics *telemetry.SearchMetrics) (*search.Engine, error) {
	opts := []search.EngineOption{
		search.WithWorkers(cfg.Corpus.LoadWorkers),
		search.WithMaxResults(cfg.Search.MaxResults),
		search.WithMaxSkipValues(cfg.Search.MaxSkipValues),
	}
	if metrics != nil {
		opts = append(opts, search.WithMetrics(metrics))
	}
	return search.NewEngine(src, opts...)
}

// buildRequest resolves scope and whole-word defaults from cfg.
func buildRequest(cfg *config.Config, query string, opts searchOptions) (search.Request, error) {
	scope := cfg.DefaultScope()
	if opts.scope != "" {
		s, err := corpus.ParseScope(opts.scope)
		if err != nil {
			return search.Request{}, err
		}
		scope = s
	}
	return search.Request{
		Query:       query,
		WholeWord:   opts.wholeWord || cfg.Search.WholeWord,
		Scope:       scope,
		CurrentBook: opts.book,
	}, nil
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q: use text or json", opts.format)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	req, err := buildRequest(cfg, query, opts)
	if err != nil {
		return err
	}

	store, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	engine, err := newEngine(cfg, withCache(cfg, store), nil)
	if err != nil {
		return err
	}
	orch := search.NewOrchestrator(engine)

	// Progress goes to stderr so stdout stays parseable.
	var progressOut io.Writer = cmd.ErrOrStderr()
	if opts.format == "json" {
		progressOut = io.Discard
	}
	renderer := ui.NewRenderer(ui.NewConfig(progressOut,
		ui.WithForcePlain(opts.plain),
		ui.WithNoColor(opts.noColor || ui.DetectNoColor()),
		ui.WithOnCancel(orch.Cancel),
	))
	if err := renderer.Start(ctx); err != nil {
		return err
	}

	slog.Info("search_started",
		slog.String("query", req.Query),
		slog.String("scope", string(req.Scope)))

	start := time.Now()
	handle := orch.Submit(ctx, req, func(pct int) {
		renderer.UpdateProgress(ui.ProgressEvent{Percent: pct, Message: "Scanning " + string(req.Scope)})
	})
	resp, err := handle.Wait()
	if err != nil {
		renderer.Fail(err)
		_ = renderer.Stop()
		return err
	}
	renderer.Complete(ui.Summary{
		Query:     req.Query,
		Results:   len(resp.Results),
		Letters:   resp.Letters,
		Truncated: resp.Truncated,
		Duration:  time.Since(start),
	})
	if err := renderer.Stop(); err != nil {
		return err
	}

	slog.Info("search_complete",
		slog.String("id", handle.ID()),
		slog.Int("results", len(resp.Results)),
		slog.Duration("elapsed", time.Since(start)))

	if opts.limit > 0 && len(resp.Results) > opts.limit {
		resp.Results = resp.Results[:opts.limit]
		resp.Truncated = true
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.JSON(resp)
	}
	out.Results(resp)
	return nil
}
