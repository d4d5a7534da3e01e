package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/output"
)

func newImportCmd() *cobra.Command {
	var (
		format     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Import verse text into the corpus",
		Long: `Import verse text into the corpus database.

Supported formats:
  tsv      one verse per line: book<TAB>chapter<TAB>verse<TAB>text
  sefaria  a Sefaria JSON book export ({"title": ..., "he": [[...]]})

The format is detected from the extension (.tsv/.txt or .json) unless
--format is given. Importing a chapter replaces it, so files may be
imported again or in any order. Only one import may run at a time.`,
		Example: `  tanach import tanach.tsv
  tanach import Genesis.json Exodus.json --format sefaria`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), cmd, args, corpus.Format(format), jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format: tsv, sefaria (default: by extension)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}

func runImport(ctx context.Context, cmd *cobra.Command, paths []string, format corpus.Format, jsonOutput bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if format != "" && format != corpus.FormatTSV && format != corpus.FormatSefaria {
		return errors.ValidationError("unknown import format "+string(format), nil).
			WithSuggestion("Use --format tsv or --format sefaria")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := corpus.OpenStore(cfg.Corpus.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	importer := corpus.NewImporter(store)
	out := output.New(cmd.OutOrStdout())

	var total corpus.ImportStats
	start := time.Now()
	for _, path := range paths {
		stats, err := importer.ImportFile(ctx, path, format)
		if err != nil {
			slog.Error("import_failed", append([]any{slog.String("file", path)}, errors.LogAttrs(err)...)...)
			return err
		}
		slog.Info("import_complete",
			slog.String("file", path),
			slog.Int("chapters", stats.Chapters),
			slog.Int("verses", stats.Verses),
			slog.Int("skipped", stats.Skipped))

		total.Books += stats.Books
		total.Chapters += stats.Chapters
		total.Verses += stats.Verses
		total.Skipped += stats.Skipped
		if !jsonOutput {
			out.Successf("%s: %d chapters, %d verses", path, stats.Chapters, stats.Verses)
			if stats.Skipped > 0 {
				out.Warningf("%d malformed lines skipped", stats.Skipped)
			}
		}
	}
	total.Duration = time.Since(start)

	st, err := store.Status(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		return out.JSON(struct {
			Imported corpus.ImportStats `json:"imported"`
			Corpus   *corpus.Status     `json:"corpus"`
		}{total, st})
	}

	out.Newline()
	out.Statusf("📚", "Corpus: %d / %d chapters, %d verses", st.ChaptersPresent, st.ChaptersTotal, st.Verses)
	if !st.Complete {
		out.Status("💡", "Run 'tanach status' to see which books are incomplete")
	}
	return nil
}
