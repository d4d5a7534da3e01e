package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/config"
	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/letters"
	"github.com/noamulm-dev/Tanach100/internal/output"
)

// lettersOptions holds CLI flags shared by the letters subcommands.
type lettersOptions struct {
	letterIdx int
	size      int
	format    string
}

func newLettersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "letters",
		Short: "Navigate the letter stream",
		Long: `Read the corpus as one stream of base letters, the address space
used by skip-sequence search.

A position is a book, chapter, verse and zero-based letter index within
the verse. Windows and pages cross chapter and book boundaries.`,
	}

	cmd.AddCommand(newLettersWindowCmd())
	cmd.AddCommand(newLettersPageCmd("next", "Letters after a position (exclusive)"))
	cmd.AddCommand(newLettersPageCmd("prev", "Letters before a position (exclusive)"))
	cmd.AddCommand(newLettersOffsetCmd())

	return cmd
}

func addLettersFlags(cmd *cobra.Command, opts *lettersOptions, sizeName string) {
	cmd.Flags().IntVarP(&opts.letterIdx, "index", "i", 0, "Letter index within the verse")
	cmd.Flags().IntVarP(&opts.size, sizeName, "n", 0, "Number of letters (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")
}

func newLettersWindowCmd() *cobra.Command {
	var opts lettersOptions

	cmd := &cobra.Command{
		Use:   "window <book> <chapter> [verse]",
		Short: "Letters starting at a position",
		Example: `  # 300 letters from the start of Genesis 1
  tanach letters window Genesis 1

  # 50 letters from the fourth letter of Exodus 3:14
  tanach letters window Exodus 3 14 --index 3 --size 50`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args)
			if err != nil {
				return err
			}
			return runLetters(cmd, opts, func(ctx context.Context, nav *letters.Navigator, size int) ([]letters.Record, error) {
				return nav.Window(ctx, pos.book, pos.chapter, max(pos.verse, 1), opts.letterIdx, size)
			})
		},
	}
	addLettersFlags(cmd, &opts, "size")

	return cmd
}

func newLettersPageCmd(direction, short string) *cobra.Command {
	var opts lettersOptions

	cmd := &cobra.Command{
		Use:   direction + " <book> <chapter> <verse>",
		Short: short,
		Example: fmt.Sprintf(`  # 100 letters from Genesis 1:1, letter 5
  tanach letters %s Genesis 1 1 --index 5 --count 100`, direction),
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args)
			if err != nil {
				return err
			}
			anchor := letters.Record{
				BookID:    pos.book,
				Chapter:   pos.chapter,
				Verse:     pos.verse,
				LetterIdx: opts.letterIdx,
			}
			return runLetters(cmd, opts, func(ctx context.Context, nav *letters.Navigator, count int) ([]letters.Record, error) {
				if direction == "prev" {
					return nav.Prev(ctx, anchor, count)
				}
				return nav.Next(ctx, anchor, count)
			})
		},
	}
	addLettersFlags(cmd, &opts, "count")

	return cmd
}

// offsetReport is the JSON output of letters offset.
type offsetReport struct {
	Book         string `json:"book"`
	Chapter      int    `json:"chapter"`
	Verse        int    `json:"verse"`
	LetterIdx    int    `json:"letter_idx"`
	GlobalOffset int    `json:"global_offset"`
}

func newLettersOffsetCmd() *cobra.Command {
	var opts lettersOptions

	cmd := &cobra.Command{
		Use:   "offset <book> <chapter> [verse]",
		Short: "Corpus-wide stream position of a letter",
		Long: `Print how many letters of the whole corpus precede a position, counting
every book in canonical order. The first letter of Genesis is 0.`,
		Example: `  tanach letters offset Exodus 1 1
  tanach letters offset Exodus 3 14 --index 3 --format json`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := parsePosition(args)
			if err != nil {
				return err
			}
			return runLettersOffset(cmd, pos, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.letterIdx, "index", "i", 0, "Letter index within the verse")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runLettersOffset(cmd *cobra.Command, pos position, opts lettersOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q: use text or json", opts.format)
	}
	if opts.letterIdx < 0 {
		return errors.ValidationError("letter index must not be negative", nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	report := offsetReport{
		Book:      pos.book,
		Chapter:   pos.chapter,
		Verse:     max(pos.verse, 1),
		LetterIdx: opts.letterIdx,
	}
	nav := letters.NewNavigator(withCache(cfg, store))
	report.GlobalOffset, err = nav.Offset(cmd.Context(), letters.Record{
		BookID:    report.Book,
		Chapter:   report.Chapter,
		Verse:     report.Verse,
		LetterIdx: report.LetterIdx,
	})
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.JSON(report)
	}
	out.Statusf("📍", "%s %d:%d letter %d: offset %d",
		report.Book, report.Chapter, report.Verse, report.LetterIdx, report.GlobalOffset)
	return nil
}

type position struct {
	book    string
	chapter int
	verse   int
}

// parsePosition reads <book> <chapter> [verse]. The book is an English id or
// a Hebrew name and is returned as its id.
func parsePosition(args []string) (position, error) {
	book, err := corpus.LookupBook(args[0])
	if err != nil {
		return position{}, err
	}
	pos := position{book: book.ID}

	pos.chapter, err = strconv.Atoi(args[1])
	if err != nil || pos.chapter < 1 {
		return position{}, errors.ValidationError("chapter must be a positive number, got "+args[1], err)
	}
	if len(args) > 2 {
		pos.verse, err = strconv.Atoi(args[2])
		if err != nil || pos.verse < 1 {
			return position{}, errors.ValidationError("verse must be a positive number, got "+args[2], err)
		}
	}
	return pos, nil
}

// windowSize applies the configured default and ceiling.
func windowSize(cfg *config.Config, n int) (int, error) {
	if n <= 0 {
		return cfg.Navigator.DefaultWindow, nil
	}
	if n > cfg.Navigator.MaxWindow {
		return 0, errors.New(errors.ErrCodeWindowTooLarge,
			fmt.Sprintf("%d letters requested, the maximum is %d", n, cfg.Navigator.MaxWindow), nil).
			WithSuggestion("Page through the stream with 'tanach letters next'")
	}
	return n, nil
}

type fetchLetters func(ctx context.Context, nav *letters.Navigator, size int) ([]letters.Record, error)

func runLetters(cmd *cobra.Command, opts lettersOptions, fetch fetchLetters) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q: use text or json", opts.format)
	}
	if opts.letterIdx < 0 {
		return errors.ValidationError("letter index must not be negative", nil)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	size, err := windowSize(cfg, opts.size)
	if err != nil {
		return err
	}

	store, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	records, err := fetch(cmd.Context(), letters.NewNavigator(withCache(cfg, store)), size)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		if records == nil {
			records = []letters.Record{}
		}
		return out.JSON(records)
	}
	out.Letters(records)
	return nil
}
