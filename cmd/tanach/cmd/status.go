package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var (
		jsonOutput bool
		verbose    bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show corpus completeness",
		Long: `Display information about the corpus database:
  - Chapters present out of 929
  - Verse count
  - Books that are missing chapters (all books with --verbose)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openCorpus(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			st, err := store.Status(cmd.Context())
			if err != nil {
				return err
			}

			renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), noColor || ui.DetectNoColor())
			if jsonOutput {
				return renderer.RenderJSON(st)
			}
			return renderer.Render(cfg.Corpus.Path, st, verbose)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List every book")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
