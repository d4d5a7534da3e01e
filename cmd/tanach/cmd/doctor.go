package cmd

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/output"
	"github.com/noamulm-dev/Tanach100/internal/preflight"
)

// errDoctorFailed is returned when a required check fails.
var errDoctorFailed = stderrors.New("health check failed")

// doctorReport is the JSON output of the doctor command.
type doctorReport struct {
	Status   string                  `json:"status"`
	Checks   []preflight.CheckResult `json:"checks"`
	Warnings []string                `json:"warnings,omitempty"`
	Errors   []string                `json:"errors,omitempty"`
}

func newDoctorCmd() *cobra.Command {
	var (
		verbose    bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the corpus and environment",
		Long: `Run diagnostics to ensure tanach can operate correctly.

Checks:
  - Corpus file exists and passes an integrity check
  - Corpus holds all 929 chapters
  - No import is holding the corpus lock
  - Disk space near the corpus (50MB minimum)
  - Log directory is writable

An incomplete corpus is a warning: searches run over what is present.`,
		Example: `  # Run diagnostics
  tanach doctor

  # JSON output for scripting
  tanach doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, verbose, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed diagnostic info")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runDoctor(cmd *cobra.Command, verbose, jsonOutput bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	checker := preflight.New(
		preflight.WithCorpusPath(cfg.Corpus.Path),
		preflight.WithVerbose(verbose),
		preflight.WithOutput(cmd.OutOrStdout()),
	)
	results := checker.RunAll(ctx)

	if jsonOutput {
		report := doctorReport{Status: checker.SummaryStatus(results), Checks: results}
		report.Errors, report.Warnings = preflight.Partition(results)
		if err := output.New(cmd.OutOrStdout()).JSON(report); err != nil {
			return err
		}
	} else {
		checker.PrintResults(results)
	}

	if checker.HasCriticalFailures(results) {
		return errDoctorFailed
	}
	return nil
}
