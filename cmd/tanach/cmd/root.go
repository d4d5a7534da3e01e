// Package cmd provides the CLI commands for tanach.
package cmd

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/noamulm-dev/Tanach100/internal/config"
	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/logging"
	"github.com/noamulm-dev/Tanach100/internal/profiling"
	"github.com/noamulm-dev/Tanach100/pkg/version"
)

// Profiling flags
var (
	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     *profiling.Session
)

// Debug logging and corpus override flags
var (
	debugMode      bool
	corpusPath     string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the tanach CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tanach",
		Short: "Hebrew Bible text and skip-sequence search",
		Long: `Tanach searches the Hebrew Bible for literal words and for
equidistant letter sequences (ELS), navigates the letter stream
around any position, and computes gematria.

Import a corpus once with 'tanach import', then search it from the
command line or serve it to AI assistants with 'tanach serve'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("tanach version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.tanach/logs/")
	cmd.PersistentFlags().StringVar(&corpusPath, "corpus", "", "Corpus database path (overrides config)")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newLettersCmd())
	cmd.AddCommand(newGematriaCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startProfilingAndLogging starts profiling and debug logging if flags are set.
func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	// serve installs its own file-only logger; stdout belongs to JSON-RPC.
	if debugMode && cmd.Name() != "serve" {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
		slog.Info("Debug logging enabled",
			slog.String("log_file", logging.DefaultLogPath()),
			slog.String("version", version.Version))
	}

	opts := profiling.Options{CPUPath: profileCPU, HeapPath: profileMem, TracePath: profileTrace}
	if opts.Enabled() {
		session, err := profiling.Start(opts)
		if err != nil {
			return err
		}
		profiler = session
	}
	return nil
}

// stopProfilingAndLogging stops profiling and logging, writing the heap profile if requested.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	var err error
	if profiler != nil {
		err = profiler.Stop()
		profiler = nil
	}

	if loggingCleanup != nil {
		slog.Info("Debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func printError(err error) {
	var te *errors.TanachError
	if stderrors.As(err, &te) {
		fmt.Fprint(os.Stderr, errors.FormatForCLI(err))
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

// loadConfig loads configuration for the current directory and applies
// the --corpus override.
func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if corpusPath != "" {
		cfg.Corpus.Path = config.ExpandHome(corpusPath)
	}
	return cfg, nil
}

// openCorpus opens an existing corpus. A missing file is an error.
func openCorpus(cfg *config.Config) (*corpus.Store, error) {
	info, err := os.Stat(cfg.Corpus.Path)
	if os.IsNotExist(err) {
		return nil, errors.CorpusError("no corpus found at "+cfg.Corpus.Path, err).
			WithSuggestion("Run 'tanach import <file>' to create one")
	}
	if err != nil {
		return nil, errors.CorpusError("stat corpus", err)
	}
	if info.IsDir() {
		return nil, errors.CorpusError(cfg.Corpus.Path+" is a directory", nil)
	}
	return corpus.OpenStore(cfg.Corpus.Path)
}

// withCache wraps the store in the configured chapter cache.
func withCache(cfg *config.Config, store *corpus.Store) corpus.Source {
	if cfg.Corpus.CacheChapters <= 0 {
		return store
	}
	return corpus.NewCachedSource(store, cfg.Corpus.CacheChapters)
}
