// Package ui renders search progress and corpus status in the terminal.
package ui

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

// Stage is the phase of a search, derived from its percentage.
type Stage int

const (
	// StageLoading is building the letter stream from the corpus.
	StageLoading Stage = iota
	// StageLiteral is the literal multi-term pass.
	StageLiteral
	// StageELS is the skip-sequence scan.
	StageELS
	// StageComplete indicates the search finished.
	StageComplete
)

// Percentages at which each stage ends.
const (
	loadingEnd = 20
	literalEnd = 40
)

// StageOf maps a search percentage to its stage.
func StageOf(percent int) Stage {
	switch {
	case percent >= 100:
		return StageComplete
	case percent >= literalEnd:
		return StageELS
	case percent >= loadingEnd:
		return StageLiteral
	default:
		return StageLoading
	}
}

// String returns the human-readable stage name.
func (s Stage) String() string {
	switch s {
	case StageLoading:
		return "Loading"
	case StageLiteral:
		return "Literal"
	case StageELS:
		return "ELS"
	case StageComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Icon returns the short stage tag for plain text output.
func (s Stage) Icon() string {
	switch s {
	case StageLoading:
		return "LOAD"
	case StageLiteral:
		return "TEXT"
	case StageELS:
		return "ELS"
	case StageComplete:
		return "DONE"
	default:
		return "???"
	}
}

// ProgressEvent is one progress report from a running search.
type ProgressEvent struct {
	Percent int
	Message string
}

// Summary describes a finished search.
type Summary struct {
	Query     string
	Results   int
	Letters   int
	Truncated bool
	Duration  time.Duration
}

// Renderer displays the progress of one search.
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// UpdateProgress reports a new percentage.
	UpdateProgress(event ProgressEvent)

	// Fail reports that the search ended with err.
	Fail(err error)

	// Complete reports a successful search.
	Complete(summary Summary)

	// Stop stops the renderer and restores the terminal.
	Stop() error
}

// Config configures the UI renderer.
type Config struct {
	Output     io.Writer
	ForcePlain bool
	NoColor    bool

	// OnCancel is called when the user interrupts the TUI.
	OnCancel func()
}

// ConfigOption is a function that modifies Config.
type ConfigOption func(*Config)

// WithForcePlain forces plain text output.
func WithForcePlain(force bool) ConfigOption {
	return func(c *Config) {
		c.ForcePlain = force
	}
}

// WithNoColor disables color output.
func WithNoColor(noColor bool) ConfigOption {
	return func(c *Config) {
		c.NoColor = noColor
	}
}

// WithOnCancel sets the interrupt callback.
func WithOnCancel(fn func()) ConfigOption {
	return func(c *Config) {
		c.OnCancel = fn
	}
}

// NewConfig creates a new Config with the given output and options.
func NewConfig(output io.Writer, opts ...ConfigOption) Config {
	cfg := Config{Output: output}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// NewRenderer returns a TUI renderer for interactive terminals and a plain
// text renderer for CI, pipes, or when plain output is forced.
func NewRenderer(cfg Config) Renderer {
	if cfg.ForcePlain || !IsTTY(cfg.Output) || DetectCI() {
		return NewPlainRenderer(cfg)
	}
	tui, err := NewTUIRenderer(cfg)
	if err != nil {
		return NewPlainRenderer(cfg)
	}
	return tui
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// DetectCI checks if running in a CI environment.
func DetectCI() bool {
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"} {
		if _, exists := os.LookupEnv(v); exists {
			return true
		}
	}
	return false
}
