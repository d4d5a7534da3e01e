package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/logging"
)

// CheckStatus is the outcome of one diagnostic.
type CheckStatus int

const (
	StatusPass CheckStatus = iota
	StatusWarn
	StatusFail
)

func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the status name in JSON output.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// CheckResult is one line of the doctor report.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Details  string      `json:"details,omitempty"`
	Required bool        `json:"required"`
}

// IsCritical reports a failed required check.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker runs the corpus and environment diagnostics.
type Checker struct {
	corpusPath string
	logDir     string
	verbose    bool
	output     io.Writer
}

// Option configures a Checker.
type Option func(*Checker)

// WithCorpusPath sets the corpus database to check.
func WithCorpusPath(path string) Option {
	return func(c *Checker) {
		c.corpusPath = path
	}
}

// WithLogDir overrides the log directory checked for write access.
func WithLogDir(dir string) Option {
	return func(c *Checker) {
		c.logDir = dir
	}
}

// WithVerbose prints check details under each line.
func WithVerbose(verbose bool) Option {
	return func(c *Checker) {
		c.verbose = verbose
	}
}

// WithOutput redirects PrintResults.
func WithOutput(w io.Writer) Option {
	return func(c *Checker) {
		c.output = w
	}
}

// New returns a Checker writing to stdout unless WithOutput says otherwise.
func New(opts ...Option) *Checker {
	c := &Checker{
		logDir: logging.DefaultLogDir(),
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunAll runs every check in report order.
// Checks that need an open corpus are skipped when the file is missing.
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	var results []CheckResult

	file := c.CheckCorpusFile()
	results = append(results, file)
	if file.Status == StatusPass {
		results = append(results, c.CheckCorpus(ctx)...)
	}
	results = append(results, c.CheckImportLock())
	results = append(results, c.CheckDiskSpace(filepath.Dir(c.corpusPath)))
	results = append(results, c.CheckWritePermissions(c.logDir))

	return results
}

// HasCriticalFailures reports whether any required check failed.
func (c *Checker) HasCriticalFailures(results []CheckResult) bool {
	errs, _ := Partition(results)
	return len(errs) > 0
}

// SummaryStatus condenses results to failed, ready_with_warnings or ready.
func (c *Checker) SummaryStatus(results []CheckResult) string {
	errs, warns := Partition(results)
	switch {
	case len(errs) > 0:
		return "failed"
	case len(warns) > 0:
		return "ready_with_warnings"
	}
	return "ready"
}

// PrintResults prints check results to the configured output.
func (c *Checker) PrintResults(results []CheckResult) {
	_, _ = fmt.Fprintln(c.output, "Tanach Health Check")
	_, _ = fmt.Fprintln(c.output, "===================")
	_, _ = fmt.Fprintln(c.output)

	for _, r := range results {
		_, _ = fmt.Fprintf(c.output, "[%s] %s: %s\n", r.Status, r.Name, r.Message)
		if c.verbose && r.Details != "" {
			_, _ = fmt.Fprintf(c.output, "      %s\n", r.Details)
		}
	}

	_, _ = fmt.Fprintln(c.output)
	_, _ = fmt.Fprintf(c.output, "Status: %s\n", strings.ToUpper(c.SummaryStatus(results)))

	errs, warns := Partition(results)
	printList(c.output, "error(s)", errs)
	printList(c.output, "warning(s)", warns)
}

// Partition splits non-passing results into critical errors and warnings,
// each rendered as "name: message".
func Partition(results []CheckResult) (errs, warns []string) {
	for _, r := range results {
		switch {
		case r.IsCritical():
			errs = append(errs, r.Name+": "+r.Message)
		case r.Status != StatusPass:
			warns = append(warns, r.Name+": "+r.Message)
		}
	}
	return errs, warns
}

func printList(w io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "%d %s:\n", len(items), label)
	for _, it := range items {
		_, _ = fmt.Fprintf(w, "  - %s\n", it)
	}
}

// CheckWritePermissions checks that dir can be created and written to.
func (c *Checker) CheckWritePermissions(dir string) CheckResult {
	result := CheckResult{
		Name:     "log_dir",
		Required: false,
		Details:  dir,
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	f, err := os.CreateTemp(dir, ".tanach-preflight-*")
	if err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("permission denied: %v", err)
		return result
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	result.Status = StatusPass
	result.Message = "writable"
	return result
}
