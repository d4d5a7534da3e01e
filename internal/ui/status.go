package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

// StatusRenderer displays corpus completeness.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render writes a per-section summary followed by the incomplete books.
// When verbose is set every book is listed.
func (r *StatusRenderer) Render(path string, st *corpus.Status, verbose bool) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Corpus: "+path))

	_, _ = fmt.Fprintf(r.out, "  Chapters: %d / %d (%s)\n",
		st.ChaptersPresent, st.ChaptersTotal, percentOf(st.ChaptersPresent, st.ChaptersTotal))
	_, _ = fmt.Fprintf(r.out, "  Verses:   %d\n", st.Verses)
	_, _ = fmt.Fprintf(r.out, "  Status:   %s\n\n", r.renderComplete(st.Complete))

	var missing []corpus.BookStatus
	for _, b := range st.Books {
		if verbose || b.ChaptersPresent < b.ChaptersTotal {
			missing = append(missing, b)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if verbose {
		_, _ = fmt.Fprintln(r.out, "  Books:")
	} else {
		_, _ = fmt.Fprintln(r.out, "  Incomplete books:")
	}
	width := 0
	for _, b := range missing {
		width = max(width, len(b.BookID))
	}
	for _, b := range missing {
		line := fmt.Sprintf("    %-*s %3d / %3d", width, b.BookID, b.ChaptersPresent, b.ChaptersTotal)
		switch {
		case b.ChaptersPresent == 0:
			line = r.styles.Error.Render(line)
		case b.ChaptersPresent < b.ChaptersTotal:
			line = r.styles.Warning.Render(line)
		}
		_, _ = fmt.Fprintln(r.out, line)
	}
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(st *corpus.Status) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(st)
}

func (r *StatusRenderer) renderComplete(complete bool) string {
	if complete {
		return r.styles.Success.Render("complete")
	}
	return r.styles.Warning.Render("incomplete") + r.styles.Dim.Render(" (run: tanach import <file>)")
}

func percentOf(n, total int) string {
	if total <= 0 {
		return "0%"
	}
	return strings.TrimSuffix(fmt.Sprintf("%.1f", float64(n)*100/float64(total)), ".0") + "%"
}
