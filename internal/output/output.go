// Package output formats CLI text: status lines, search results, letter
// windows and JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
	"github.com/noamulm-dev/Tanach100/internal/letters"
	"github.com/noamulm-dev/Tanach100/internal/search"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Code prints an indented block.
func (w *Writer) Code(content string) {
	_, _ = fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		_, _ = fmt.Fprintf(w.out, "  %s\n", line)
	}
	_, _ = fmt.Fprintln(w.out)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Ref formats a verse reference with the Hebrew book name.
func Ref(bookID string, chapter, verse int) string {
	name := bookID
	if b, err := corpus.LookupBook(bookID); err == nil {
		name = b.HebrewName
	}
	return fmt.Sprintf("%s %s:%s", name, hebrew.NumberToHebrew(chapter), hebrew.NumberToHebrew(verse))
}

// Results prints one block per result: reference, kind, and the verse with
// matched letters bracketed when they fall in the printed verse.
func (w *Writer) Results(resp *search.Response) {
	if len(resp.Results) == 0 {
		w.Status("", "No results.")
		return
	}

	for _, r := range resp.Results {
		kind := "literal"
		if r.IsELS() {
			kind = fmt.Sprintf("ELS %+d", r.ELSSkip)
		}
		head := fmt.Sprintf("%s  (%s %d:%d)  [%s]", Ref(r.BookID, r.Chapter, r.Verse), r.BookID, r.Chapter, r.Verse, kind)
		if r.Term != "" {
			head += "  " + r.Term
		}
		_, _ = fmt.Fprintln(w.out, head)
		_, _ = fmt.Fprintf(w.out, "    %s\n", Highlight(r))
	}

	_, _ = fmt.Fprintln(w.out)
	summary := fmt.Sprintf("%d results over %d letters", len(resp.Results), resp.Letters)
	if resp.Truncated {
		summary += " (truncated)"
	}
	w.Status("", summary)
}

// Highlight returns r.Text with each matched letter of r's own verse
// wrapped in brackets. Marks after a matched letter stay inside its bracket.
func Highlight(r search.Result) string {
	marked := make(map[int]bool, len(r.ELSComponents))
	for _, c := range r.ELSComponents {
		if c.BookID == r.BookID && c.Chapter == r.Chapter && c.Verse == r.Verse {
			marked[c.LetterIdx] = true
		}
	}
	if len(marked) == 0 {
		return r.Text
	}

	var sb strings.Builder
	idx := -1
	open := false
	for _, ch := range r.Text {
		if hebrew.IsLetter(ch) {
			idx++
			if open {
				sb.WriteRune(']')
				open = false
			}
			if marked[idx] {
				sb.WriteRune('[')
				open = true
			}
		} else if open && !hebrew.IsMark(ch) {
			sb.WriteRune(']')
			open = false
		}
		sb.WriteRune(ch)
	}
	if open {
		sb.WriteRune(']')
	}
	return sb.String()
}

// Letters prints a letter window grouped by verse.
func (w *Writer) Letters(records []letters.Record) {
	if len(records) == 0 {
		w.Status("", "No letters.")
		return
	}

	var sb strings.Builder
	flush := func(r letters.Record) {
		_, _ = fmt.Fprintf(w.out, "%-16s %s\n", Ref(r.BookID, r.Chapter, r.Verse), sb.String())
		sb.Reset()
	}
	prev := records[0]
	for _, r := range records {
		if r.BookID != prev.BookID || r.Chapter != prev.Chapter || r.Verse != prev.Verse {
			flush(prev)
		}
		sb.WriteRune(r.Letter)
		prev = r
	}
	flush(prev)

	first, last := records[0], records[len(records)-1]
	w.Status("", fmt.Sprintf("%d letters, %s %d:%d #%d to %s %d:%d #%d", len(records),
		first.BookID, first.Chapter, first.Verse, first.LetterIdx,
		last.BookID, last.Chapter, last.Verse, last.LetterIdx))
}

// Gematria prints the value of text under each method.
func (w *Writer) Gematria(text string, methods []hebrew.Method) {
	_, _ = fmt.Fprintln(w.out, text)
	for _, m := range methods {
		v := hebrew.Gematria(text, m)
		_, _ = fmt.Fprintf(w.out, "  %-9s %6d  %s\n", m, v, hebrew.NumberToHebrew(v))
	}
}
