// Package search implements literal and skip-sequence (ELS) search over the
// letter streams built by package letters.
//
// A search invocation parses a comma-separated query, loads the requested
// scope once, runs the literal matcher and/or the ELS matcher, then merges,
// deduplicates and sorts the results into canonical corpus order.
package search

import (
	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

// AmbiguousGroup is the literal group id used when a match cannot be
// attributed to exactly one term.
const AmbiguousGroup = 99

// LiteralSkip is the ELSSkip value carried by literal results.
const LiteralSkip = 1

// elsPalette bounds ELS group ids. Unrelated matches may share a group.
const elsPalette = 16

// MatchComponent is one matched letter.
type MatchComponent struct {
	BookID    string `json:"book_id"`
	Chapter   int    `json:"chapter"`
	Verse     int    `json:"verse"`
	LetterIdx int    `json:"letter_idx"`
	GroupID   int    `json:"group_id"`

	// StreamPos is the letter's position in the invocation's stream.
	// It is only meaningful within one search.
	StreamPos int `json:"stream_pos"`
}

// Result is one literal occurrence or one ELS hit.
type Result struct {
	BookID          string           `json:"book_id"`
	Chapter         int              `json:"chapter"`
	Verse           int              `json:"verse"`
	Text            string           `json:"text"`
	OccurrenceIndex int              `json:"occurrence_index"`
	ELSSkip         int              `json:"els_skip"`
	ELSComponents   []MatchComponent `json:"els_components"`

	// Term is the query word this result was found for.
	Term string `json:"term,omitempty"`
}

// IsELS reports whether r came from the skip-sequence matcher.
func (r Result) IsELS() bool {
	return r.ELSSkip != LiteralSkip
}

// FirstLetterIdx returns the letter index of the lowest component, or 0.
func (r Result) FirstLetterIdx() int {
	if len(r.ELSComponents) == 0 {
		return 0
	}
	return r.ELSComponents[0].LetterIdx
}

// positionKey identifies the set of stream positions a result occupies.
// Components are always contiguous (literal) or evenly spaced (ELS), so the
// lowest position, the spacing and the count determine the whole set.
type positionKey struct {
	lo, step, n int
}

func keyOf(r Result) positionKey {
	n := len(r.ELSComponents)
	if n == 0 {
		return positionKey{lo: -1}
	}
	k := positionKey{lo: r.ELSComponents[0].StreamPos, n: n}
	if n > 1 {
		k.step = r.ELSComponents[1].StreamPos - r.ELSComponents[0].StreamPos
	}
	return k
}

// less orders results by book, chapter, verse and first letter index.
func less(a, b Result) bool {
	if oa, ob := corpus.BookOrder(a.BookID), corpus.BookOrder(b.BookID); oa != ob {
		return oa < ob
	}
	if a.Chapter != b.Chapter {
		return a.Chapter < b.Chapter
	}
	if a.Verse != b.Verse {
		return a.Verse < b.Verse
	}
	return a.FirstLetterIdx() < b.FirstLetterIdx()
}

// Request is one search invocation.
type Request struct {
	Query     string       `json:"query"`
	WholeWord bool         `json:"whole_word"`
	Scope     corpus.Scope `json:"scope"`

	// CurrentBook is required when Scope is corpus.ScopeCurrent.
	CurrentBook string `json:"current_book,omitempty"`
}

// Response is the outcome of one invocation.
type Response struct {
	Results []Result `json:"results"`

	// LiteralModeEligible tells callers whether the raw query text may be
	// highlighted as a literal string.
	LiteralModeEligible bool `json:"literal_mode_eligible"`

	// Truncated is set when results were cut to the configured maximum.
	Truncated bool `json:"truncated,omitempty"`

	// Letters is the size of the scanned stream.
	Letters int `json:"letters"`
}

// ProgressFunc receives best-effort completion percentages in [0, 100].
type ProgressFunc func(percent int)
