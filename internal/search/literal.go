package search

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
	"github.com/noamulm-dev/Tanach100/internal/letters"
)

// literalMatcher finds every occurrence of any term in verse text,
// tolerating vowel points and cantillation between letters.
type literalMatcher struct {
	terms     []string
	stripped  []string
	re        *regexp.Regexp
	anchored  []*regexp.Regexp
	wholeWord bool
}

// termPattern matches a term containing marks exactly. A bare term lets
// every letter carry any run of marks, so it also matches vocalized text.
func termPattern(term string) string {
	if hebrew.HasMarks(term) {
		return regexp.QuoteMeta(term)
	}
	var sb strings.Builder
	for _, r := range term {
		sb.WriteString(regexp.QuoteMeta(string(r)))
		if hebrew.IsLetter(r) {
			sb.WriteString(hebrew.MarkClass + "*")
		}
	}
	return sb.String()
}

func newLiteralMatcher(terms []string, wholeWord bool) (*literalMatcher, error) {
	m := &literalMatcher{wholeWord: wholeWord}
	alts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		m.terms = append(m.terms, t)
		m.stripped = append(m.stripped, hebrew.StripNonLetters(t))
		pat := termPattern(t)
		alts = append(alts, "("+pat+")")
		at, err := regexp.Compile("^(?:" + pat + ")")
		if err != nil {
			return nil, errors.InternalError("compile literal pattern", err)
		}
		m.anchored = append(m.anchored, at)
	}
	if len(alts) == 0 {
		return nil, errors.QueryError("no literal terms")
	}

	re, err := regexp.Compile(strings.Join(alts, "|"))
	if err != nil {
		return nil, errors.InternalError("compile literal pattern", err)
	}
	m.re = re
	return m, nil
}

// attachesToWord reports whether r would extend a word.
func attachesToWord(r rune) bool {
	return hebrew.IsLetter(r) || hebrew.IsMark(r)
}

func (m *literalMatcher) atBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); attachesToWord(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); attachesToWord(r) {
			return false
		}
	}
	return true
}

// wholeWordAt returns the end of the longest term that matches at start as a
// whole word, or -1 when none does.
func (m *literalMatcher) wholeWordAt(text string, start int) int {
	best := -1
	for _, re := range m.anchored {
		loc := re.FindStringIndex(text[start:])
		if loc == nil || loc[1] == 0 {
			continue
		}
		if end := start + loc[1]; end > best && m.atBoundary(text, start, end) {
			best = end
		}
	}
	return best
}

// groupFor attributes a match to the single term whose letters it spells.
func (m *literalMatcher) groupFor(match string) (int, string) {
	spelled := hebrew.StripNonLetters(match)
	group, term := AmbiguousGroup, ""
	for i, s := range m.stripped {
		if s != spelled {
			continue
		}
		if term != "" && m.terms[i] != term {
			return AmbiguousGroup, ""
		}
		if term == "" {
			group, term = i, m.terms[i]
		}
	}
	return group, term
}

// matchVerse returns the occurrences in one verse, in text order.
func (m *literalMatcher) matchVerse(span letters.VerseSpan) []Result {
	text := span.Verse.Text
	var out []Result

	for pos := 0; pos < len(text); {
		loc := m.re.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]

		// The alternation stops at the first term that fits; another term may
		// still form a whole word from the same start.
		if m.wholeWord && !m.atBoundary(text, start, end) {
			end = m.wholeWordAt(text, start)
		}
		if end <= start {
			_, size := utf8.DecodeRuneInString(text[start:])
			pos = start + max(size, 1)
			continue
		}
		pos = end

		group, term := m.groupFor(text[start:end])
		first := letters.LetterOffset(text, start)
		n := hebrew.CountLetters(text[start:end])
		if n == 0 {
			continue
		}

		comps := make([]MatchComponent, n)
		for k := range comps {
			comps[k] = MatchComponent{
				BookID:    span.Verse.BookID,
				Chapter:   span.Verse.Chapter,
				Verse:     span.Verse.Number,
				LetterIdx: first + k,
				GroupID:   group,
				StreamPos: span.Start + first + k,
			}
		}
		out = append(out, Result{
			BookID:          span.Verse.BookID,
			Chapter:         span.Verse.Chapter,
			Verse:           span.Verse.Number,
			Text:            text,
			OccurrenceIndex: len(out),
			ELSSkip:         LiteralSkip,
			ELSComponents:   comps,
			Term:            term,
		})
	}
	return out
}

// match scans every verse of the stream.
func (m *literalMatcher) match(ctx context.Context, stream *letters.Stream) ([]Result, error) {
	var out []Result
	for i, span := range stream.Verses {
		if i%512 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		out = append(out, m.matchVerse(span)...)
	}
	return out, nil
}
