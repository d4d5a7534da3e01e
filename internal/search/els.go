package search

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/noamulm-dev/Tanach100/internal/hebrew"
	"github.com/noamulm-dev/Tanach100/internal/letters"
)

// minELSLetters drops shorter words from skip-sequence search only.
const minELSLetters = 2

// cancelCheckInterval is how many start positions are scanned between
// context checks.
const cancelCheckInterval = 1 << 12

type elsWord struct {
	index   int
	text    string
	letters []rune
}

// elsWords splits terms on whitespace and keeps words of at least two letters,
// with final forms folded onto medial letters.
func elsWords(terms []string) []elsWord {
	var words []elsWord
	for _, t := range terms {
		for _, f := range strings.Fields(t) {
			canon := []rune(hebrew.CanonicalizeFinals(hebrew.StripNonLetters(f)))
			if len(canon) < minELSLetters {
				continue
			}
			words = append(words, elsWord{index: len(words), text: f, letters: canon})
		}
	}
	return words
}

func elsGroupID(wordIndex, skip int) int {
	return (wordIndex*10 + abs(skip)%10) % elsPalette
}

// elsMatcher scans one stream for words recurring at fixed skips.
type elsMatcher struct {
	stream  *letters.Stream
	canon   []rune
	words   []elsWord
	skips   []int
	workers int

	// onWord is called after each word finishes, possibly concurrently.
	onWord func()
}

func newELSMatcher(stream *letters.Stream, words []elsWord, skips []int, workers int) *elsMatcher {
	canon := make([]rune, len(stream.Letters))
	for i, rec := range stream.Letters {
		canon[i] = hebrew.CanonicalizeFinal(rec.Letter)
	}
	return &elsMatcher{
		stream:  stream,
		canon:   canon,
		words:   words,
		skips:   skips,
		workers: max(1, workers),
	}
}

// match runs every word in parallel and returns hits in word order, then
// skip order, then stream order.
func (m *elsMatcher) match(ctx context.Context) ([]Result, error) {
	perWord := make([][]Result, len(m.words))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i, w := range m.words {
		g.Go(func() error {
			var hits []Result
			for _, s := range m.skips {
				found, err := m.scan(gctx, w, s)
				if err != nil {
					return err
				}
				hits = append(hits, found...)
			}
			perWord[i] = hits
			if m.onWord != nil {
				m.onWord()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Result
	for _, hits := range perWord {
		out = append(out, hits...)
	}
	return out, nil
}

// scan finds every start i where word[k] == canon[i+k*skip] for all k.
func (m *elsMatcher) scan(ctx context.Context, w elsWord, skip int) ([]Result, error) {
	n := len(m.canon)
	span := (len(w.letters) - 1) * abs(skip)
	if span >= n {
		return nil, nil
	}

	// Valid starts keep i+(len-1)*skip inside [0, n).
	from, to := 0, n-span
	if skip < 0 {
		from, to = span, n
	}

	var out []Result
	first := w.letters[0]
	for i := from; i < to; i++ {
		if (i-from)%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if m.canon[i] != first {
			continue
		}
		matched := true
		for k := 1; k < len(w.letters); k++ {
			if m.canon[i+k*skip] != w.letters[k] {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, m.hit(w, skip, i))
		}
	}
	return out, nil
}

// hit builds a result anchored at the lowest stream position touched.
func (m *elsMatcher) hit(w elsWord, skip, start int) Result {
	step := abs(skip)
	lo := start
	if skip < 0 {
		lo = start + (len(w.letters)-1)*skip
	}

	group := elsGroupID(w.index, skip)
	comps := make([]MatchComponent, len(w.letters))
	for k := range comps {
		pos := lo + k*step
		rec := m.stream.Letters[pos]
		comps[k] = MatchComponent{
			BookID:    rec.BookID,
			Chapter:   rec.Chapter,
			Verse:     rec.Verse,
			LetterIdx: rec.LetterIdx,
			GroupID:   group,
			StreamPos: pos,
		}
	}

	anchor := m.stream.Letters[lo]
	return Result{
		BookID:        anchor.BookID,
		Chapter:       anchor.Chapter,
		Verse:         anchor.Verse,
		Text:          m.verseText(lo),
		ELSSkip:       skip,
		ELSComponents: comps,
		Term:          w.text,
	}
}

func (m *elsMatcher) verseText(pos int) string {
	spans := m.stream.Verses
	j := sort.Search(len(spans), func(j int) bool {
		return spans[j].Start+spans[j].Len > pos
	})
	if j == len(spans) {
		return ""
	}
	return spans[j].Verse.Text
}
