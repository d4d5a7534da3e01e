// Package letters flattens verse text into letter streams. A stream is the
// address space of skip-sequence search and of the letter-window navigator;
// positions in it count base letters only, using hebrew.IsLetter.
package letters

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
)

// Record is one base letter with its verse-relative position.
type Record struct {
	Letter    rune
	BookID    string
	Chapter   int
	Verse     int
	LetterIdx int
}

type recordJSON struct {
	Letter    string `json:"letter"`
	BookID    string `json:"book_id"`
	Chapter   int    `json:"chapter"`
	Verse     int    `json:"verse"`
	LetterIdx int    `json:"letter_idx"`
}

// MarshalJSON renders the letter as a one-rune string.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{
		Letter:    string(r.Letter),
		BookID:    r.BookID,
		Chapter:   r.Chapter,
		Verse:     r.Verse,
		LetterIdx: r.LetterIdx,
	})
}

// UnmarshalJSON accepts the form produced by MarshalJSON.
func (r *Record) UnmarshalJSON(data []byte) error {
	var rj recordJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return err
	}
	runes := []rune(rj.Letter)
	if len(runes) != 1 {
		return fmt.Errorf("letter must be a single rune, got %q", rj.Letter)
	}
	*r = Record{Letter: runes[0], BookID: rj.BookID, Chapter: rj.Chapter, Verse: rj.Verse, LetterIdx: rj.LetterIdx}
	return nil
}

// SamePosition reports whether two records address the same letter.
func (r Record) SamePosition(o Record) bool {
	return r.BookID == o.BookID && r.Chapter == o.Chapter && r.Verse == o.Verse && r.LetterIdx == o.LetterIdx
}

// VerseSpan places one verse in a stream: its letters occupy [Start, Start+Len).
type VerseSpan struct {
	Verse corpus.Verse
	Start int
	Len   int
}

// Stream is the flattened letter sequence of a scope plus its verse layout.
// It is built per search invocation and never shared between invocations.
type Stream struct {
	Letters []Record
	Verses  []VerseSpan
}

// Len returns the number of letters.
func (s *Stream) Len() int {
	return len(s.Letters)
}

// AppendVerse adds v's letters to the end of the stream.
func (s *Stream) AppendVerse(v corpus.Verse) {
	span := VerseSpan{Verse: v, Start: len(s.Letters)}
	idx := 0
	for _, r := range v.Text {
		if !hebrew.IsLetter(r) {
			continue
		}
		s.Letters = append(s.Letters, Record{
			Letter:    r,
			BookID:    v.BookID,
			Chapter:   v.Chapter,
			Verse:     v.Number,
			LetterIdx: idx,
		})
		idx++
	}
	span.Len = idx
	s.Verses = append(s.Verses, span)
}

// LetterOffset converts a byte offset inside text into a letter offset:
// the number of base letters strictly before it.
func LetterOffset(text string, byteOffset int) int {
	if byteOffset > len(text) {
		byteOffset = len(text)
	}
	if byteOffset <= 0 {
		return 0
	}
	return hebrew.CountLetters(text[:byteOffset])
}

// ProgressFunc receives the number of books loaded so far out of total.
type ProgressFunc func(done, total int)

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	workers  int
	progress ProgressFunc
	span     *corpus.VerseRange
}

// WithWorkers bounds concurrent book fetches. Values below 1 mean 1.
func WithWorkers(n int) BuildOption {
	return func(o *buildOptions) {
		o.workers = n
	}
}

// WithProgress reports per-book load progress. It may be called from several goroutines.
func WithProgress(fn ProgressFunc) BuildOption {
	return func(o *buildOptions) {
		o.progress = fn
	}
}

// WithRange keeps only the verses inside r, e.g. a single weekly portion.
func WithRange(r corpus.VerseRange) BuildOption {
	return func(o *buildOptions) {
		o.span = &r
	}
}

// Build loads books from src and flattens them in the order given.
// Books are fetched concurrently; assembly is always in canonical order.
func Build(ctx context.Context, src corpus.Source, books []corpus.Book, opts ...BuildOption) (*Stream, error) {
	o := buildOptions{workers: 4}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	loaded := make([][][]corpus.Verse, len(books))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, b := range books {
		g.Go(func() error {
			chapters, err := src.FetchFullBook(gctx, b.ID)
			if err != nil {
				return wrapFetchError(b.ID, err)
			}
			loaded[i] = chapters
			if o.progress != nil {
				o.progress(int(done.Add(1)), len(books))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	s := &Stream{}
	for _, chapters := range loaded {
		for _, verses := range chapters {
			for _, v := range verses {
				if o.span != nil && !o.span.Contains(v) {
					continue
				}
				s.AppendVerse(v)
			}
		}
	}
	return s, nil
}

func wrapFetchError(bookID string, err error) error {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var te *errors.TanachError
	if stderrors.As(err, &te) {
		return err
	}
	return errors.CorpusError("fetch "+bookID, err).WithDetail("book", bookID)
}

// GlobalOffset returns the number of letters in the corpus before the given verse,
// counting every book in canonical order.
func GlobalOffset(ctx context.Context, src corpus.Source, bookID string, chapter, verse int) (int, error) {
	target, err := corpus.LookupBook(bookID)
	if err != nil {
		return 0, err
	}

	offset := 0
	for _, b := range corpus.Books[:target.Order] {
		chapters, err := src.FetchFullBook(ctx, b.ID)
		if err != nil {
			return 0, wrapFetchError(b.ID, err)
		}
		for _, verses := range chapters {
			for _, v := range verses {
				offset += hebrew.CountLetters(v.Text)
			}
		}
	}

	for ch := 1; ch <= chapter && ch <= target.Chapters; ch++ {
		verses, err := src.FetchChapter(ctx, target.ID, ch)
		if err != nil {
			return 0, wrapFetchError(target.ID, err)
		}
		for _, v := range verses {
			if ch == chapter && v.Number >= verse {
				break
			}
			offset += hebrew.CountLetters(v.Text)
		}
	}
	return offset, nil
}
