// Package corpus provides the verse text the engine reads: the fixed book
// table, scope resolution, the Source accessor contract and its SQLite,
// cached and in-memory implementations, plus acquisition-side cleaning and import.
package corpus

import (
	"context"
	"fmt"
	"sync"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// Verse is one cleaned verse. Immutable once loaded.
type Verse struct {
	BookID  string `json:"book_id"`
	Chapter int    `json:"chapter"`
	Number  int    `json:"verse"`
	Text    string `json:"text"`
}

// Ref formats the verse reference, e.g. "Genesis 1:3".
func (v Verse) Ref() string {
	return fmt.Sprintf("%s %d:%d", v.BookID, v.Chapter, v.Number)
}

// Source is the read-only verse accessor the engine depends on.
// Implementations must be safe for concurrent use.
type Source interface {
	// FetchChapter returns a chapter's verses in order. A missing chapter yields an empty slice.
	FetchChapter(ctx context.Context, bookID string, chapter int) ([]Verse, error)
	// FetchFullBook returns every chapter of a book; index 0 is chapter 1.
	FetchFullBook(ctx context.Context, bookID string) ([][]Verse, error)
}

// MemorySource is an in-memory Source, used for fixtures and small corpora.
type MemorySource struct {
	mu       sync.RWMutex
	chapters map[string]map[int][]Verse
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{chapters: make(map[string]map[int][]Verse)}
}

// Add appends verses to a chapter. bookID is resolved through the book table.
func (m *MemorySource) Add(bookID string, chapter int, texts ...string) error {
	book, err := LookupBook(bookID)
	if err != nil {
		return err
	}
	if chapter < 1 || chapter > book.Chapters {
		return errors.ValidationError(fmt.Sprintf("%s has no chapter %d", book.ID, chapter), nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byChapter, ok := m.chapters[book.ID]
	if !ok {
		byChapter = make(map[int][]Verse)
		m.chapters[book.ID] = byChapter
	}
	for _, text := range texts {
		byChapter[chapter] = append(byChapter[chapter], Verse{
			BookID:  book.ID,
			Chapter: chapter,
			Number:  len(byChapter[chapter]) + 1,
			Text:    text,
		})
	}
	return nil
}

// FetchChapter implements Source.
func (m *MemorySource) FetchChapter(ctx context.Context, bookID string, chapter int) ([]Verse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Verse(nil), m.chapters[book.ID][chapter]...), nil
}

// FetchFullBook implements Source. The result has one entry per chapter in the
// book table; chapters never added are empty.
func (m *MemorySource) FetchFullBook(ctx context.Context, bookID string) ([][]Verse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]Verse, book.Chapters)
	for n, verses := range m.chapters[book.ID] {
		if n >= 1 && n <= book.Chapters {
			out[n-1] = append([]Verse(nil), verses...)
		}
	}
	return out, nil
}

// failingSource is returned by Failing.
type failingSource struct{ err error }

// Failing returns a Source whose every call fails with err.
func Failing(err error) Source {
	return failingSource{err: errors.CorpusError("corpus unavailable", err)}
}

func (f failingSource) FetchChapter(context.Context, string, int) ([]Verse, error) {
	return nil, f.err
}

func (f failingSource) FetchFullBook(context.Context, string) ([][]Verse, error) {
	return nil, f.err
}
