package letters

import (
	"context"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

// Navigator pages fixed-size letter windows across verse, chapter and book
// boundaries. It holds no state between calls, so concurrent calls are safe.
type Navigator struct {
	src corpus.Source
}

// NewNavigator creates a navigator over src.
func NewNavigator(src corpus.Source) *Navigator {
	return &Navigator{src: src}
}

type chapterPos struct {
	book    corpus.Book
	chapter int
}

func (p chapterPos) next() (chapterPos, bool) {
	if p.chapter < p.book.Chapters {
		return chapterPos{book: p.book, chapter: p.chapter + 1}, true
	}
	nb, ok := corpus.NextBook(p.book.ID)
	if !ok {
		return chapterPos{}, false
	}
	return chapterPos{book: nb, chapter: 1}, true
}

func (p chapterPos) prev() (chapterPos, bool) {
	if p.chapter > 1 {
		return chapterPos{book: p.book, chapter: p.chapter - 1}, true
	}
	pb, ok := corpus.PrevBook(p.book.ID)
	if !ok {
		return chapterPos{}, false
	}
	return chapterPos{book: pb, chapter: pb.Chapters}, true
}

func (n *Navigator) chapterLetters(ctx context.Context, pos chapterPos) ([]Record, error) {
	verses, err := n.src.FetchChapter(ctx, pos.book.ID, pos.chapter)
	if err != nil {
		return nil, wrapFetchError(pos.book.ID, err)
	}
	var s Stream
	for _, v := range verses {
		s.AppendVerse(v)
	}
	return s.Letters, nil
}

// indexOf finds the anchor letter within the letters of its chapter.
func indexOf(letters []Record, pos chapterPos, verse, letterIdx int) int {
	anchor := Record{BookID: pos.book.ID, Chapter: pos.chapter, Verse: verse, LetterIdx: letterIdx}
	for i, r := range letters {
		if r.SamePosition(anchor) {
			return i
		}
	}
	return -1
}

// forward collects up to count letters starting at letters[from] and
// continuing into the following chapters and books.
func (n *Navigator) forward(ctx context.Context, pos chapterPos, letters []Record, from, count int) ([]Record, error) {
	out := make([]Record, 0, min(count, 4096))
	if from < len(letters) {
		end := min(len(letters), from+count)
		out = append(out, letters[from:end]...)
	}
	for len(out) < count {
		var ok bool
		pos, ok = pos.next()
		if !ok {
			break
		}
		more, err := n.chapterLetters(ctx, pos)
		if err != nil {
			return nil, err
		}
		out = append(out, more[:min(len(more), count-len(out))]...)
	}
	return out, nil
}

func (n *Navigator) resolve(bookID string, chapter int) (chapterPos, error) {
	book, err := corpus.LookupBook(bookID)
	if err != nil {
		return chapterPos{}, err
	}
	chapter = max(1, min(chapter, book.Chapters))
	return chapterPos{book: book, chapter: chapter}, nil
}

// Window returns up to size letters starting at the anchor letter. An anchor
// not found in its chapter falls back to the chapter's first letter.
func (n *Navigator) Window(ctx context.Context, bookID string, chapter, verse, letterIdx, size int) ([]Record, error) {
	if size <= 0 {
		return []Record{}, nil
	}
	pos, err := n.resolve(bookID, chapter)
	if err != nil {
		return nil, err
	}
	letters, err := n.chapterLetters(ctx, pos)
	if err != nil {
		return nil, err
	}

	start := indexOf(letters, pos, verse, letterIdx)
	if start < 0 {
		start = 0
	}
	return n.forward(ctx, pos, letters, start, size)
}

// Next returns up to count letters strictly after last. If last is not found
// in its chapter, paging restarts at the chapter's first letter.
func (n *Navigator) Next(ctx context.Context, last Record, count int) ([]Record, error) {
	if count <= 0 {
		return []Record{}, nil
	}
	pos, err := n.resolve(last.BookID, last.Chapter)
	if err != nil {
		return nil, err
	}
	letters, err := n.chapterLetters(ctx, pos)
	if err != nil {
		return nil, err
	}

	return n.forward(ctx, pos, letters, indexOf(letters, pos, last.Verse, last.LetterIdx)+1, count)
}

// Prev returns up to count letters strictly before first, in stream order.
// It returns an empty slice at the corpus head or when first is not found.
func (n *Navigator) Prev(ctx context.Context, first Record, count int) ([]Record, error) {
	if count <= 0 {
		return []Record{}, nil
	}
	pos, err := n.resolve(first.BookID, first.Chapter)
	if err != nil {
		return nil, err
	}
	letters, err := n.chapterLetters(ctx, pos)
	if err != nil {
		return nil, err
	}

	at := indexOf(letters, pos, first.Verse, first.LetterIdx)
	if at < 0 {
		return []Record{}, nil
	}

	// Collected back to front as chapter slices, then joined in order.
	segments := [][]Record{letters[max(0, at-count):at]}
	have := len(segments[0])
	for have < count {
		var ok bool
		pos, ok = pos.prev()
		if !ok {
			break
		}
		more, err := n.chapterLetters(ctx, pos)
		if err != nil {
			return nil, err
		}
		take := min(len(more), count-have)
		segments = append(segments, more[len(more)-take:])
		have += take
	}

	out := make([]Record, 0, have)
	for i := len(segments) - 1; i >= 0; i-- {
		out = append(out, segments[i]...)
	}
	return out, nil
}

// Offset returns the corpus-wide stream position of r: the letters in every
// verse before it in canonical order, plus its index within the verse.
func (n *Navigator) Offset(ctx context.Context, r Record) (int, error) {
	before, err := GlobalOffset(ctx, n.src, r.BookID, r.Chapter, r.Verse)
	if err != nil {
		return 0, err
	}
	return before + r.LetterIdx, nil
}
