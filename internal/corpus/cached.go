package corpus

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheChapters is the default number of chapters kept by CachedSource.
// The whole corpus is 929 chapters.
const DefaultCacheChapters = 512

// CachedSource wraps a Source with a read-through chapter LRU.
// Verse text is immutable, so entries never go stale; search results do not
// depend on whether a chapter came from the cache.
type CachedSource struct {
	inner Source
	cache *lru.Cache[string, []Verse]
}

// NewCachedSource creates a cached source holding up to size chapters.
// A size below 1 means DefaultCacheChapters.
func NewCachedSource(inner Source, size int) *CachedSource {
	if size <= 0 {
		size = DefaultCacheChapters
	}
	cache, err := lru.New[string, []Verse](size)
	if err != nil {
		panic(fmt.Sprintf("corpus: chapter cache of size %d: %v", size, err))
	}
	return &CachedSource{inner: inner, cache: cache}
}

func chapterKey(bookID string, chapter int) string {
	return fmt.Sprintf("%s\x00%d", bookID, chapter)
}

// FetchChapter implements Source.
func (c *CachedSource) FetchChapter(ctx context.Context, bookID string, chapter int) ([]Verse, error) {
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}
	key := chapterKey(book.ID, chapter)
	if verses, ok := c.cache.Get(key); ok {
		return verses, nil
	}

	verses, err := c.inner.FetchChapter(ctx, book.ID, chapter)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, verses)
	return verses, nil
}

// FetchFullBook implements Source, filling the cache with every chapter returned.
func (c *CachedSource) FetchFullBook(ctx context.Context, bookID string) ([][]Verse, error) {
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}

	chapters := make([][]Verse, 0, book.Chapters)
	for n := 1; n <= book.Chapters; n++ {
		verses, ok := c.cache.Get(chapterKey(book.ID, n))
		if !ok {
			return c.fillBook(ctx, book.ID)
		}
		chapters = append(chapters, verses)
	}
	return chapters, nil
}

func (c *CachedSource) fillBook(ctx context.Context, bookID string) ([][]Verse, error) {
	chapters, err := c.inner.FetchFullBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	for i, verses := range chapters {
		c.cache.Add(chapterKey(bookID, i+1), verses)
	}
	return chapters, nil
}

// Len returns the number of cached chapters.
func (c *CachedSource) Len() int {
	return c.cache.Len()
}

// Purge empties the cache, e.g. after an import rewrote the store.
func (c *CachedSource) Purge() {
	c.cache.Purge()
}
