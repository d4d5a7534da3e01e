package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// Format names an import file layout.
type Format string

const (
	// FormatTSV is one verse per line: book<TAB>chapter<TAB>verse<TAB>text.
	FormatTSV Format = "tsv"
	// FormatSefaria is a Sefaria book export: {"title": ..., "he": [[verse, ...], ...]}.
	FormatSefaria Format = "sefaria"
)

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return FormatTSV, nil
	case ".json":
		return FormatSefaria, nil
	default:
		return "", errors.ValidationError("cannot detect import format of "+path, nil).
			WithSuggestion("Use a .tsv or .json file, or pass --format")
	}
}

// ImportStats summarizes one import run.
type ImportStats struct {
	Books    int           `json:"books"`
	Chapters int           `json:"chapters"`
	Verses   int           `json:"verses"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

// Importer writes cleaned verse text into a Store.
type Importer struct {
	store *Store
	clean func(string) string
}

// NewImporter creates an importer that cleans text with CleanVerseText.
func NewImporter(store *Store) *Importer {
	return &Importer{store: store, clean: CleanVerseText}
}

// ImportFile imports path under the store's file lock.
func (im *Importer) ImportFile(ctx context.Context, path string, format Format) (*ImportStats, error) {
	if format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeImportFailed, "open import file", err).WithDetail("path", path)
	}
	defer f.Close()

	if im.store.Path() != "" {
		lock := NewFileLock(im.store.Path())
		acquired, err := lock.TryLock()
		if err != nil {
			return nil, errors.New(errors.ErrCodeCorpusLocked, "lock corpus", err)
		}
		if !acquired {
			return nil, errors.New(errors.ErrCodeCorpusLocked, "another import is running", nil).
				WithDetail("lock", lock.Path())
		}
		defer func() { _ = lock.Unlock() }()
	}

	var stats *ImportStats
	switch format {
	case FormatTSV:
		stats, err = im.ImportTSV(ctx, f)
	case FormatSefaria:
		stats, err = im.ImportSefaria(ctx, f, "")
	default:
		return nil, errors.ValidationError(fmt.Sprintf("unknown import format %q", format), nil)
	}
	if err != nil {
		return nil, err
	}

	_ = im.store.SetMeta(ctx, "source", filepath.Base(path))
	_ = im.store.SetMeta(ctx, "imported_at", time.Now().UTC().Format(time.RFC3339))
	return stats, nil
}

type chapterRef struct {
	book    string
	chapter int
}

// ImportTSV reads book/chapter/verse/text lines. Blank lines and lines starting
// with '#' are ignored; malformed lines are counted as skipped.
func (im *Importer) ImportTSV(ctx context.Context, r io.Reader) (*ImportStats, error) {
	start := time.Now()
	chapters := make(map[chapterRef]map[int]string)
	stats := &ImportStats{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.SplitN(text, "\t", 4)
		if len(fields) != 4 {
			stats.Skipped++
			slog.Debug("import_line_skipped", slog.Int("line", line), slog.String("reason", "field count"))
			continue
		}
		book, err := LookupBook(fields[0])
		chapter, cerr := strconv.Atoi(strings.TrimSpace(fields[1]))
		verse, verr := strconv.Atoi(strings.TrimSpace(fields[2]))
		if err != nil || cerr != nil || verr != nil || chapter < 1 || chapter > book.Chapters || verse < 1 {
			stats.Skipped++
			slog.Debug("import_line_skipped", slog.Int("line", line), slog.String("reason", "bad reference"))
			continue
		}

		ref := chapterRef{book: book.ID, chapter: chapter}
		if chapters[ref] == nil {
			chapters[ref] = make(map[int]string)
		}
		chapters[ref][verse] = im.clean(fields[3])
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeImportFailed, "read import file", err)
	}

	if err := im.writeChapters(ctx, chapters, stats); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// writeChapters stores chapters in canonical order. Verse numbers are compacted
// to 1..n in their original order.
func (im *Importer) writeChapters(ctx context.Context, chapters map[chapterRef]map[int]string, stats *ImportStats) error {
	refs := make([]chapterRef, 0, len(chapters))
	for ref := range chapters {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		oi, oj := BookOrder(refs[i].book), BookOrder(refs[j].book)
		if oi != oj {
			return oi < oj
		}
		return refs[i].chapter < refs[j].chapter
	})

	books := make(map[string]struct{})
	for _, ref := range refs {
		byVerse := chapters[ref]
		nums := make([]int, 0, len(byVerse))
		for n := range byVerse {
			nums = append(nums, n)
		}
		sort.Ints(nums)

		texts := make([]string, 0, len(nums))
		for _, n := range nums {
			texts = append(texts, byVerse[n])
		}
		if err := im.store.PutChapter(ctx, ref.book, ref.chapter, texts); err != nil {
			return err
		}
		books[ref.book] = struct{}{}
		stats.Chapters++
		stats.Verses += len(texts)
	}
	stats.Books = len(books)
	return nil
}

type sefariaBook struct {
	Title string          `json:"title"`
	He    json.RawMessage `json:"he"`
	Text  json.RawMessage `json:"text"`
}

// ImportSefaria reads one Sefaria book export. bookID overrides the file's title.
func (im *Importer) ImportSefaria(ctx context.Context, r io.Reader, bookID string) (*ImportStats, error) {
	start := time.Now()

	var doc sefariaBook
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.New(errors.ErrCodeImportFailed, "decode sefaria json", err)
	}
	if bookID == "" {
		bookID = doc.Title
	}
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}

	body := doc.He
	if len(body) == 0 {
		body = doc.Text
	}
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, errors.New(errors.ErrCodeImportFailed, "sefaria json has no chapter array", err)
	}

	stats := &ImportStats{}
	chapters := make(map[chapterRef]map[int]string)
	for i, ch := range raw {
		if i >= book.Chapters {
			stats.Skipped++
			continue
		}
		verses := flattenVerses(ch)
		if len(verses) == 0 {
			continue
		}
		byVerse := make(map[int]string, len(verses))
		for n, v := range verses {
			byVerse[n+1] = im.clean(v)
		}
		chapters[chapterRef{book: book.ID, chapter: i + 1}] = byVerse
	}

	if err := im.writeChapters(ctx, chapters, stats); err != nil {
		return nil, err
	}
	stats.Duration = time.Since(start)
	return stats, nil
}

// flattenVerses collects strings from arbitrarily nested arrays in order.
func flattenVerses(node any) []string {
	switch v := node.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, flattenVerses(item)...)
		}
		return out
	default:
		return nil
	}
}
