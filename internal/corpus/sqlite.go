package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS verses (
	book_id TEXT NOT NULL,
	chapter INTEGER NOT NULL,
	verse   INTEGER NOT NULL,
	text    TEXT NOT NULL,
	PRIMARY KEY (book_id, chapter, verse)
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is the SQLite-backed verse store. It implements Source.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ Source = (*Store)(nil)

// validateIntegrity checks an existing database before it is opened for writing.
func validateIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open(driverName, path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// OpenStore opens (creating if needed) the verse store at path.
// An empty path opens a private in-memory database.
func OpenStore(path string) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.CorpusError("create corpus directory", err)
		}
		if err := validateIntegrity(path); err != nil {
			slog.Error("corpus_store_corrupted",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil, errors.New(errors.ErrCodeCorpusCorrupt, "corpus database is corrupted", err).
				WithDetail("path", path).
				WithSuggestion("Delete the file and run 'tanach import' again")
		}
		dsn = path
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, errors.CorpusError("open corpus database", err)
	}

	// One connection: writes are serialized and :memory: stays a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.CorpusError("configure corpus database", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.CorpusError("create corpus schema", err)
	}

	return &Store{db: db, path: path}, nil
}

// Path returns the database file path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// Close closes the database. Calling it twice is safe.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return errors.CorpusError("corpus store is closed", nil)
	}
	return nil
}

// FetchChapter implements Source.
func (s *Store) FetchChapter(ctx context.Context, bookID string, chapter int) ([]Verse, error) {
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT verse, text FROM verses WHERE book_id = ? AND chapter = ? ORDER BY verse`,
		book.ID, chapter)
	if err != nil {
		return nil, errors.CorpusError(fmt.Sprintf("fetch %s %d", book.ID, chapter), err)
	}
	defer rows.Close()

	var verses []Verse
	for rows.Next() {
		v := Verse{BookID: book.ID, Chapter: chapter}
		if err := rows.Scan(&v.Number, &v.Text); err != nil {
			return nil, errors.CorpusError("scan verse", err)
		}
		verses = append(verses, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.CorpusError(fmt.Sprintf("fetch %s %d", book.ID, chapter), err)
	}
	return verses, nil
}

// FetchFullBook implements Source. The result has one entry per chapter in the
// book table; chapters not yet imported are empty.
func (s *Store) FetchFullBook(ctx context.Context, bookID string) ([][]Verse, error) {
	book, err := LookupBook(bookID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter, verse, text FROM verses WHERE book_id = ? ORDER BY chapter, verse`,
		book.ID)
	if err != nil {
		return nil, errors.CorpusError("fetch "+book.ID, err)
	}
	defer rows.Close()

	chapters := make([][]Verse, book.Chapters)
	for rows.Next() {
		v := Verse{BookID: book.ID}
		if err := rows.Scan(&v.Chapter, &v.Number, &v.Text); err != nil {
			return nil, errors.CorpusError("scan verse", err)
		}
		if v.Chapter < 1 || v.Chapter > book.Chapters {
			continue
		}
		chapters[v.Chapter-1] = append(chapters[v.Chapter-1], v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.CorpusError("fetch "+book.ID, err)
	}
	return chapters, nil
}

// PutChapter replaces a chapter's verses. texts[0] becomes verse 1.
func (s *Store) PutChapter(ctx context.Context, bookID string, chapter int, texts []string) error {
	book, err := LookupBook(bookID)
	if err != nil {
		return err
	}
	if chapter < 1 || chapter > book.Chapters {
		return errors.ValidationError(fmt.Sprintf("%s has no chapter %d", book.ID, chapter), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.CorpusError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM verses WHERE book_id = ? AND chapter = ?`, book.ID, chapter); err != nil {
		return errors.CorpusError("clear chapter", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO verses (book_id, chapter, verse, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.CorpusError("prepare insert", err)
	}
	defer stmt.Close()

	for i, text := range texts {
		if _, err := stmt.ExecContext(ctx, book.ID, chapter, i+1, text); err != nil {
			return errors.CorpusError("insert verse", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.CorpusError("commit chapter", err)
	}
	return nil
}

// SetMeta stores a key/value pair, e.g. the import source.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errors.CorpusError("set meta "+key, err)
	}
	return nil
}

// Meta reads a key; a missing key yields "".
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", errors.CorpusError("read meta "+key, err)
	}
	return value, nil
}

// BookStatus reports how much of one book is present.
type BookStatus struct {
	BookID          string `json:"book_id"`
	ChaptersPresent int    `json:"chapters_present"`
	ChaptersTotal   int    `json:"chapters_total"`
	Verses          int    `json:"verses"`
}

// Status summarizes corpus completeness.
type Status struct {
	Books           []BookStatus `json:"books"`
	ChaptersPresent int          `json:"chapters_present"`
	ChaptersTotal   int          `json:"chapters_total"`
	Verses          int          `json:"verses"`
	Complete        bool         `json:"complete"`
}

// Status counts present chapters and verses per book.
func (s *Store) Status(ctx context.Context) (*Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id, COUNT(DISTINCT chapter), COUNT(*) FROM verses GROUP BY book_id`)
	if err != nil {
		return nil, errors.CorpusError("read corpus status", err)
	}
	defer rows.Close()

	type counts struct{ chapters, verses int }
	byBook := make(map[string]counts)
	for rows.Next() {
		var id string
		var c counts
		if err := rows.Scan(&id, &c.chapters, &c.verses); err != nil {
			return nil, errors.CorpusError("scan corpus status", err)
		}
		byBook[id] = c
	}
	if err := rows.Err(); err != nil {
		return nil, errors.CorpusError("read corpus status", err)
	}

	st := &Status{ChaptersTotal: TotalChapters}
	for _, b := range Books {
		c := byBook[b.ID]
		st.Books = append(st.Books, BookStatus{
			BookID:          b.ID,
			ChaptersPresent: c.chapters,
			ChaptersTotal:   b.Chapters,
			Verses:          c.verses,
		})
		st.ChaptersPresent += c.chapters
		st.Verses += c.verses
	}
	st.Complete = st.ChaptersPresent >= TotalChapters
	return st, nil
}
