package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
)

const genesisTSV = "# book\tchapter\tverse\ttext\n" +
	"Genesis\t1\t1\tבְּרֵאשִׁית בָּרָא\n" +
	"Genesis\t1\t2\tיְהִי אוֹר\n" +
	"Genesis\tx\t3\tbroken\n"

func writeImportFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportCmd_TSV(t *testing.T) {
	// Given: a TSV file with one malformed line
	dir := isolate(t)
	src := writeImportFile(t, dir, "genesis.tsv", genesisTSV)
	dbPath := filepath.Join(dir, "data", "corpus.db")

	// When: importing it
	stdout, _, err := execute(t, "--corpus", dbPath, "import", src)

	// Then: the chapter is stored and the bad line reported
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 chapters, 2 verses")
	assert.Contains(t, stdout, "1 malformed lines skipped")
	assert.Contains(t, stdout, "1 / 929 chapters")

	store, err := corpus.OpenStore(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	verses, err := store.FetchChapter(context.Background(), "Genesis", 1)
	require.NoError(t, err)
	require.Len(t, verses, 2)
	assert.Equal(t, "יְהִי אוֹר", verses[1].Text)
}

func TestImportCmd_SefariaJSON(t *testing.T) {
	dir := isolate(t)
	src := writeImportFile(t, dir, "ruth.json", `{"title": "Ruth", "he": [["וַיְהִי בִּימֵי"], ["וּלְנָעֳמִי"]]}`)
	dbPath := filepath.Join(dir, "corpus.db")

	stdout, _, err := execute(t, "--corpus", dbPath, "import", src, "--json")

	require.NoError(t, err)
	var got struct {
		Imported corpus.ImportStats `json:"imported"`
		Corpus   corpus.Status      `json:"corpus"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, 2, got.Imported.Chapters)
	assert.Equal(t, 2, got.Imported.Verses)
	assert.Equal(t, 2, got.Corpus.ChaptersPresent)
	assert.False(t, got.Corpus.Complete)
}

func TestImportCmd_Errors(t *testing.T) {
	dir := isolate(t)
	dbPath := filepath.Join(dir, "corpus.db")

	_, _, err := execute(t, "--corpus", dbPath, "import", writeImportFile(t, dir, "verses.csv", "x"))
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	_, _, err = execute(t, "--corpus", dbPath, "import", "genesis.tsv", "--format", "xml")
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))

	_, _, err = execute(t, "--corpus", dbPath, "import", filepath.Join(dir, "missing.tsv"))
	assert.Equal(t, errors.ErrCodeImportFailed, errors.GetCode(err))
}

func TestImportCmd_Locked(t *testing.T) {
	// Given: another import holds the lock
	dir := isolate(t)
	dbPath := filepath.Join(dir, "corpus.db")
	lock := corpus.NewFileLock(dbPath)
	ok, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = lock.Unlock() }()

	// When: importing
	_, _, err = execute(t, "--corpus", dbPath, "import", writeImportFile(t, dir, "g.tsv", genesisTSV))

	// Then: the import is refused
	assert.Equal(t, errors.ErrCodeCorpusLocked, errors.GetCode(err))
}
