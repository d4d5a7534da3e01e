package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

// isolate points HOME, the user config and the working directory at a temp
// dir, and returns it. The default logger is restored afterwards.
func isolate(t *testing.T) string {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	t.Setenv("TANACH_CORPUS_PATH", "")
	t.Setenv("NO_COLOR", "1")
	t.Chdir(dir)
	return dir
}

// seedCorpus writes a small corpus and returns its path:
//
//	Genesis 1:1 בראשית ברא   Genesis 1:2 יהי אור
//	Exodus 1:1 אור גדול
func seedCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.db")
	store, err := corpus.OpenStore(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.PutChapter(ctx, "Genesis", 1, []string{"בְּרֵאשִׁית בָּרָא", "יְהִי אוֹר"}))
	require.NoError(t, store.PutChapter(ctx, "Exodus", 1, []string{"אוֹר גָּדוֹל"}))
	require.NoError(t, store.Close())
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}
