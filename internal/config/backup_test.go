package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup_MissingFile(t *testing.T) {
	backupPath, err := Backup(filepath.Join(t.TempDir(), "config.yaml"))

	require.NoError(t, err)
	assert.Empty(t, backupPath)
}

func TestBackup_CopiesAndPrunes(t *testing.T) {
	// Given: an existing config
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "search:\n  whole_word: true\n")

	// When: backing up more times than are kept
	var last string
	for range MaxBackups + 2 {
		p, err := Backup(path)
		require.NoError(t, err)
		last = p
	}

	// Then: the newest backup holds the content
	data, err := os.ReadFile(last)
	require.NoError(t, err)
	assert.Equal(t, "search:\n  whole_word: true\n", string(data))

	// And: only MaxBackups remain, newest first
	backups, err := ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, MaxBackups)
	assert.Equal(t, last, backups[0])
}

func TestListBackups_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "version: 1\n")
	writeFile(t, filepath.Join(dir, "other.yaml.bak.20250101-000000.000000"), "x")

	_, err := Backup(path)
	require.NoError(t, err)

	backups, err := ListBackups(path)
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestRestore(t *testing.T) {
	// Given: a backup of the original and a newer file
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, "original\n")
	backupPath, err := Backup(path)
	require.NoError(t, err)
	writeFile(t, path, "edited\n")

	// When: restoring
	require.NoError(t, Restore(path, backupPath))

	// Then: the original content is back
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(data))

	// And: the edited file was backed up first
	backups, err := ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	edited, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "edited\n", string(edited))
}

func TestRestore_MissingBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := Restore(path, path+".bak.nope")

	assert.Error(t, err)
}
