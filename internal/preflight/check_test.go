package preflight

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status CheckStatus
		want   string
	}{
		{StatusPass, "PASS"},
		{StatusWarn, "WARN"},
		{StatusFail, "FAIL"},
		{CheckStatus(9), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.String())
		})
	}
}

func TestCheckResult_JSON(t *testing.T) {
	raw, err := json.Marshal(CheckResult{Name: "corpus_file", Status: StatusWarn})

	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"warn"`)
}

func TestCheckResult_IsCritical(t *testing.T) {
	tests := []struct {
		name     string
		result   CheckResult
		expected bool
	}{
		{"required pass is not critical", CheckResult{Status: StatusPass, Required: true}, false},
		{"required fail is critical", CheckResult{Status: StatusFail, Required: true}, true},
		{"optional fail is not critical", CheckResult{Status: StatusFail, Required: false}, false},
		{"required warn is not critical", CheckResult{Status: StatusWarn, Required: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.IsCritical())
		})
	}
}

func TestChecker_NewWithOptions(t *testing.T) {
	buf := &bytes.Buffer{}
	checker := New(
		WithCorpusPath("/data/corpus.db"),
		WithLogDir("/data/logs"),
		WithVerbose(true),
		WithOutput(buf),
	)

	assert.Equal(t, "/data/corpus.db", checker.corpusPath)
	assert.Equal(t, "/data/logs", checker.logDir)
	assert.True(t, checker.verbose)
	assert.Equal(t, buf, checker.output)
}

func TestChecker_SummaryStatus(t *testing.T) {
	checker := New()

	tests := []struct {
		name     string
		results  []CheckResult
		expected string
	}{
		{"all pass", []CheckResult{{Status: StatusPass}, {Status: StatusPass}}, "ready"},
		{"with warnings", []CheckResult{{Status: StatusPass}, {Status: StatusWarn}}, "ready_with_warnings"},
		{"with critical failure", []CheckResult{{Status: StatusPass}, {Status: StatusFail, Required: true}}, "failed"},
		{"with optional failure", []CheckResult{{Status: StatusPass}, {Status: StatusFail}}, "ready_with_warnings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, checker.SummaryStatus(tt.results))
			assert.Equal(t, tt.expected == "failed", checker.HasCriticalFailures(tt.results))
		})
	}
}

func TestPartition(t *testing.T) {
	// Given: one result of each kind
	results := []CheckResult{
		{Name: "corpus_file", Status: StatusPass, Message: "ok", Required: true},
		{Name: "corpus", Status: StatusFail, Message: "integrity check failed", Required: true},
		{Name: "coverage", Status: StatusWarn, Message: "12 / 929 chapters"},
		{Name: "log_dir", Status: StatusFail, Message: "permission denied"},
	}

	// When: partitioning
	errs, warns := Partition(results)

	// Then: only the required failure is an error
	assert.Equal(t, []string{"corpus: integrity check failed"}, errs)
	assert.Equal(t, []string{"coverage: 12 / 929 chapters", "log_dir: permission denied"}, warns)
}

func TestChecker_CheckWritePermissions(t *testing.T) {
	// Given: a log directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "logs")

	// When: checking it
	result := New().CheckWritePermissions(dir)

	// Then: it is created and passes
	assert.Equal(t, StatusPass, result.Status)
	assert.DirExists(t, dir)
}

func TestChecker_CheckWritePermissions_ReadOnly(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("Skipping read-only test when running as root")
	}

	readOnlyDir := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.Mkdir(readOnlyDir, 0o555))
	defer func() { _ = os.Chmod(readOnlyDir, 0o755) }()

	result := New().CheckWritePermissions(readOnlyDir)

	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "permission denied")
}

func TestChecker_CheckCorpusFile_Missing(t *testing.T) {
	checker := New(WithCorpusPath(filepath.Join(t.TempDir(), "corpus.db")))

	result := checker.CheckCorpusFile()

	assert.Equal(t, StatusFail, result.Status)
	assert.True(t, result.IsCritical())
	assert.Contains(t, result.Message, "tanach import")
}

func TestChecker_CheckCorpusFile_Directory(t *testing.T) {
	result := New(WithCorpusPath(t.TempDir())).CheckCorpusFile()

	assert.Equal(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "directory")
}

func partialCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.db")
	store, err := corpus.OpenStore(path)
	require.NoError(t, err)
	require.NoError(t, store.PutChapter(context.Background(), "Genesis", 1, []string{"בְּרֵאשִׁית בָּרָא"}))
	require.NoError(t, store.Close())
	return path
}

func TestChecker_CheckCorpus_Partial(t *testing.T) {
	// Given: a corpus holding one chapter
	checker := New(WithCorpusPath(partialCorpus(t)))

	// When: checking it
	results := checker.CheckCorpus(context.Background())

	// Then: integrity passes and completeness warns
	require.Len(t, results, 2)
	assert.Equal(t, "corpus_integrity", results[0].Name)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, "corpus_complete", results[1].Name)
	assert.Equal(t, StatusWarn, results[1].Status)
	assert.Contains(t, results[1].Message, "1 / 929 chapters")
}

func TestChecker_CheckCorpus_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database at all, just text padding the header"), 0o644))

	results := New(WithCorpusPath(path)).CheckCorpus(context.Background())

	require.Len(t, results, 1)
	assert.True(t, results[0].IsCritical())
}

func TestChecker_CheckImportLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.db")
	checker := New(WithCorpusPath(path))

	// Given: the lock is free
	assert.Equal(t, StatusPass, checker.CheckImportLock().Status)

	// When: an importer holds it
	held := corpus.NewFileLock(path)
	ok, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = held.Unlock() }()

	// Then: the check warns
	result := checker.CheckImportLock()
	assert.Equal(t, StatusWarn, result.Status)
	assert.Contains(t, result.Message, "import is in progress")
}

func TestChecker_CheckDiskSpace_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet")

	result := New().CheckDiskSpace(dir)

	assert.NotEqual(t, StatusFail, result.Status)
	assert.Contains(t, result.Message, "free")
}

func TestChecker_RunAll(t *testing.T) {
	// Given: a partial corpus and a writable log dir
	checker := New(WithCorpusPath(partialCorpus(t)), WithLogDir(t.TempDir()))

	// When: running all checks
	results := checker.RunAll(context.Background())

	// Then: every check is present and nothing is critical
	names := make(map[string]bool)
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"corpus_file", "corpus_integrity", "corpus_complete", "import_lock", "disk_space", "log_dir"} {
		assert.True(t, names[want], "%s check missing", want)
	}
	assert.False(t, checker.HasCriticalFailures(results))
}

func TestChecker_RunAll_MissingCorpus(t *testing.T) {
	checker := New(WithCorpusPath(filepath.Join(t.TempDir(), "corpus.db")), WithLogDir(t.TempDir()))

	results := checker.RunAll(context.Background())

	for _, r := range results {
		assert.NotEqual(t, "corpus_integrity", r.Name)
	}
	assert.True(t, checker.HasCriticalFailures(results))
}

func TestChecker_PrintResults(t *testing.T) {
	results := []CheckResult{
		{Name: "corpus_file", Status: StatusPass, Message: "12.0 MB"},
		{Name: "corpus_complete", Status: StatusWarn, Message: "1 / 929 chapters", Details: "38 books incomplete"},
		{Name: "corpus_integrity", Status: StatusFail, Message: "corrupted", Required: true},
	}

	buf := &bytes.Buffer{}
	New(WithOutput(buf), WithVerbose(true)).PrintResults(results)

	out := buf.String()
	assert.Contains(t, out, "[PASS] corpus_file: 12.0 MB")
	assert.Contains(t, out, "[WARN]")
	assert.Contains(t, out, "[FAIL]")
	assert.Contains(t, out, "38 books incomplete")
	assert.Contains(t, out, "Status: FAILED")
	assert.Contains(t, out, "1 error(s):")
	assert.Contains(t, out, "1 warning(s):")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
	assert.Equal(t, "3.0 GB", formatBytes(3*1024*1024*1024))
}
