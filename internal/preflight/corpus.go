package preflight

import (
	"context"
	"fmt"
	"os"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

// CheckCorpusFile checks that the corpus database exists.
func (c *Checker) CheckCorpusFile() CheckResult {
	result := CheckResult{
		Name:     "corpus_file",
		Required: true,
		Details:  c.corpusPath,
	}

	info, err := os.Stat(c.corpusPath)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusFail
		result.Message = "not found; run 'tanach import' first"
	case err != nil:
		result.Status = StatusFail
		result.Message = fmt.Sprintf("cannot stat: %v", err)
	case info.IsDir():
		result.Status = StatusFail
		result.Message = "path is a directory"
	default:
		result.Status = StatusPass
		result.Message = formatBytes(uint64(info.Size()))
	}
	return result
}

// CheckCorpus opens the store, which runs the integrity check, and reports
// completeness. It returns the integrity result and, when the store opened,
// the completeness result.
func (c *Checker) CheckCorpus(ctx context.Context) []CheckResult {
	integrity := CheckResult{Name: "corpus_integrity", Required: true}

	store, err := corpus.OpenStore(c.corpusPath)
	if err != nil {
		integrity.Status = StatusFail
		integrity.Message = err.Error()
		return []CheckResult{integrity}
	}
	defer func() { _ = store.Close() }()

	integrity.Status = StatusPass
	integrity.Message = "ok"

	return []CheckResult{integrity, c.checkCompleteness(ctx, store)}
}

func (c *Checker) checkCompleteness(ctx context.Context, store *corpus.Store) CheckResult {
	result := CheckResult{Name: "corpus_complete", Required: false}

	st, err := store.Status(ctx)
	if err != nil {
		result.Status = StatusFail
		result.Message = err.Error()
		return result
	}

	result.Message = fmt.Sprintf("%d / %d chapters, %d verses", st.ChaptersPresent, st.ChaptersTotal, st.Verses)
	if st.Complete {
		result.Status = StatusPass
		return result
	}

	result.Status = StatusWarn
	var missing int
	for _, b := range st.Books {
		if b.ChaptersPresent < b.ChaptersTotal {
			missing++
		}
	}
	result.Details = fmt.Sprintf("%d books incomplete; see 'tanach status'", missing)
	return result
}

// CheckImportLock warns when another process is importing into the corpus.
func (c *Checker) CheckImportLock() CheckResult {
	result := CheckResult{Name: "import_lock", Required: false}

	lock := corpus.NewFileLock(c.corpusPath)
	result.Details = lock.Path()
	acquired, err := lock.TryLock()
	if err != nil {
		result.Status = StatusWarn
		result.Message = err.Error()
		return result
	}
	if !acquired {
		result.Status = StatusWarn
		result.Message = "an import is in progress; results may be partial"
		return result
	}
	_ = lock.Unlock()

	result.Status = StatusPass
	result.Message = "free"
	return result
}
