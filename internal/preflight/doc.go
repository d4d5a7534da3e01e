// Package preflight runs the health checks behind `tanach doctor`.
//
// The checks cover:
//   - the corpus database file and its integrity
//   - corpus completeness (all 929 chapters)
//   - whether an import currently holds the corpus lock
//   - free disk space next to the corpus for imports
//   - write access to the log directory
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithCorpusPath(cfg.Corpus.Path))
//	results := checker.RunAll(ctx)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
