// Package errors provides structured error handling for the Tanach engine.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Corpus and storage errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryCorpus indicates corpus access and storage errors.
	CategoryCorpus Category = "CORPUS"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	SeverityFatal   Severity = "FATAL"
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound   = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid    = "ERR_102_CONFIG_INVALID"
	ErrCodeConfigPermission = "ERR_103_CONFIG_PERMISSION"

	// Corpus errors (200-299)
	ErrCodeCorpusUnavailable = "ERR_201_CORPUS_UNAVAILABLE"
	ErrCodeCorpusLocked      = "ERR_202_CORPUS_LOCKED"
	ErrCodeCorpusCorrupt     = "ERR_203_CORPUS_CORRUPT"
	ErrCodeImportFailed      = "ERR_204_IMPORT_FAILED"
	ErrCodeChapterMissing    = "ERR_205_CHAPTER_MISSING"

	// Validation errors (400-499)
	ErrCodeInvalidInput   = "ERR_401_INVALID_INPUT"
	ErrCodeUnknownBook    = "ERR_402_UNKNOWN_BOOK"
	ErrCodeInvalidQuery   = "ERR_403_INVALID_QUERY"
	ErrCodeInvalidScope   = "ERR_404_INVALID_SCOPE"
	ErrCodeTooManySkips   = "ERR_405_TOO_MANY_SKIPS"
	ErrCodeWindowTooLarge = "ERR_406_WINDOW_TOO_LARGE"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeSearchFailed  = "ERR_503_SEARCH_FAILED"
	ErrCodeSearchAborted = "ERR_506_SEARCH_ABORTED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryCorpus
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorpusCorrupt:
		return SeverityFatal
	case ErrCodeSearchAborted:
		return SeverityInfo
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeCorpusLocked, ErrCodeCorpusUnavailable:
		return true
	default:
		return false
	}
}
