package errors

import (
	stderrors "errors"
	"fmt"
)

// TanachError is the structured error type used across the engine.
// It carries enough context for logging, CLI output and MCP error mapping.
type TanachError struct {
	// Code is the unique error code (e.g., "ERR_201_CORPUS_UNAVAILABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Corpus, Validation, Internal).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *TanachError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TanachError) Unwrap() error {
	return e.Cause
}

// Is matches by code so errors.Is works against the sentinels below.
func (e *TanachError) Is(target error) bool {
	if t, ok := target.(*TanachError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *TanachError) WithDetail(key, value string) *TanachError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *TanachError) WithSuggestion(suggestion string) *TanachError {
	e.Suggestion = suggestion
	return e
}

// Sentinels for errors.Is comparisons. They match any TanachError with the same code.
var (
	// ErrAborted resolves a search that was superseded or cancelled.
	ErrAborted = &TanachError{Code: ErrCodeSearchAborted, Message: "search aborted"}

	// ErrUnknownBook is returned for a book id missing from the book table.
	ErrUnknownBook = &TanachError{Code: ErrCodeUnknownBook, Message: "unknown book"}

	// ErrInvalidQuery is returned when a query cannot be parsed.
	ErrInvalidQuery = &TanachError{Code: ErrCodeInvalidQuery, Message: "invalid query"}

	// ErrCorpusUnavailable is returned when verse text cannot be fetched.
	ErrCorpusUnavailable = &TanachError{Code: ErrCodeCorpusUnavailable, Message: "corpus unavailable"}
)

// New creates a new TanachError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *TanachError {
	return &TanachError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a TanachError from an existing error.
func Wrap(code string, err error) *TanachError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *TanachError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// CorpusError creates an error for a failed corpus access.
func CorpusError(message string, cause error) *TanachError {
	return New(ErrCodeCorpusUnavailable, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *TanachError {
	return New(ErrCodeInvalidInput, message, cause)
}

// QueryError creates an error for an unparseable search query.
func QueryError(message string) *TanachError {
	return New(ErrCodeInvalidQuery, message, nil).
		WithSuggestion("Use comma-separated words and skips, e.g. \"משה, 50\" or \"אלהים, 48-51\"")
}

// BookError reports a book id that is not in the book table.
func BookError(bookID string) *TanachError {
	return New(ErrCodeUnknownBook, fmt.Sprintf("unknown book %q", bookID), nil).
		WithDetail("book", bookID)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TanachError {
	return New(ErrCodeInternal, message, cause)
}

// Aborted wraps a cancellation cause into ErrAborted's code.
func Aborted(cause error) *TanachError {
	return New(ErrCodeSearchAborted, "search aborted", cause)
}

// IsAborted reports whether err is a search abort.
func IsAborted(err error) bool {
	return stderrors.Is(err, ErrAborted)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var te *TanachError
	if stderrors.As(err, &te) {
		return te.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var te *TanachError
	if stderrors.As(err, &te) {
		return te.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code, or "" for foreign errors.
func GetCode(err error) string {
	var te *TanachError
	if stderrors.As(err, &te) {
		return te.Code
	}
	return ""
}

// GetCategory extracts the category, or "" for foreign errors.
func GetCategory(err error) Category {
	var te *TanachError
	if stderrors.As(err, &te) {
		return te.Category
	}
	return ""
}
