package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

func asTanach(err error) *TanachError {
	var te *TanachError
	if stderrors.As(err, &te) {
		return te
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}
	te := asTanach(err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", te.Message)
	if te.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", te.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", te.Code)
	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}
	te := asTanach(err)

	je := jsonError{
		Code:       te.Code,
		Message:    te.Message,
		Category:   string(te.Category),
		Severity:   string(te.Severity),
		Details:    te.Details,
		Suggestion: te.Suggestion,
		Retryable:  te.Retryable,
	}
	if te.Cause != nil {
		je.Cause = te.Cause.Error()
	}
	return json.Marshal(je)
}

// LogAttrs flattens an error into slog-friendly key/value pairs.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}
	var te *TanachError
	if !stderrors.As(err, &te) {
		return []any{"error", err.Error()}
	}

	attrs := []any{
		"error_code", te.Code,
		"error", te.Message,
		"category", string(te.Category),
	}
	if te.Cause != nil {
		attrs = append(attrs, "cause", te.Cause.Error())
	}
	for k, v := range te.Details {
		attrs = append(attrs, "detail_"+k, v)
	}
	return attrs
}
