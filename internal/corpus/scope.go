package corpus

import (
	"fmt"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// Scope restricts a search to part of the corpus.
type Scope string

const (
	// ScopeCurrent is the single book the reader has open.
	ScopeCurrent Scope = "current"
	ScopeTorah   Scope = "torah"
	ScopeNevim   Scope = "nevim"
	ScopeKetuvim Scope = "ketuvim"
	// ScopeTanakh is the full corpus.
	ScopeTanakh Scope = "tanakh"
)

// Scopes lists every accepted named scope. A weekly portion is selected
// with the "parasha:" prefix instead.
var Scopes = []Scope{ScopeCurrent, ScopeTorah, ScopeNevim, ScopeKetuvim, ScopeTanakh}

const parashaPrefix = "parasha:"

// ParashaScope returns the scope covering a single weekly portion.
func ParashaScope(p Parasha) Scope {
	return Scope(parashaPrefix + p.ID())
}

// Parasha returns the portion a "parasha:<name>" scope selects.
func (s Scope) Parasha() (Parasha, bool) {
	name, ok := strings.CutPrefix(string(s), parashaPrefix)
	if !ok {
		return Parasha{}, false
	}
	p, err := LookupParasha(name)
	if err != nil {
		return Parasha{}, false
	}
	return p, true
}

// ParseScope validates a scope name. The empty string means tanakh.
// "parasha:<name>" accepts any English or Hebrew portion name and is
// returned in its canonical form.
func ParseScope(s string) (Scope, error) {
	sc := Scope(strings.ToLower(strings.TrimSpace(s)))
	if sc == "" {
		return ScopeTanakh, nil
	}
	if name, ok := strings.CutPrefix(string(sc), parashaPrefix); ok {
		p, err := LookupParasha(name)
		if err != nil {
			return "", err
		}
		return ParashaScope(p), nil
	}
	for _, known := range Scopes {
		if sc == known {
			return sc, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidScope, fmt.Sprintf("unknown scope %q", s), nil).
		WithSuggestion("Use one of: current, torah, nevim, ketuvim, tanakh, parasha:<name>")
}

// ResolveScope returns the books a scope covers, in canonical order.
// currentBook is consulted only for ScopeCurrent.
func ResolveScope(scope Scope, currentBook string) ([]Book, error) {
	switch scope {
	case ScopeCurrent:
		b, err := LookupBook(currentBook)
		if err != nil {
			return nil, err
		}
		return []Book{b}, nil
	case ScopeTorah:
		return BooksInSection(Torah), nil
	case ScopeNevim:
		return BooksInSection(Nevim), nil
	case ScopeKetuvim:
		return BooksInSection(Ketuvim), nil
	case ScopeTanakh, "":
		return append([]Book(nil), Books...), nil
	default:
		if p, ok := scope.Parasha(); ok {
			b, err := LookupBook(p.Range.BookID)
			if err != nil {
				return nil, err
			}
			return []Book{b}, nil
		}
		_, err := ParseScope(string(scope))
		return nil, err
	}
}
