package search

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
)

// DefaultMaxSkipValues caps how many skip values one query may expand to.
const DefaultMaxSkipValues = 5000

// forwardOnlyMarker anywhere in a query restricts ELS to positive skips.
const forwardOnlyMarker = "+"

var (
	skipToken  = regexp.MustCompile(`^-?\d+$`)
	rangeToken = regexp.MustCompile(`^(-?\d+)-(-?\d+)$`)
)

// Query is a parsed search string.
type Query struct {
	// Terms are the literal word tokens in query order.
	Terms []string

	// Skips are the non-zero skip values in query order, ranges expanded.
	Skips []int

	// ForwardOnly is set when the query carried the forward-only marker.
	ForwardOnly bool
}

// ParseQuery tokenizes raw. maxSkipValues <= 0 means DefaultMaxSkipValues.
// An empty or whitespace-only query parses to the zero Query.
func ParseQuery(raw string, maxSkipValues int) (Query, error) {
	if maxSkipValues <= 0 {
		maxSkipValues = DefaultMaxSkipValues
	}

	var q Query
	if strings.Contains(raw, forwardOnlyMarker) {
		q.ForwardOnly = true
		raw = strings.ReplaceAll(raw, forwardOnlyMarker, "")
	}

	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		switch {
		case skipToken.MatchString(tok):
			v, err := strconv.Atoi(tok)
			if err != nil {
				return Query{}, errors.QueryError(fmt.Sprintf("skip value %q out of range", tok)).WithDetail("token", tok)
			}
			if v != 0 {
				q.Skips = append(q.Skips, v)
			}

		case rangeToken.MatchString(tok):
			m := rangeToken.FindStringSubmatch(tok)
			a, errA := strconv.Atoi(m[1])
			b, errB := strconv.Atoi(m[2])
			if errA != nil || errB != nil {
				return Query{}, errors.QueryError(fmt.Sprintf("skip range %q out of range", tok)).WithDetail("token", tok)
			}
			lo, hi := min(a, b), max(a, b)
			if int64(hi)-int64(lo)+1+int64(len(q.Skips)) > int64(maxSkipValues) {
				return Query{}, tooManySkips(maxSkipValues)
			}
			for v := lo; ; v++ {
				if v != 0 {
					q.Skips = append(q.Skips, v)
				}
				if v == hi {
					break
				}
			}

		default:
			q.Terms = append(q.Terms, hebrew.FoldPresentationForms(tok))
		}

		if len(q.Skips) > maxSkipValues {
			return Query{}, tooManySkips(maxSkipValues)
		}
	}
	return q, nil
}

func tooManySkips(limit int) *errors.TanachError {
	return errors.New(errors.ErrCodeTooManySkips,
		fmt.Sprintf("query expands to more than %d skip values", limit), nil).
		WithSuggestion("Narrow the skip range")
}

// IsEmpty reports whether the query has no tokens at all.
func (q Query) IsEmpty() bool {
	return len(q.Terms) == 0 && len(q.Skips) == 0
}

// LiteralEligible reports whether the literal matcher runs: there is a word
// term, and either no skip values or a skip of exactly +1 or -1.
func (q Query) LiteralEligible() bool {
	if len(q.Terms) == 0 {
		return false
	}
	if len(q.Skips) == 0 {
		return true
	}
	return slices.ContainsFunc(q.Skips, func(v int) bool { return v == 1 || v == -1 })
}

// ELSEligible reports whether the skip-sequence matcher runs.
func (q Query) ELSEligible() bool {
	return len(q.Terms) > 0 && len(q.ELSSkips()) > 0
}

// ELSSkips resolves the signed skip set scanned by the ELS matcher. Each
// magnitude above 1 yields +m and, unless ForwardOnly, -m. The result is
// deduplicated and ordered by magnitude, positive first.
func (q Query) ELSSkips() []int {
	seen := make(map[int]bool)
	var out []int
	add := func(v int) {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range q.Skips {
		m := abs(v)
		if m <= 1 {
			continue
		}
		add(m)
		if !q.ForwardOnly {
			add(-m)
		}
	}
	slices.SortFunc(out, func(a, b int) int {
		if abs(a) != abs(b) {
			return abs(a) - abs(b)
		}
		return b - a
	})
	return out
}

// String renders the query in canonical token form.
func (q Query) String() string {
	parts := append([]string(nil), q.Terms...)
	for _, v := range q.Skips {
		parts = append(parts, strconv.Itoa(v))
	}
	s := strings.Join(parts, ", ")
	if q.ForwardOnly {
		s = forwardOnlyMarker + s
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
