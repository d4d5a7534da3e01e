package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

func TestParseQuery(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantTerms   []string
		wantSkips   []int
		wantForward bool
	}{
		{"single term", "אור", []string{"אור"}, nil, false},
		{"terms and skips", "משה, אהרן, 1, 7", []string{"משה", "אהרן"}, []int{1, 7}, false},
		{"negative skip", "תורה,-50", []string{"תורה"}, []int{-50}, false},
		{"range", "אלהים, 48-51", []string{"אלהים"}, []int{48, 49, 50, 51}, false},
		{"reversed range", "אלהים, 3-1", []string{"אלהים"}, []int{1, 2, 3}, false},
		{"range across zero drops zero", "אב, -2-2", []string{"אב"}, []int{-2, -1, 1, 2}, false},
		{"zero skip dropped", "אב, 0", []string{"אב"}, nil, false},
		{"forward marker anywhere", "יש+ראל, 5", []string{"ישראל"}, []int{5}, true},
		{"empty tokens skipped", " , אור ,, ", []string{"אור"}, nil, false},
		{"multi-word term kept whole", "בראשית ברא, 3", []string{"בראשית ברא"}, []int{3}, false},
		{"presentation form folded", "\uFB2Eור, 2", []string{"\u05D0\u05B7ור"}, []int{2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseQuery(tt.raw, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTerms, q.Terms)
			assert.Equal(t, tt.wantSkips, q.Skips)
			assert.Equal(t, tt.wantForward, q.ForwardOnly)
		})
	}
}

func TestParseQuery_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", ",,", " + "} {
		q, err := ParseQuery(raw, 0)
		require.NoError(t, err)
		assert.True(t, q.IsEmpty(), "query %q", raw)
		assert.False(t, q.LiteralEligible())
		assert.False(t, q.ELSEligible())
	}
}

func TestParseQuery_TooManySkips(t *testing.T) {
	_, err := ParseQuery("אב, 2-200", 100)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTooManySkips, errors.GetCode(err))

	_, err = ParseQuery("אב, 2-101", 100)
	assert.NoError(t, err)
}

func TestParseQuery_Overflow(t *testing.T) {
	_, err := ParseQuery("אב, 99999999999999999999", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)

	_, err = ParseQuery("אב, 1-99999999999999999999", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidQuery)
}

func TestQuery_Dispatch(t *testing.T) {
	tests := []struct {
		raw         string
		wantLiteral bool
		wantELS     bool
	}{
		{"אור", true, false},
		{"אור, 1", true, false},
		{"אור, -1", true, false},
		{"אור, 7", false, true},
		{"משה, אהרן, 1, 7", true, true},
		{"7", false, false},
		{"1, 7", false, false},
		{"אור, 0", true, false},
		{"אור, -1-1", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			q, err := ParseQuery(tt.raw, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLiteral, q.LiteralEligible())
			assert.Equal(t, tt.wantELS, q.ELSEligible())
		})
	}
}

func TestQuery_ELSSkips(t *testing.T) {
	// Given: a range and no forward marker
	q, err := ParseQuery("אלהים, 48-51", 0)
	require.NoError(t, err)

	// Then: every magnitude is mirrored
	assert.Equal(t, []int{48, -48, 49, -49, 50, -50, 51, -51}, q.ELSSkips())

	// And: the forward marker keeps positive skips only
	q, err = ParseQuery("+אלהים, 48-51, -50", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{48, 49, 50, 51}, q.ELSSkips())

	// And: +1 and -1 never reach the skip-sequence matcher
	q, err = ParseQuery("אב, -1, 1, 2, -2", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, -2}, q.ELSSkips())
}

func TestQuery_String(t *testing.T) {
	q, err := ParseQuery(" משה ,7,+", 0)
	require.NoError(t, err)
	assert.Equal(t, "+משה, 7", q.String())
}
