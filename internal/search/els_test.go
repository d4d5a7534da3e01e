package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/letters"
)

// streamOf lays out texts as consecutive verses of Genesis 1.
func streamOf(texts ...string) *letters.Stream {
	var s letters.Stream
	for i, text := range texts {
		s.AppendVerse(corpus.Verse{BookID: "Genesis", Chapter: 1, Number: i + 1, Text: text})
	}
	return &s
}

// plant writes word into a filler string at start, start+skip, ...
func plant(length int, word string, start, skip int) string {
	buf := []rune(strings.Repeat("ש", length))
	for k, r := range []rune(word) {
		buf[start+k*skip] = r
	}
	return string(buf)
}

func TestELSWords(t *testing.T) {
	words := elsWords([]string{"בראשית ברא", "א", "מלך"})

	require.Len(t, words, 3)
	assert.Equal(t, "בראשית", words[0].text)
	assert.Equal(t, "ברא", words[1].text)
	assert.Equal(t, 2, words[2].index)
	assert.Equal(t, []rune("מלכ"), words[2].letters)
}

func TestELSMatcher_ForwardHit(t *testing.T) {
	// Given: ילד planted at skip 7
	stream := streamOf(plant(30, "ילד", 3, 7))
	m := newELSMatcher(stream, elsWords([]string{"ילד"}), []int{7, -7}, 1)

	// When: scanning
	got, err := m.match(context.Background())

	// Then: one hit with evenly spaced components
	require.NoError(t, err)
	require.Len(t, got, 1)
	r := got[0]
	assert.Equal(t, 7, r.ELSSkip)
	require.Len(t, r.ELSComponents, 3)
	assert.Equal(t, []int{3, 10, 17}, streamPositions(r))
	assert.Equal(t, 3, r.FirstLetterIdx())
}

func TestELSMatcher_BackwardHitAnchorsAtLowestPosition(t *testing.T) {
	// Given: ילד reading backwards, so ד sits lowest
	stream := streamOf(plant(30, "דלי", 2, 5))
	m := newELSMatcher(stream, elsWords([]string{"ילד"}), []int{5, -5}, 1)

	got, err := m.match(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	r := got[0]
	assert.Equal(t, -5, r.ELSSkip)
	assert.Equal(t, []int{2, 7, 12}, streamPositions(r))
	assert.Equal(t, 2, r.FirstLetterIdx())
}

func TestELSMatcher_FinalFormsFold(t *testing.T) {
	// Given: the text spells the word with a medial letter, the query with a final one
	stream := streamOf(plant(20, "מלכ", 0, 4))
	m := newELSMatcher(stream, elsWords([]string{"מלך"}), []int{4}, 1)

	got, err := m.match(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestELSMatcher_CrossesVerseBoundaries(t *testing.T) {
	// Given: a word spread over three verses
	stream := streamOf("אשש", "שבש", "ששג")
	m := newELSMatcher(stream, elsWords([]string{"אבג"}), []int{4}, 1)

	got, err := m.match(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	// Then: each component keeps its own verse and verse-relative index
	comps := got[0].ELSComponents
	assert.Equal(t, []int{1, 2, 3}, []int{comps[0].Verse, comps[1].Verse, comps[2].Verse})
	assert.Equal(t, []int{0, 1, 2}, []int{comps[0].LetterIdx, comps[1].LetterIdx, comps[2].LetterIdx})
	assert.Equal(t, "אשש", got[0].Text)
}

func TestELSMatcher_OutOfRangeSkip(t *testing.T) {
	stream := streamOf("אבג")
	m := newELSMatcher(stream, elsWords([]string{"אב"}), []int{5, -5}, 1)

	got, err := m.match(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestELSMatcher_GroupIDs(t *testing.T) {
	stream := streamOf(plant(40, "אב", 0, 2) + plant(40, "גד", 1, 12))
	m := newELSMatcher(stream, elsWords([]string{"אב", "גד"}), []int{2, 12}, 2)

	got, err := m.match(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, elsGroupID(0, 2), got[0].ELSComponents[0].GroupID)
	assert.Equal(t, elsGroupID(1, 12), got[1].ELSComponents[0].GroupID)

	// Skips with the same last digit share a group for the same word.
	assert.Equal(t, elsGroupID(1, 2), elsGroupID(1, 12))
	assert.Less(t, elsGroupID(7, 9), elsPalette)
}

func TestELSMatcher_Cancelled(t *testing.T) {
	stream := streamOf(strings.Repeat("אב", 5000))
	m := newELSMatcher(stream, elsWords([]string{"אב"}), []int{3}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.match(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestELSMatcher_ComponentsSpaced(t *testing.T) {
	text := strings.Repeat("אבגדהוזחטי", 30)
	stream := streamOf(text)
	skips := []int{2, -2, 3, -3, 10, -10}
	m := newELSMatcher(stream, elsWords([]string{"אג", "בה", "אא"}), skips, 3)

	got, err := m.match(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, r := range got {
		pos := streamPositions(r)
		for k := 1; k < len(pos); k++ {
			assert.Equal(t, abs(r.ELSSkip), pos[k]-pos[k-1])
		}
	}
}

func streamPositions(r Result) []int {
	out := make([]int, len(r.ELSComponents))
	for i, c := range r.ELSComponents {
		out[i] = c.StreamPos
	}
	return out
}
