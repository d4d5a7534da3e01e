package ui

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
)

func partialStatus() *corpus.Status {
	return &corpus.Status{
		Books: []corpus.BookStatus{
			{BookID: "Genesis", ChaptersPresent: 50, ChaptersTotal: 50, Verses: 1533},
			{BookID: "Exodus", ChaptersPresent: 10, ChaptersTotal: 40, Verses: 300},
			{BookID: "Ruth", ChaptersPresent: 0, ChaptersTotal: 4},
		},
		ChaptersPresent: 60,
		ChaptersTotal:   corpus.TotalChapters,
		Verses:          1833,
	}
}

func TestStatusRenderer_Render(t *testing.T) {
	// Given: a partially imported corpus
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	// When: rendering
	require.NoError(t, r.Render("/data/corpus.db", partialStatus(), false))

	// Then: totals and only the incomplete books are listed
	out := buf.String()
	assert.Contains(t, out, "Corpus: /data/corpus.db")
	assert.Contains(t, out, "Chapters: 60 / 929 (6.5%)")
	assert.Contains(t, out, "Verses:   1833")
	assert.Contains(t, out, "incomplete")
	assert.Contains(t, out, "Exodus  10 /  40")
	assert.Contains(t, out, "Ruth     0 /   4")
	assert.NotContains(t, out, "Genesis")
}

func TestStatusRenderer_RenderVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.Render("c.db", partialStatus(), true))

	assert.Contains(t, buf.String(), "Genesis  50 /  50")
}

func TestStatusRenderer_Complete(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)
	st := &corpus.Status{ChaptersPresent: 929, ChaptersTotal: 929, Complete: true}

	require.NoError(t, r.Render("c.db", st, false))

	assert.Contains(t, buf.String(), "Status:   complete")
	assert.Contains(t, buf.String(), "(100%)")
	assert.NotContains(t, buf.String(), "Incomplete books")
}

func TestStatusRenderer_RenderJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewStatusRenderer(buf, true)

	require.NoError(t, r.RenderJSON(partialStatus()))

	var decoded corpus.Status
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 60, decoded.ChaptersPresent)
	assert.Len(t, decoded.Books, 3)
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, "0%", percentOf(1, 0))
	assert.Equal(t, "50%", percentOf(2, 4))
	assert.Equal(t, "33.3%", percentOf(1, 3))
}
