package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/letters"
)

func decodeLetters(t *testing.T, raw string) ([]letters.Record, string) {
	t.Helper()
	var records []letters.Record
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	var sb strings.Builder
	for _, r := range records {
		sb.WriteRune(r.Letter)
	}
	return records, sb.String()
}

func TestLettersWindowCmd(t *testing.T) {
	// Given: a seeded corpus
	path := seedCorpus(t, isolate(t))

	// When: reading six letters from Genesis 1:1, letter 6
	stdout, _, err := execute(t, "--corpus", path, "letters", "window", "Genesis", "1", "1", "--index", "6", "--size", "6", "--format", "json")

	// Then: the window crosses into verse 2
	require.NoError(t, err)
	records, text := decodeLetters(t, stdout)
	assert.Equal(t, "בראיהי", text)
	assert.Equal(t, 1, records[0].Verse)
	assert.Equal(t, 2, records[5].Verse)
}

func TestLettersWindowCmd_HebrewBookAndDefaults(t *testing.T) {
	path := seedCorpus(t, isolate(t))

	stdout, _, err := execute(t, "--corpus", path, "letters", "window", "בראשית", "1", "--format", "json")

	require.NoError(t, err)
	_, text := decodeLetters(t, stdout)
	assert.Equal(t, "בראשיתבראיהיאוראורגדול", text)
}

func TestLettersWindowCmd_Text(t *testing.T) {
	path := seedCorpus(t, isolate(t))

	stdout, _, err := execute(t, "--corpus", path, "letters", "window", "Genesis", "1", "1", "--size", "3")

	require.NoError(t, err)
	assert.Contains(t, stdout, "ברא")
	assert.Contains(t, stdout, "3 letters")
}

func TestLettersNextCmd_CrossesBooks(t *testing.T) {
	path := seedCorpus(t, isolate(t))

	// Genesis 1:2 is יהיאור; index 3 is its alef.
	stdout, _, err := execute(t, "--corpus", path, "letters", "next", "Genesis", "1", "2", "--index", "3", "--count", "3", "--format", "json")

	require.NoError(t, err)
	records, text := decodeLetters(t, stdout)
	assert.Equal(t, "ורא", text)
	assert.Equal(t, "Exodus", records[2].BookID)
}

func TestLettersPrevCmd(t *testing.T) {
	path := seedCorpus(t, isolate(t))

	stdout, _, err := execute(t, "--corpus", path, "letters", "prev", "Exodus", "1", "1", "--count", "2", "--format", "json")

	require.NoError(t, err)
	_, text := decodeLetters(t, stdout)
	assert.Equal(t, "ור", text)
}

func TestLettersPrevCmd_CorpusHead(t *testing.T) {
	path := seedCorpus(t, isolate(t))

	stdout, _, err := execute(t, "--corpus", path, "letters", "prev", "Genesis", "1", "1", "--format", "json")

	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestLettersCmd_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"window too large", []string{"window", "Genesis", "1", "--size", "20000"}, errors.ErrCodeWindowTooLarge},
		{"unknown book", []string{"window", "Maccabees", "1"}, errors.ErrCodeUnknownBook},
		{"bad chapter", []string{"window", "Genesis", "one"}, errors.ErrCodeInvalidInput},
		{"bad verse", []string{"next", "Genesis", "1", "0"}, errors.ErrCodeInvalidInput},
		{"negative index", []string{"next", "Genesis", "1", "1", "--index=-1"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := seedCorpus(t, isolate(t))

			_, _, err := execute(t, append([]string{"--corpus", path, "letters"}, tt.args...)...)

			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}
}

func TestLettersOffsetCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"corpus head", []string{"Genesis", "1"}, 0},
		{"inside Genesis 1:2", []string{"Genesis", "1", "2", "--index", "2"}, 11},
		{"first letter of Exodus", []string{"שמות", "1", "1"}, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a seeded corpus with 15 letters in Genesis
			path := seedCorpus(t, isolate(t))

			// When: asking for the stream position
			args := append([]string{"--corpus", path, "letters", "offset"}, tt.args...)
			stdout, _, err := execute(t, append(args, "--format", "json")...)

			// Then: every earlier letter is counted
			require.NoError(t, err)
			var report struct {
				Book         string `json:"book"`
				GlobalOffset int    `json:"global_offset"`
			}
			require.NoError(t, json.Unmarshal([]byte(stdout), &report))
			assert.Equal(t, tt.want, report.GlobalOffset)
			assert.NotEmpty(t, report.Book)
		})
	}
}

func TestLettersOffsetCmd_Text(t *testing.T) {
	path := seedCorpus(t, isolate(t))

	stdout, _, err := execute(t, "--corpus", path, "letters", "offset", "Exodus", "1", "1", "--index", "1")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Exodus 1:1 letter 1: offset 16")
}
