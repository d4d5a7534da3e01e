package corpus

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tanacherrors "github.com/noamulm-dev/Tanach100/internal/errors"
)

func TestCleanVerseText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "בראשית ברא", "בראשית ברא"},
		{"markup and entities", "<b>בראשית</b>&nbsp;ברא", "בראשית ברא"},
		{"editorial note", "ויאמר {פ} אלהים", "ויאמר אלהים"},
		{"maqaf becomes space", "וַיְהִי־אוֹר", "וַיְהִי אוֹר"},
		{"cantillation removed, nikud kept", "בְּרֵאשִׁ֖ית", "בְּרֵאשִׁית"},
		{"sof pasuq kept", "הָאָֽרֶץ׃", "הָאָרֶץ׃"},
		{"latin dropped", "abc אור 12", "אור"},
		{"whitespace collapsed", "  אור \t  גדול ", "אור גדול"},
		{"presentation forms folded", "\uFB2E\u05D5\u05B9\u05E8", "\u05D0\u05B7\u05D5\u05B9\u05E8"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanVerseText(tt.in))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	f, err := DetectFormat("tanakh.TSV")
	require.NoError(t, err)
	assert.Equal(t, FormatTSV, f)

	f, err = DetectFormat("Genesis.json")
	require.NoError(t, err)
	assert.Equal(t, FormatSefaria, f)

	_, err = DetectFormat("genesis.xml")
	assert.Error(t, err)
}

func TestImporter_ImportTSV(t *testing.T) {
	// Given: a TSV with a comment, a bad line, and verses out of order
	input := strings.Join([]string{
		"# book\tchapter\tverse\ttext",
		"Genesis\t1\t2\tוְהָאָרֶץ הָיְתָה",
		"Genesis\t1\t1\tבְּרֵאשִׁית בָּרָא",
		"Exodus\t1\t1\tוְאֵלֶּה שְׁמוֹת",
		"Genesis\tone\t1\tbad",
		"Narnia\t1\t1\tbad",
		"",
	}, "\n")
	s := openTestStore(t)
	ctx := context.Background()

	// When: importing
	stats, err := NewImporter(s).ImportTSV(ctx, strings.NewReader(input))

	// Then: good lines are stored in verse order
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Books)
	assert.Equal(t, 2, stats.Chapters)
	assert.Equal(t, 3, stats.Verses)
	assert.Equal(t, 2, stats.Skipped)

	verses, err := s.FetchChapter(ctx, "Genesis", 1)
	require.NoError(t, err)
	require.Len(t, verses, 2)
	assert.Equal(t, "בְּרֵאשִׁית בָּרָא", verses[0].Text)
}

func TestImporter_ImportSefaria(t *testing.T) {
	input := `{"title": "Obadiah", "he": [["חֲזוֹן עֹבַדְיָה", ["כֹּה־אָמַר", "<i>שְׁמוּעָה</i>"]]]}`
	s := openTestStore(t)
	ctx := context.Background()

	stats, err := NewImporter(s).ImportSefaria(ctx, strings.NewReader(input), "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Chapters)
	assert.Equal(t, 3, stats.Verses)

	verses, err := s.FetchChapter(ctx, "Obadiah", 1)
	require.NoError(t, err)
	require.Len(t, verses, 3)
	assert.Equal(t, "כֹּה אָמַר", verses[1].Text)
	assert.Equal(t, "שְׁמוּעָה", verses[2].Text)
}

func TestImporter_ImportSefariaUnknownTitle(t *testing.T) {
	s := openTestStore(t)
	_, err := NewImporter(s).ImportSefaria(context.Background(), strings.NewReader(`{"title":"Tobit","he":[]}`), "")
	assert.ErrorIs(t, err, tanacherrors.ErrUnknownBook)
}

func TestImporter_ImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ruth.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Ruth\t1\t1\tוַיְהִי בִּימֵי\n"), 0o644))

	s := openTestStore(t)
	ctx := context.Background()
	stats, err := NewImporter(s).ImportFile(ctx, path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Verses)

	src, err := s.Meta(ctx, "source")
	require.NoError(t, err)
	assert.Equal(t, "ruth.tsv", src)
}

func TestImporter_ImportFileLocked(t *testing.T) {
	// Given: another holder of the corpus lock
	s := openTestStore(t)
	other := NewFileLock(s.Path())
	acquired, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer other.Unlock()

	path := filepath.Join(t.TempDir(), "ruth.tsv")
	require.NoError(t, os.WriteFile(path, []byte("Ruth\t1\t1\tא\n"), 0o644))

	// When: importing
	_, err = NewImporter(s).ImportFile(context.Background(), path, FormatTSV)

	// Then: the import is refused
	require.Error(t, err)
	assert.Equal(t, tanacherrors.ErrCodeCorpusLocked, tanacherrors.GetCode(err))
}
