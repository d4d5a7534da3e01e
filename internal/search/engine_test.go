package search

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/errors"
	"github.com/noamulm-dev/Tanach100/internal/hebrew"
	"github.com/noamulm-dev/Tanach100/internal/telemetry"
)

// genesisFixture holds the opening verses of Genesis plus a few later books.
func genesisFixture(t *testing.T) *corpus.MemorySource {
	t.Helper()
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1,
		"בְּרֵאשִׁית בָּרָא אֱלֹהִים אֵת הַשָּׁמַיִם וְאֵת הָאָרֶץ׃",
		"וְהָאָרֶץ הָיְתָה תֹהוּ וָבֹהוּ וְחֹשֶׁךְ עַל־פְּנֵי תְהוֹם וְרוּחַ אֱלֹהִים מְרַחֶפֶת עַל־פְּנֵי הַמָּיִם׃",
		gen1v3,
		"וַיַּרְא אֱלֹהִים אֶת־הָאוֹר כִּי־טוֹב וַיַּבְדֵּל אֱלֹהִים בֵּין הָאוֹר וּבֵין הַחֹשֶׁךְ׃",
	))
	require.NoError(t, src.Add("Genesis", 1, gen1v14))
	require.NoError(t, src.Add("Exodus", 6, "וַיְדַבֵּר יְהוָה אֶל־מֹשֶׁה וְאֶל־אַהֲרֹן"))
	require.NoError(t, src.Add("Psalms", 27, "לְדָוִד יְהוָה אוֹרִי וְיִשְׁעִי"))
	return src
}

func newTestEngine(t *testing.T, src corpus.Source, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(src, opts...)
	require.NoError(t, err)
	return e
}

func search(t *testing.T, e *Engine, req Request) *Response {
	t.Helper()
	resp, err := e.Search(context.Background(), req, nil)
	require.NoError(t, err)
	return resp
}

func refs(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = corpus.Verse{BookID: r.BookID, Chapter: r.Chapter, Number: r.Verse}.Ref()
	}
	return out
}

func TestNewEngine_NilSource(t *testing.T) {
	_, err := NewEngine(nil)
	assert.ErrorIs(t, err, ErrNilDependency)
}

func TestEngine_LiteralAcrossCorpus(t *testing.T) {
	// Given: the full-corpus scope
	e := newTestEngine(t, genesisFixture(t))

	// When: searching a bare word
	resp := search(t, e, Request{Query: "אור", Scope: corpus.ScopeTanakh})

	// Then: Genesis 1:3 is found, and substrings in later books too
	assert.True(t, resp.LiteralModeEligible)
	assert.Contains(t, refs(resp.Results), "Genesis 1:3")
	assert.Contains(t, refs(resp.Results), "Psalms 27:1")
	assert.False(t, resp.Truncated)
	assert.Positive(t, resp.Letters)
}

func TestEngine_WholeWord(t *testing.T) {
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, gen1v14, gen1v3))
	e := newTestEngine(t, src)

	// When: searching the same word with and without word boundaries
	loose := search(t, e, Request{Query: "אור", Scope: corpus.ScopeTorah})
	strict := search(t, e, Request{Query: "אור", Scope: corpus.ScopeTorah, WholeWord: true})

	// Then: the verse containing only מאורות drops out
	assert.Contains(t, refs(loose.Results), "Genesis 1:1")
	assert.NotContains(t, refs(strict.Results), "Genesis 1:1")
	assert.Equal(t, []string{"Genesis 1:2", "Genesis 1:2"}, refs(strict.Results))
}

func TestEngine_ParashaScope(t *testing.T) {
	// Given: Genesis 6 where every verse holds the word, the portion boundary sitting at 6:9
	src := corpus.NewMemorySource()
	verses := make([]string, 9)
	for i := range verses {
		verses[i] = "יהי אור"
	}
	require.NoError(t, src.Add("Genesis", 6, verses...))
	require.NoError(t, src.Add("Exodus", 1, "יהי אור"))
	e := newTestEngine(t, src)
	scope, err := corpus.ParseScope("parasha:noach")
	require.NoError(t, err)

	// When: searching within Noach
	resp := search(t, e, Request{Query: "אור", Scope: scope})

	// Then: only the verse inside the portion matches, and its letters start at 0
	assert.Equal(t, []string{"Genesis 6:9"}, refs(resp.Results))
	assert.Equal(t, 6, resp.Letters)

	// And: the whole book sees every verse
	all := search(t, e, Request{Query: "אור", Scope: corpus.ScopeTorah})
	assert.Len(t, all.Results, 10)
}

func TestEngine_SingleELSHit(t *testing.T) {
	// Given: a synthetic book where ילד recurs at skip 7 exactly once
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Ruth", 1, plant(12, "י", 5, 7), plant(12, "לד", 0, 7)))
	e := newTestEngine(t, src)

	// When: searching for it with skip 7
	resp := search(t, e, Request{Query: "ילד, 7", Scope: corpus.ScopeCurrent, CurrentBook: "Ruth"})

	// Then: exactly one result with three components seven apart
	assert.False(t, resp.LiteralModeEligible)
	require.Len(t, resp.Results, 1)
	r := resp.Results[0]
	assert.Equal(t, 7, abs(r.ELSSkip))
	require.Len(t, r.ELSComponents, 3)
	pos := streamPositions(r)
	assert.Equal(t, []int{5, 12, 19}, pos)
	assert.Equal(t, "Ruth 1:1", refs(resp.Results)[0])
	assert.Equal(t, 2, r.ELSComponents[2].Verse)
}

func TestEngine_MixedQuery(t *testing.T) {
	// Given: a verse naming both words, with משה also planted at skip 7
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Exodus", 6,
		"וַיְדַבֵּר יְהוָה אֶל־מֹשֶׁה וְאֶל־אַהֲרֹן",
		plant(30, "משה", 2, 7),
	))
	e := newTestEngine(t, src)

	// When: mixing words with a unit skip and a larger skip
	resp := search(t, e, Request{Query: "משה, אהרן, 1, 7", Scope: corpus.ScopeTorah})

	// Then: literal and ELS hits are both present
	assert.True(t, resp.LiteralModeEligible)
	var literal, els int
	for _, r := range resp.Results {
		if r.IsELS() {
			els++
		} else {
			literal++
		}
	}
	assert.Equal(t, 2, literal)
	assert.Equal(t, 1, els)
	assertSorted(t, resp.Results)
}

func TestEngine_RangeExpandsBothDirections(t *testing.T) {
	// Given: one forward hit at 49 and one backward hit at 50
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, plant(120, "אב", 0, 49)))
	require.NoError(t, src.Add("Genesis", 2, plant(120, "בא", 1, 50)))
	e := newTestEngine(t, src)

	both := search(t, e, Request{Query: "אב, 48-51", Scope: corpus.ScopeTorah})
	forward := search(t, e, Request{Query: "+אב, 48-51", Scope: corpus.ScopeTorah})

	var skips []int
	for _, r := range both.Results {
		skips = append(skips, r.ELSSkip)
	}
	assert.ElementsMatch(t, []int{49, -50}, skips)
	require.Len(t, forward.Results, 1)
	assert.Equal(t, 49, forward.Results[0].ELSSkip)
}

func TestEngine_PalindromeReportedOnce(t *testing.T) {
	// Given: a palindrome found by both mirrored skips on the same letters
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, plant(20, "אבא", 1, 3)))
	e := newTestEngine(t, src)

	resp := search(t, e, Request{Query: "אבא, 3", Scope: corpus.ScopeTorah})

	require.Len(t, resp.Results, 1)
	assert.Equal(t, 3, resp.Results[0].ELSSkip)
}

func TestEngine_ShortWordsOnlyInLiteral(t *testing.T) {
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, "א ב א ב א ב"))
	e := newTestEngine(t, src)

	lit := search(t, e, Request{Query: "א, 1", Scope: corpus.ScopeTorah})
	assert.Len(t, lit.Results, 3)

	els := search(t, e, Request{Query: "א, 2", Scope: corpus.ScopeTorah})
	assert.Empty(t, els.Results)
	assert.False(t, els.LiteralModeEligible)
}

func TestEngine_EmptyQuery(t *testing.T) {
	e := newTestEngine(t, corpus.Failing(stderrors.New("must not be called")))

	for _, q := range []string{"", "   ", "7", " , "} {
		resp, err := e.Search(context.Background(), Request{Query: q}, nil)
		require.NoError(t, err, "query %q", q)
		assert.Empty(t, resp.Results)
		assert.NotNil(t, resp.Results)
		assert.False(t, resp.LiteralModeEligible)
	}
}

func TestEngine_Idempotent(t *testing.T) {
	e := newTestEngine(t, genesisFixture(t), WithWorkers(8))
	req := Request{Query: "אלהים, הארץ, 1, 2-6", Scope: corpus.ScopeTanakh}

	first := search(t, e, req)
	require.NotEmpty(t, first.Results)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first.Results, search(t, e, req).Results)
	}
}

func TestEngine_Properties(t *testing.T) {
	src := genesisFixture(t)
	e := newTestEngine(t, src, WithWorkers(3))
	resp := search(t, e, Request{Query: "אלהים, אור, את, 1, 2-9", Scope: corpus.ScopeTanakh})
	require.NotEmpty(t, resp.Results)

	assertSorted(t, resp.Results)

	seen := map[positionKey]bool{}
	for _, r := range resp.Results {
		k := keyOf(r)
		assert.False(t, seen[k], "duplicate position set at %v", k)
		seen[k] = true

		pos := streamPositions(r)
		if r.IsELS() {
			for i := 1; i < len(pos); i++ {
				assert.Equal(t, abs(r.ELSSkip), pos[i]-pos[i-1])
			}
			continue
		}

		// Literal components spell the stripped term.
		verseLetters := []rune(hebrew.StripNonLetters(r.Text))
		var spelled []rune
		for _, c := range r.ELSComponents {
			spelled = append(spelled, verseLetters[c.LetterIdx])
		}
		assert.Equal(t, hebrew.StripNonLetters(r.Term), string(spelled))
	}
}

func TestEngine_OccurrenceIndexPerVerse(t *testing.T) {
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, gen1v3))
	e := newTestEngine(t, src)

	resp := search(t, e, Request{Query: "אור", Scope: corpus.ScopeTorah})
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 0, resp.Results[0].OccurrenceIndex)
	assert.Equal(t, 1, resp.Results[1].OccurrenceIndex)
}

func TestEngine_OccurrenceIndexAcrossModes(t *testing.T) {
	// Given: a verse where אב is both a literal hit and a skip-2 sequence
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, "אב גאדב"))
	e := newTestEngine(t, src)

	// When: mixing a unit skip with skip 2
	resp := search(t, e, Request{Query: "אב, 1, 2", Scope: corpus.ScopeTorah})

	// Then: hits in the verse are numbered 0..n-1 in result order
	require.GreaterOrEqual(t, len(resp.Results), 2)
	var literal, els int
	for i, r := range resp.Results {
		assert.Equal(t, "Genesis 1:1", refs(resp.Results)[i])
		assert.Equal(t, i, r.OccurrenceIndex)
		if r.IsELS() {
			els++
		} else {
			literal++
		}
	}
	assert.Positive(t, literal)
	assert.Positive(t, els)
}

func TestEngine_PresentationFormQuery(t *testing.T) {
	// Given: stored text with a decomposed alef-patah
	src := corpus.NewMemorySource()
	require.NoError(t, src.Add("Genesis", 1, "\u05D0\u05B7\u05D5\u05E8 גדול"))
	e := newTestEngine(t, src)

	// When: the query spells the same letter as a precomposed presentation form
	resp := search(t, e, Request{Query: "\uFB2Eור", Scope: corpus.ScopeTorah})

	// Then: it matches the stored word
	require.Len(t, resp.Results, 1)
	assert.Len(t, resp.Results[0].ELSComponents, 3)
}

func TestEngine_MaxResults(t *testing.T) {
	e := newTestEngine(t, genesisFixture(t), WithMaxResults(2))

	resp := search(t, e, Request{Query: "אלהים", Scope: corpus.ScopeTanakh})

	assert.Len(t, resp.Results, 2)
	assert.True(t, resp.Truncated)
}

func TestEngine_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("corpus failure", func(t *testing.T) {
		e := newTestEngine(t, corpus.Failing(stderrors.New("disk gone")))
		_, err := e.Search(ctx, Request{Query: "אור"}, nil)
		assert.ErrorIs(t, err, errors.ErrCorpusUnavailable)
		assert.False(t, errors.IsAborted(err))
	})

	t.Run("unknown current book", func(t *testing.T) {
		e := newTestEngine(t, corpus.NewMemorySource())
		_, err := e.Search(ctx, Request{Query: "אור", Scope: corpus.ScopeCurrent, CurrentBook: "Tobit"}, nil)
		assert.ErrorIs(t, err, errors.ErrUnknownBook)
	})

	t.Run("too many skips", func(t *testing.T) {
		e := newTestEngine(t, corpus.NewMemorySource(), WithMaxSkipValues(10))
		_, err := e.Search(ctx, Request{Query: "אב, 2-50"}, nil)
		assert.Equal(t, errors.ErrCodeTooManySkips, errors.GetCode(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		e := newTestEngine(t, genesisFixture(t))
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		resp, err := e.Search(cctx, Request{Query: "אור, 2-9"}, nil)
		assert.Nil(t, resp)
		assert.True(t, errors.IsAborted(err))
	})
}

func TestEngine_ProgressMonotonic(t *testing.T) {
	e := newTestEngine(t, genesisFixture(t), WithWorkers(4))

	var mu sync.Mutex
	var seen []int
	_, err := e.Search(context.Background(), Request{Query: "אלהים, ארץ, 1, 3"}, func(pct int) {
		mu.Lock()
		seen = append(seen, pct)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, 100, seen[len(seen)-1])
	assert.Contains(t, seen, loadDonePct)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
}

func TestEngine_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := telemetry.NewSearchMetrics(telemetry.Config{Registerer: reg})
	require.NoError(t, err)
	e := newTestEngine(t, genesisFixture(t), WithMetrics(metrics))

	search(t, e, Request{Query: "אור"})
	search(t, e, Request{Query: "אור, 1, 5"})
	_, _ = e.Search(context.Background(), Request{Query: "אור", Scope: corpus.ScopeCurrent, CurrentBook: "Tobit"}, nil)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(2), snap.TotalSearches)
	assert.Equal(t, int64(1), snap.ModeCounts[telemetry.ModeLiteral])
	assert.Equal(t, int64(1), snap.ModeCounts[telemetry.ModeMixed])

	count, err := testutil.GatherAndCount(reg, "tanach_searches_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func assertSorted(t *testing.T, results []Result) {
	t.Helper()
	for i := 1; i < len(results); i++ {
		assert.False(t, less(results[i], results[i-1]), "results %d and %d out of order", i-1, i)
	}
}
