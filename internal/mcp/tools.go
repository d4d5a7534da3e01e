package mcp

import (
	"github.com/noamulm-dev/Tanach100/internal/corpus"
	"github.com/noamulm-dev/Tanach100/internal/letters"
	"github.com/noamulm-dev/Tanach100/internal/search"
)

// Tool names.
const (
	ToolSearch        = "search"
	ToolLettersWindow = "letters_window"
	ToolLettersNext   = "letters_next"
	ToolLettersPrev   = "letters_prev"
	ToolGematria      = "gematria"
	ToolCorpusStatus  = "corpus_status"
)

// Result limits for the search tool.
const (
	defaultLimit = 50
	maxLimit     = 1000
)

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query     string `json:"query" jsonschema:"Hebrew words or phrase; a term ending in * matches as a prefix"`
	WholeWord bool   `json:"whole_word,omitempty" jsonschema:"match whole words only"`
	Scope     string `json:"scope,omitempty" jsonschema:"current, torah, nevim, ketuvim, tanakh (default) or parasha:<name> for one weekly Torah portion"`
	Book      string `json:"book,omitempty" jsonschema:"book for the current scope, e.g. Genesis"`
	Limit     int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 50"`
}

// SearchOutput defines the output schema for the search tool.
type SearchOutput struct {
	Results             []SearchResultOutput `json:"results" jsonschema:"matches in canonical order"`
	Total               int                  `json:"total" jsonschema:"number of matches before the limit was applied"`
	Letters             int                  `json:"letters" jsonschema:"letters in the searched scope"`
	LiteralModeEligible bool                 `json:"literal_mode_eligible" jsonschema:"true if the query can run as plain text search"`
	Truncated           bool                 `json:"truncated,omitempty" jsonschema:"true if results were cut by the limit or the engine cap"`
}

// SearchResultOutput is one match with its reference and matched letters.
type SearchResultOutput struct {
	Ref        string                  `json:"ref" jsonschema:"reference with Hebrew numerals"`
	BookID     string                  `json:"book_id"`
	Chapter    int                     `json:"chapter"`
	Verse      int                     `json:"verse"`
	Text       string                  `json:"text" jsonschema:"verse text of the first matched letter"`
	Kind       string                  `json:"kind" jsonschema:"literal or els"`
	Skip       int                     `json:"skip" jsonschema:"ELS skip; 1 for literal matches"`
	Term       string                  `json:"term,omitempty" jsonschema:"query term this ELS spells"`
	Occurrence int                     `json:"occurrence" jsonschema:"ordinal among matches in this verse"`
	Components []search.MatchComponent `json:"components" jsonschema:"matched letter positions"`
}

// LettersWindowInput defines the input schema for the letters_window tool.
type LettersWindowInput struct {
	Book      string `json:"book" jsonschema:"book id, e.g. Genesis"`
	Chapter   int    `json:"chapter" jsonschema:"chapter number"`
	Verse     int    `json:"verse,omitempty" jsonschema:"verse number of the anchor letter"`
	LetterIdx int    `json:"letter_idx,omitempty" jsonschema:"zero-based letter index within the verse"`
	Size      int    `json:"size,omitempty" jsonschema:"number of letters to return"`
	Offset    bool   `json:"with_offset,omitempty" jsonschema:"also return the corpus-wide position of the first letter"`
}

// LettersPageInput defines the input schema for letters_next and letters_prev.
type LettersPageInput struct {
	Book      string `json:"book" jsonschema:"book id of the boundary letter"`
	Chapter   int    `json:"chapter" jsonschema:"chapter of the boundary letter"`
	Verse     int    `json:"verse" jsonschema:"verse of the boundary letter"`
	LetterIdx int    `json:"letter_idx" jsonschema:"letter index of the boundary letter"`
	Count     int    `json:"count,omitempty" jsonschema:"number of letters to return"`
}

func (in LettersPageInput) record() letters.Record {
	return letters.Record{BookID: in.Book, Chapter: in.Chapter, Verse: in.Verse, LetterIdx: in.LetterIdx}
}

// LettersOutput defines the output schema for the letter tools.
type LettersOutput struct {
	Letters      []LetterOutput `json:"letters" jsonschema:"letters in stream order"`
	Text         string         `json:"text" jsonschema:"the letters joined"`
	GlobalOffset *int           `json:"global_offset,omitempty" jsonschema:"letters in the corpus before the first returned letter"`
}

// LetterOutput is one letter with its position.
type LetterOutput struct {
	Letter    string `json:"letter"`
	BookID    string `json:"book_id"`
	Chapter   int    `json:"chapter"`
	Verse     int    `json:"verse"`
	LetterIdx int    `json:"letter_idx"`
}

func toLettersOutput(records []letters.Record) LettersOutput {
	out := LettersOutput{Letters: make([]LetterOutput, 0, len(records))}
	text := make([]rune, 0, len(records))
	for _, r := range records {
		out.Letters = append(out.Letters, LetterOutput{
			Letter:    string(r.Letter),
			BookID:    r.BookID,
			Chapter:   r.Chapter,
			Verse:     r.Verse,
			LetterIdx: r.LetterIdx,
		})
		text = append(text, r.Letter)
	}
	out.Text = string(text)
	return out
}

// GematriaInput defines the input schema for the gematria tool.
type GematriaInput struct {
	Text    string   `json:"text" jsonschema:"Hebrew text"`
	Methods []string `json:"methods,omitempty" jsonschema:"methods to compute; all when empty"`
}

// GematriaOutput defines the output schema for the gematria tool.
type GematriaOutput struct {
	Text   string          `json:"text"`
	Values []GematriaValue `json:"values"`
}

// GematriaValue is the value of the text under one method.
type GematriaValue struct {
	Method   string `json:"method"`
	Value    int    `json:"value"`
	Numerals string `json:"numerals" jsonschema:"value written in Hebrew numerals"`
}

// CorpusStatusInput defines the input schema for the corpus_status tool (no parameters).
type CorpusStatusInput struct{}

// CorpusStatusOutput defines the output schema for the corpus_status tool.
type CorpusStatusOutput struct {
	Path   string        `json:"path"`
	Status corpus.Status `json:"status"`
}
