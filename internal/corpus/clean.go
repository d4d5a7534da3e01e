package corpus

import (
	"regexp"
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/hebrew"
)

var (
	entityRe      = regexp.MustCompile(`&(nbsp|lt|gt|amp|thinsp);`)
	tagRe         = regexp.MustCompile(`<[^>]*>`)
	bracketNoteRe = regexp.MustCompile(`[(\[{][^)\]}]*[)\]}]`)
	// Cantillation, meteg, rafe, paseq, upper/lower dots and nun hafukha.
	accentRe = regexp.MustCompile(`[\x{0591}-\x{05AF}\x{05BD}\x{05BF}\x{05C0}\x{05C4}\x{05C5}\x{05C6}]`)
	// Maqaf and ASCII or general punctuation become word breaks.
	breakRe = regexp.MustCompile(`[\x{05BE}\-.,:;!?|\x{2010}-\x{2027}]`)
	// Everything but letters, vowel points, shin/sin dots, sof pasuq, qamats qatan and space.
	residueRe = regexp.MustCompile(`[^\x{05D0}-\x{05EA}\x{05B0}-\x{05BC}\x{05C1}\x{05C2}\x{05C3}\x{05C7}\s]`)
)

// CleanVerseText turns raw source text (HTML-ish markup, cantillation, editorial
// notes) into the stored verse form: letters with vowel points, single spaces.
func CleanVerseText(raw string) string {
	if raw == "" {
		return ""
	}
	s := entityRe.ReplaceAllStringFunc(hebrew.FoldPresentationForms(raw), func(m string) string {
		if m == "&nbsp;" || m == "&thinsp;" {
			return " "
		}
		return ""
	})
	s = tagRe.ReplaceAllString(s, "")
	s = bracketNoteRe.ReplaceAllString(s, "")
	s = accentRe.ReplaceAllString(s, "")
	s = breakRe.ReplaceAllString(s, " ")
	s = residueRe.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
