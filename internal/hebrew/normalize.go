// Package hebrew holds the letter rules shared by every part of the engine:
// which runes are base letters, which are combining marks, how final forms
// fold onto their medial letters, and gematria arithmetic.
//
// Every letter offset in the system is a count of runes for which IsLetter
// is true. Anything that cross-references positions must use StripNonLetters.
package hebrew

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	firstLetter = '\u05D0' // alef
	lastLetter  = '\u05EA' // tav

	// MarkClass is a regexp character class matching one combining mark.
	MarkClass = `[\x{0591}-\x{05BD}\x{05BF}\x{05C1}\x{05C2}\x{05C4}\x{05C5}\x{05C7}]`
)

var finalToMedial = map[rune]rune{
	'ך': 'כ',
	'ם': 'מ',
	'ן': 'נ',
	'ף': 'פ',
	'ץ': 'צ',
}

// Alphabetic presentation forms: letters with built-in points, wide letters
// and the alef-lamed ligature.
var presentationForms = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0xFB1D, Hi: 0xFB4F, Stride: 1}},
}

var foldPresentation = runes.If(runes.In(presentationForms), norm.NFKD, nil)

// IsLetter reports whether r is a base consonant, final forms included.
func IsLetter(r rune) bool {
	return r >= firstLetter && r <= lastLetter
}

// IsMark reports whether r is a Hebrew combining mark (vowel point or cantillation).
// Maqaf, paseq and sof pasuq are punctuation, not marks.
func IsMark(r rune) bool {
	return r >= '\u0591' && r <= '\u05C7' && unicode.Is(unicode.Mn, r)
}

// StripNonLetters keeps only base letters.
func StripNonLetters(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if IsLetter(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// CountLetters returns how many base letters text contains.
func CountLetters(text string) int {
	n := 0
	for _, r := range text {
		if IsLetter(r) {
			n++
		}
	}
	return n
}

// CanonicalizeFinal maps a final form to its medial letter. Other runes pass through.
func CanonicalizeFinal(r rune) rune {
	if m, ok := finalToMedial[r]; ok {
		return m
	}
	return r
}

// CanonicalizeFinals applies CanonicalizeFinal to every rune of text.
func CanonicalizeFinals(text string) string {
	return strings.Map(CanonicalizeFinal, text)
}

// HasMarks reports whether text carries any combining mark.
func HasMarks(text string) bool {
	return strings.IndexFunc(text, IsMark) >= 0
}

// FoldPresentationForms rewrites presentation-form runes (U+FB1D..U+FB4F) as
// base letters followed by their marks. Other runes are left untouched, so the
// order of marks already in text is preserved.
func FoldPresentationForms(text string) string {
	if !strings.ContainsFunc(text, func(r rune) bool { return unicode.Is(presentationForms, r) }) {
		return text
	}
	out, _, err := transform.String(foldPresentation, text)
	if err != nil {
		return text
	}
	return out
}
