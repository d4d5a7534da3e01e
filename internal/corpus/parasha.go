package corpus

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// VerseRef addresses a verse within a book.
type VerseRef struct {
	Chapter int `json:"chapter"`
	Verse   int `json:"verse"`
}

func (r VerseRef) after(o VerseRef) bool {
	return r.Chapter > o.Chapter || (r.Chapter == o.Chapter && r.Verse > o.Verse)
}

// VerseRange is an inclusive span of verses inside one book.
type VerseRange struct {
	BookID string   `json:"book_id"`
	From   VerseRef `json:"from"`
	To     VerseRef `json:"to"`
}

// Contains reports whether v lies inside the range.
func (r VerseRange) Contains(v Verse) bool {
	at := VerseRef{Chapter: v.Chapter, Verse: v.Number}
	return v.BookID == r.BookID && !r.From.after(at) && !at.after(r.To)
}

// Parasha is one weekly Torah portion.
type Parasha struct {
	Name   string     `json:"name"`
	Hebrew string     `json:"hebrew"`
	Range  VerseRange `json:"range"`
}

// ID is the scope-friendly form of the name: lower case, words joined by hyphens.
func (p Parasha) ID() string {
	var sb strings.Builder
	for _, r := range strings.ToLower(p.Name) {
		switch {
		case r == ' ' || r == '-':
			sb.WriteByte('-')
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func portion(name, hebrew, book string, fromCh, fromV, toCh, toV int) Parasha {
	return Parasha{
		Name:   name,
		Hebrew: hebrew,
		Range: VerseRange{
			BookID: book,
			From:   VerseRef{Chapter: fromCh, Verse: fromV},
			To:     VerseRef{Chapter: toCh, Verse: toV},
		},
	}
}

// Parashot lists the 54 weekly portions in reading order.
var Parashot = []Parasha{
	portion("Bereshit", "בראשית", "Genesis", 1, 1, 6, 8),
	portion("Noach", "נח", "Genesis", 6, 9, 11, 32),
	portion("Lech-Lecha", "לך לך", "Genesis", 12, 1, 17, 27),
	portion("Vayera", "וירא", "Genesis", 18, 1, 22, 24),
	portion("Chayei Sara", "חיי שרה", "Genesis", 23, 1, 25, 18),
	portion("Toldot", "תולדות", "Genesis", 25, 19, 28, 9),
	portion("Vayetzei", "ויצא", "Genesis", 28, 10, 32, 3),
	portion("Vayishlach", "וישלח", "Genesis", 32, 4, 36, 43),
	portion("Vayeshev", "וישב", "Genesis", 37, 1, 40, 23),
	portion("Miketz", "מקץ", "Genesis", 41, 1, 44, 17),
	portion("Vayigash", "ויגש", "Genesis", 44, 18, 47, 27),
	portion("Vayechi", "ויחי", "Genesis", 47, 28, 50, 26),

	portion("Shemot", "שמות", "Exodus", 1, 1, 6, 1),
	portion("Vaera", "וארא", "Exodus", 6, 2, 9, 35),
	portion("Bo", "בא", "Exodus", 10, 1, 13, 16),
	portion("Beshalach", "בשלח", "Exodus", 13, 17, 17, 16),
	portion("Yitro", "יתרו", "Exodus", 18, 1, 20, 23),
	portion("Mishpatim", "משפטים", "Exodus", 21, 1, 24, 18),
	portion("Terumah", "תרומה", "Exodus", 25, 1, 27, 19),
	portion("Tetzaveh", "תצוה", "Exodus", 27, 20, 30, 10),
	portion("Ki Tisa", "כי תשא", "Exodus", 30, 11, 34, 35),
	portion("Vayakhel", "ויקהל", "Exodus", 35, 1, 38, 20),
	portion("Pekudei", "פקודי", "Exodus", 38, 21, 40, 38),

	portion("Vayikra", "ויקרא", "Leviticus", 1, 1, 5, 26),
	portion("Tzav", "צו", "Leviticus", 6, 1, 8, 36),
	portion("Shemini", "שמיני", "Leviticus", 9, 1, 11, 47),
	portion("Tazria", "תזריע", "Leviticus", 12, 1, 13, 59),
	portion("Metzora", "מצורע", "Leviticus", 14, 1, 15, 33),
	portion("Acharei Mot", "אחרי מות", "Leviticus", 16, 1, 18, 30),
	portion("Kedoshim", "קדושים", "Leviticus", 19, 1, 20, 27),
	portion("Emor", "אמור", "Leviticus", 21, 1, 24, 23),
	portion("Behar", "בהר", "Leviticus", 25, 1, 26, 2),
	portion("Bechukotai", "בחוקותי", "Leviticus", 26, 3, 27, 34),

	portion("Bamidbar", "במדבר", "Numbers", 1, 1, 4, 20),
	portion("Nasso", "נשא", "Numbers", 4, 21, 7, 89),
	portion("Beha'alotcha", "בהעלותך", "Numbers", 8, 1, 12, 16),
	portion("Sh'lach", "שלח", "Numbers", 13, 1, 15, 41),
	portion("Korach", "קרח", "Numbers", 16, 1, 18, 32),
	portion("Chukat", "חקת", "Numbers", 19, 1, 22, 1),
	portion("Balak", "בלק", "Numbers", 22, 2, 25, 9),
	portion("Pinchas", "פנחס", "Numbers", 25, 10, 30, 1),
	portion("Matot", "מטות", "Numbers", 30, 2, 32, 42),
	portion("Masei", "מסעי", "Numbers", 33, 1, 36, 13),

	portion("Devarim", "דברים", "Deuteronomy", 1, 1, 3, 22),
	portion("Vaetchanan", "ואתחנן", "Deuteronomy", 3, 23, 7, 11),
	portion("Eikev", "עקב", "Deuteronomy", 7, 12, 11, 25),
	portion("Re'eh", "ראה", "Deuteronomy", 11, 26, 16, 17),
	portion("Shoftim", "שופטים", "Deuteronomy", 16, 18, 21, 9),
	portion("Ki Teitzei", "כי תצא", "Deuteronomy", 21, 10, 25, 19),
	portion("Ki Tavo", "כי תבוא", "Deuteronomy", 26, 1, 29, 8),
	portion("Nitzavim", "נצבים", "Deuteronomy", 29, 9, 30, 20),
	portion("Vayeilech", "וילך", "Deuteronomy", 31, 1, 31, 30),
	portion("Ha'Azinu", "האזינו", "Deuteronomy", 32, 1, 32, 52),
	portion("Vezot Haberakhah", "וזאת הברכה", "Deuteronomy", 33, 1, 34, 12),
}

// parashaKey folds case and drops spaces, hyphens, apostrophes and marks,
// so "Lech Lecha", "lech-lecha" and "לך-לך" find the same portion.
func parashaKey(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

var parashaIndex = func() map[string]int {
	m := make(map[string]int, 2*len(Parashot))
	for i, p := range Parashot {
		m[parashaKey(p.Name)] = i
		m[parashaKey(p.Hebrew)] = i
	}
	return m
}()

// LookupParasha finds a portion by English or Hebrew name.
func LookupParasha(name string) (Parasha, error) {
	if i, ok := parashaIndex[parashaKey(name)]; ok {
		return Parashot[i], nil
	}
	return Parasha{}, errors.New(errors.ErrCodeInvalidScope, fmt.Sprintf("unknown parasha %q", name), nil).
		WithDetail("parasha", name).
		WithSuggestion("Use an English name such as Noach or a Hebrew name such as נח")
}
