package corpus

import (
	"strings"

	"github.com/noamulm-dev/Tanach100/internal/errors"
)

// Section is one of the three divisions of the Tanakh.
type Section string

const (
	Torah   Section = "torah"
	Nevim   Section = "nevim"
	Ketuvim Section = "ketuvim"
)

// Book is one entry of the fixed book table.
type Book struct {
	ID         string  `json:"id"`
	HebrewName string  `json:"hebrew_name"`
	Section    Section `json:"section"`
	Chapters   int     `json:"chapters"`
	Order      int     `json:"order"`
}

// TotalChapters is the chapter count of the complete corpus.
const TotalChapters = 929

// Books is the canonical book order. IDs match the Sefaria text names.
var Books = []Book{
	{ID: "Genesis", HebrewName: "בראשית", Section: Torah, Chapters: 50},
	{ID: "Exodus", HebrewName: "שמות", Section: Torah, Chapters: 40},
	{ID: "Leviticus", HebrewName: "ויקרא", Section: Torah, Chapters: 27},
	{ID: "Numbers", HebrewName: "במדבר", Section: Torah, Chapters: 36},
	{ID: "Deuteronomy", HebrewName: "דברים", Section: Torah, Chapters: 34},

	{ID: "Joshua", HebrewName: "יהושע", Section: Nevim, Chapters: 24},
	{ID: "Judges", HebrewName: "שופטים", Section: Nevim, Chapters: 21},
	{ID: "I Samuel", HebrewName: "שמואל א", Section: Nevim, Chapters: 31},
	{ID: "II Samuel", HebrewName: "שמואל ב", Section: Nevim, Chapters: 24},
	{ID: "I Kings", HebrewName: "מלכים א", Section: Nevim, Chapters: 22},
	{ID: "II Kings", HebrewName: "מלכים ב", Section: Nevim, Chapters: 25},
	{ID: "Isaiah", HebrewName: "ישעיהו", Section: Nevim, Chapters: 66},
	{ID: "Jeremiah", HebrewName: "ירמיהו", Section: Nevim, Chapters: 52},
	{ID: "Ezekiel", HebrewName: "יחזקאל", Section: Nevim, Chapters: 48},
	{ID: "Hosea", HebrewName: "הושע", Section: Nevim, Chapters: 14},
	{ID: "Joel", HebrewName: "יואל", Section: Nevim, Chapters: 4},
	{ID: "Amos", HebrewName: "עמוס", Section: Nevim, Chapters: 9},
	{ID: "Obadiah", HebrewName: "עובדיה", Section: Nevim, Chapters: 1},
	{ID: "Jonah", HebrewName: "יונה", Section: Nevim, Chapters: 4},
	{ID: "Micah", HebrewName: "מיכה", Section: Nevim, Chapters: 7},
	{ID: "Nahum", HebrewName: "נחום", Section: Nevim, Chapters: 3},
	{ID: "Habakkuk", HebrewName: "חבקוק", Section: Nevim, Chapters: 3},
	{ID: "Zephaniah", HebrewName: "צפניה", Section: Nevim, Chapters: 3},
	{ID: "Haggai", HebrewName: "חגי", Section: Nevim, Chapters: 2},
	{ID: "Zechariah", HebrewName: "זכריה", Section: Nevim, Chapters: 14},
	{ID: "Malachi", HebrewName: "מלאכי", Section: Nevim, Chapters: 3},

	{ID: "Psalms", HebrewName: "תהילים", Section: Ketuvim, Chapters: 150},
	{ID: "Proverbs", HebrewName: "משלי", Section: Ketuvim, Chapters: 31},
	{ID: "Job", HebrewName: "איוב", Section: Ketuvim, Chapters: 42},
	{ID: "Song of Songs", HebrewName: "שיר השירים", Section: Ketuvim, Chapters: 8},
	{ID: "Ruth", HebrewName: "רות", Section: Ketuvim, Chapters: 4},
	{ID: "Lamentations", HebrewName: "איכה", Section: Ketuvim, Chapters: 5},
	{ID: "Ecclesiastes", HebrewName: "קהלת", Section: Ketuvim, Chapters: 12},
	{ID: "Esther", HebrewName: "אסתר", Section: Ketuvim, Chapters: 10},
	{ID: "Daniel", HebrewName: "דניאל", Section: Ketuvim, Chapters: 12},
	{ID: "Ezra", HebrewName: "עזרא", Section: Ketuvim, Chapters: 10},
	{ID: "Nehemiah", HebrewName: "נחמיה", Section: Ketuvim, Chapters: 13},
	{ID: "I Chronicles", HebrewName: "דברי הימים א", Section: Ketuvim, Chapters: 29},
	{ID: "II Chronicles", HebrewName: "דברי הימים ב", Section: Ketuvim, Chapters: 36},
}

var bookIndex = map[string]int{}

func init() {
	for i := range Books {
		Books[i].Order = i
		bookIndex[lookupKey(Books[i].ID)] = i
		bookIndex[lookupKey(Books[i].HebrewName)] = i
	}
}

// lookupKey folds case, underscores and repeated spaces so "i_samuel" finds "I Samuel".
func lookupKey(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// LookupBook resolves an English id or Hebrew name to its table entry.
func LookupBook(id string) (Book, error) {
	if i, ok := bookIndex[lookupKey(id)]; ok {
		return Books[i], nil
	}
	return Book{}, errors.BookError(id)
}

// BookOrder returns the canonical position of id, or -1 when unknown.
// Callers compare by it, so unknown books sort first.
func BookOrder(id string) int {
	if i, ok := bookIndex[lookupKey(id)]; ok {
		return i
	}
	return -1
}

// NextBook returns the book after id, or false at the end of the corpus.
func NextBook(id string) (Book, bool) {
	i := BookOrder(id)
	if i < 0 || i+1 >= len(Books) {
		return Book{}, false
	}
	return Books[i+1], true
}

// PrevBook returns the book before id, or false at the head of the corpus.
func PrevBook(id string) (Book, bool) {
	i := BookOrder(id)
	if i <= 0 {
		return Book{}, false
	}
	return Books[i-1], true
}

// BooksInSection returns a section's books in canonical order.
func BooksInSection(s Section) []Book {
	var out []Book
	for _, b := range Books {
		if b.Section == s {
			out = append(out, b)
		}
	}
	return out
}
