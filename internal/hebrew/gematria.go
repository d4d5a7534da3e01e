package hebrew

import (
	"fmt"
	"strings"
)

// Method selects a gematria reckoning.
type Method string

const (
	// Standard counts finals like their medial letter.
	Standard Method = "standard"
	// MisparKatan reduces each letter value to a single digit.
	MisparKatan Method = "katan"
	// MisparGadol gives the final forms 500 through 900.
	MisparGadol Method = "gadol"
	// Siduri uses alphabet position, alef=1 through tav=22.
	Siduri Method = "siduri"
	// Atbash swaps each letter with its mirror before summing.
	Atbash Method = "atbash"
)

// Methods lists every supported method in display order.
var Methods = []Method{Standard, MisparKatan, MisparGadol, Siduri, Atbash}

const alphabet = "אבגדהוזחטיכלמנסעפצקרשת"

var (
	standardValues = map[rune]int{}
	ordinalValues  = map[rune]int{}
	atbashPairs    = map[rune]rune{}
	gadolFinals    = map[rune]int{'ך': 500, 'ם': 600, 'ן': 700, 'ף': 800, 'ץ': 900}
)

func init() {
	letters := []rune(alphabet)
	for i, r := range letters {
		switch {
		case i < 9:
			standardValues[r] = i + 1
		case i < 18:
			standardValues[r] = (i - 8) * 10
		default:
			standardValues[r] = (i - 17) * 100
		}
		ordinalValues[r] = i + 1
		atbashPairs[r] = letters[len(letters)-1-i]
	}
	for final, medial := range finalToMedial {
		standardValues[final] = standardValues[medial]
		ordinalValues[final] = ordinalValues[medial]
	}
}

// ParseMethod resolves a method name; the empty string means Standard.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return Standard, nil
	}
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown gematria method %q", s)
}

// Gematria sums the letter values of text under method. Non-letters are ignored.
func Gematria(text string, method Method) int {
	sum := 0
	for _, r := range text {
		if !IsLetter(r) {
			continue
		}
		switch method {
		case MisparKatan:
			sum += digitRoot(standardValues[r])
		case MisparGadol:
			if v, ok := gadolFinals[r]; ok {
				sum += v
			} else {
				sum += standardValues[r]
			}
		case Siduri:
			sum += ordinalValues[r]
		case Atbash:
			// Final forms have no mirror and count as themselves.
			if m, ok := atbashPairs[r]; ok {
				r = m
			}
			sum += standardValues[r]
		default:
			sum += standardValues[r]
		}
	}
	return sum
}

func digitRoot(v int) int {
	for v >= 10 {
		v = v/10 + v%10
	}
	return v
}

// NumberToHebrew renders n in Hebrew numerals, writing 15 and 16 as ט"ו and ט"ז
// without the gershayim. Non-positive numbers render as "".
func NumberToHebrew(n int) string {
	if n <= 0 {
		return ""
	}
	var sb strings.Builder
	for _, h := range []struct {
		value  int
		letter rune
	}{{400, 'ת'}, {300, 'ש'}, {200, 'ר'}, {100, 'ק'}} {
		for n >= h.value {
			sb.WriteRune(h.letter)
			n -= h.value
		}
	}

	switch n {
	case 15:
		sb.WriteString("טו")
		return sb.String()
	case 16:
		sb.WriteString("טז")
		return sb.String()
	}

	letters := []rune(alphabet)
	if n >= 10 {
		sb.WriteRune(letters[8+n/10])
		n %= 10
	}
	if n > 0 {
		sb.WriteRune(letters[n-1])
	}
	return sb.String()
}
