// Package textnorm normalizes Turkish customer text so that keyword and
// pattern matching works regardless of case, diacritics or Unicode form.
//
// Fold is the canonical matching form: Turkish-aware lower casing, then
// combining marks stripped and dotless ı mapped to i. "ÇAPLI", "çaplı" and
// "capli" all fold to "capli".
package textnorm

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Casers keep state between calls, so each goroutine takes its own from a pool.
var (
	lowerPool = sync.Pool{New: func() any { c := cases.Lower(language.Turkish); return &c }}
	upperPool = sync.Pool{New: func() any { c := cases.Upper(language.Turkish); return &c }}
	foldPool  = sync.Pool{New: func() any {
		return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	}}
)

// Normalize repairs invalid UTF-8, converts to NFC and collapses whitespace.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}

// Lower lower-cases s with Turkish rules (I → ı, İ → i).
func Lower(s string) string {
	c := lowerPool.Get().(*cases.Caser)
	defer lowerPool.Put(c)
	c.Reset()
	return c.String(Normalize(s))
}

// Upper upper-cases s with Turkish rules (i → İ, ı → I).
func Upper(s string) string {
	c := upperPool.Get().(*cases.Caser)
	defer upperPool.Put(c)
	c.Reset()
	return c.String(Normalize(s))
}

// Fold returns the matching form of s.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	// ASCII capitals typed without Turkish letters are meant as Latin, so
	// "SILINDIR" must fold to "silindir" rather than "sılındır".
	lowered := Lower(s)
	if !hasTurkishCapital(s) {
		lowered = strings.ToLower(Normalize(s))
	}

	tr := foldPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, lowered)
	tr.Reset()
	foldPool.Put(tr)
	if err != nil {
		out = lowered
	}
	return strings.ReplaceAll(out, "ı", "i")
}

func hasTurkishCapital(s string) bool {
	return strings.ContainsAny(s, "İĞŞÇÖÜ")
}

// Tokenize folds s and replaces punctuation with spaces, keeping letters,
// digits and the dimension separators x, ×, * and ø.
func Tokenize(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '×' || r == '*' || r == 'ø' || r == '/':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// HasWord reports whether any keyword occurs at a word start in text. Both
// sides must already be in Tokenize form. Multi-word keywords match as a
// phrase.
func HasWord(text string, keywords ...string) bool {
	padded := " " + text
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(padded, " "+kw) {
			return true
		}
	}
	return false
}

// Equals reports whether text, once tokenized, is exactly one of the tokens.
func Equals(text string, tokens ...string) bool {
	t := Tokenize(text)
	for _, tok := range tokens {
		if t == tok {
			return true
		}
	}
	return false
}
