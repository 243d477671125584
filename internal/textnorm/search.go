package textnorm

import (
	"strings"
	"unicode/utf8"
)

// searchPhrases are filler words customers wrap around the thing they look
// for ("kör tapa arıyorum"). Folded form, longest first.
var searchPhrases = []string{
	"bulabilir miyim", "sonra bakariz", "almak istiyorum", "neler var", "nerler var",
	"ariyorum", "bulabilir", "istiyorum", "bakiyorum", "bakalim", "bakarim",
	"lazim", "gerek", "var mi", "varmi", "lutfen", "acaba", "fiyati", "fiyat",
	"looking for", "i need", "please",
}

// quantityUnits mark a quantity ("3 adet"), which is not part of the name.
var quantityUnits = map[string]bool{"adet": true, "tane": true, "parca": true, "pcs": true, "piece": true}

// pluralSuffixes are stripped from the end of a word once.
var pluralSuffixes = []string{"larin", "lerin", "lara", "lere", "lari", "leri", "lar", "ler"}

// SearchTerms turns a free-text product request into folded search words:
// filler phrases, quantities and punctuation are removed and one Turkish
// plural suffix is trimmed from each word ("bobinler" → "bobin").
func SearchTerms(s string) []string {
	text := " " + Tokenize(s) + " "
	for _, p := range searchPhrases {
		text = strings.ReplaceAll(text, " "+p+" ", " ")
	}

	words := strings.Fields(text)
	var terms []string
	seen := make(map[string]bool)
	for i, w := range words {
		if quantityUnits[w] || (i+1 < len(words) && quantityUnits[words[i+1]] && isDigits(w)) {
			continue
		}
		w = trimPlural(w)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
	}
	return terms
}

func isDigits(w string) bool {
	for _, r := range w {
		if r < '0' || r > '9' {
			return false
		}
	}
	return w != ""
}

func trimPlural(w string) string {
	for _, suf := range pluralSuffixes {
		if strings.HasSuffix(w, suf) && utf8.RuneCountInString(w)-len(suf) >= 3 {
			return strings.TrimSuffix(w, suf)
		}
	}
	return w
}
