package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/spec"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// Patterns run on folded text, so "çap" is "cap", "parça" is "parca" and
// "lük" is "luk". Within a group the first matching pattern wins.
var (
	diameterPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*mm\s*cap`),
		regexp.MustCompile(`ø\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*cap`),
		regexp.MustCompile(`cap\s*(\d+)`),
		regexp.MustCompile(`(\d+)\s*'?\s*(?:lik|luk)\b`),
	}
	strokePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*mm\s*strok`),
		regexp.MustCompile(`(\d+)\s*strok`),
		regexp.MustCompile(`strok\s*(\d+)`),
		regexp.MustCompile(`(?:^|[^a-z])x\s*(\d+)`),
	}
	pairPattern     = regexp.MustCompile(`(\d+)\s*[x*×]\s*(\d+)`)
	// A leading minus is kept so a negative quantity is refused rather than
	// read as positive.
	quantityPattern = regexp.MustCompile(`(?:^|[^\d-])(-?\d+)\s*(?:adet|tane|parca|pcs|piece)`)
	firstInteger    = regexp.MustCompile(`(?:^|[^\d-])(-?\d+)`)
	spokenMinus     = regexp.MustCompile(`\beksi\s+`)

	codePattern      = regexp.MustCompile(`^(?:\d+[A-Za-z]+\d*|[A-Za-z]+\d+[A-Za-z]*\d*)$`)
	dimensionToken   = regexp.MustCompile(`^(?i)(?:\d*x\d+|\d+x\d*)$`)
	measurementToken = regexp.MustCompile(`^(?i)\d+(?:mm|cm|m|adet|tane|pcs|lik|luk|li|lu|bar)$`)
)

// Deterministic extracts what the rule tables can see in utterance. Every
// field it fills carries spec.SourceFallback.
func Deterministic(utterance string) spec.Specification {
	var out spec.Specification
	folded := textnorm.Fold(textnorm.Normalize(utterance))

	set := func(f spec.Field, dst **int, v int, ok bool) {
		if ok && *dst == nil && v > 0 {
			*dst = spec.Int(v)
			out.SetSource(f, spec.SourceFallback)
		}
	}

	v, span, ok := firstCapture(diameterPatterns, folded, nil)
	set(spec.FieldDiameter, &out.Diameter, v, ok)
	// "çap 63 strok 150": 63 already belongs to the diameter.
	v, _, ok = firstCapture(strokePatterns, folded, span)
	set(spec.FieldStroke, &out.Stroke, v, ok)

	if m := pairPattern.FindStringSubmatch(folded); m != nil {
		d, _ := strconv.Atoi(m[1])
		s, _ := strconv.Atoi(m[2])
		set(spec.FieldDiameter, &out.Diameter, d, true)
		set(spec.FieldStroke, &out.Stroke, s, true)
	}

	if m := quantityPattern.FindStringSubmatch(folded); m != nil {
		q, _ := strconv.Atoi(m[1])
		set(spec.FieldQuantity, &out.Quantity, q, true)
	}

	out.AddFeatures(spec.DetectFeatures(utterance)...)

	if code := ProductCode(utterance); code != "" {
		out.ProductCode = spec.String(code)
		out.SetSource(spec.FieldProductCode, spec.SourceFallback)
	}
	return out
}

// firstCapture returns the first group-1 integer of the first pattern that
// matches s, skipping captures at the taken span.
func firstCapture(patterns []*regexp.Regexp, s string, taken []int) (int, []int, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(s, -1) {
			if taken != nil && m[2] == taken[0] && m[3] == taken[1] {
				continue
			}
			n, err := strconv.Atoi(s[m[2]:m[3]])
			if err == nil {
				return n, m[2:4], true
			}
		}
	}
	return 0, nil, false
}

// ProductCode returns the first token that looks like a catalogue code
// (letters and digits mixed, e.g. "DNC100" or "5V210"), skipping dimension
// and measurement tokens such as "x200" or "100mm".
func ProductCode(utterance string) string {
	for _, tok := range strings.Fields(textnorm.Normalize(utterance)) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if tok == "" || !codePattern.MatchString(tok) {
			continue
		}
		if dimensionToken.MatchString(tok) || measurementToken.MatchString(tok) {
			continue
		}
		return strings.ToUpper(tok)
	}
	return ""
}

// Quantity reads an order quantity from free text: the quantity pattern
// first, then the first integer.
func Quantity(utterance string) (int, bool) {
	folded := spokenMinus.ReplaceAllString(textnorm.Fold(textnorm.Normalize(utterance)), "-")
	for _, re := range []*regexp.Regexp{quantityPattern, firstInteger} {
		if m := re.FindStringSubmatch(folded); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
