package catalog

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/ziadkadry99/pneumabot/internal/spec"
)

var (
	dimSeparator  = regexp.MustCompile(`(\d)\s*[xX×]\s*(\d)`)
	numericToken  = regexp.MustCompile(`\b\d+\b`)
	optionPattern = `\s*[*xX×/]\s*`
)

// normalizeSeparators rewrites "100x200" and "100 × 200" as "100*200".
func normalizeSeparators(name string) string {
	for {
		next := dimSeparator.ReplaceAllString(name, "$1*$2")
		if next == name {
			return name
		}
		name = next
	}
}

// numericTokens returns the standalone integers of a product name.
func numericTokens(name string) []int {
	var out []int
	for _, m := range numericToken.FindAllString(normalizeSeparators(name), -1) {
		if n, err := strconv.Atoi(m); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// dimensionsMatch decides whether a product name really is a diameter x
// stroke product. Both values must be standalone numbers in the name; with
// three or more numbers the first diameter and the first stroke after it must
// be neighbours, which rejects "100-50-200-XYZ" for 100x200.
func dimensionsMatch(name string, diameter, stroke int) bool {
	tokens := numericTokens(name)
	di := indexOf(tokens, diameter, 0)
	if di < 0 {
		return false
	}
	si := indexOf(tokens, stroke, 0)
	if diameter == stroke {
		si = indexOf(tokens, stroke, di+1)
	}
	if si < 0 {
		return false
	}
	if len(tokens) < 3 {
		return true
	}
	return si-di == 1 || di-si == 1
}

func indexOf(tokens []int, v, from int) int {
	for i := from; i < len(tokens); i++ {
		if tokens[i] == v {
			return i
		}
	}
	return -1
}

// featureScore ranks a product: 0.8 base plus 0.2 times the fraction of
// requested features its name mentions.
func featureScore(name string, features []string) float64 {
	if len(features) == 0 {
		return 0.8
	}
	hit := 0
	for _, f := range features {
		if spec.MentionsFeature(name, f) {
			hit++
		}
	}
	return 0.8 + 0.2*float64(hit)/float64(len(features))
}

// rank orders products by feature score, then stock, then code.
func rank(products []ProductRef, features []string) []ProductRef {
	type scored struct {
		p     ProductRef
		score float64
	}
	s := make([]scored, len(products))
	for i, p := range products {
		s[i] = scored{p, featureScore(p.DisplayName, features)}
	}
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].score != s[j].score {
			return s[i].score > s[j].score
		}
		if s[i].p.Stock != s[j].p.Stock {
			return s[i].p.Stock > s[j].p.Stock
		}
		return s[i].p.Code < s[j].p.Code
	})
	out := make([]ProductRef, len(s))
	for i := range s {
		out[i] = s[i].p
	}
	return out
}

// strokeRe matches "D*S" for a fixed diameter D and captures S.
func strokeRe(diameter int) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|\D)` + strconv.Itoa(diameter) + optionPattern + `(\d+)`)
}

// diameterRe matches "D*S" for a fixed stroke S and captures D.
func diameterRe(stroke int) *regexp.Regexp {
	return regexp.MustCompile(`(\d+)` + optionPattern + strconv.Itoa(stroke) + `(?:\D|$)`)
}

// collectOptions groups products by the value re captures. A value equal to
// skip is ignored, since "100x100" says nothing about a second dimension.
func collectOptions(products []ProductRef, re *regexp.Regexp, skip int) Options {
	byValue := map[int]*Option{}
	for _, p := range products {
		m := re.FindStringSubmatch(p.DisplayName)
		if m == nil {
			continue
		}
		v, err := strconv.Atoi(m[1])
		if err != nil || v <= 0 || v == skip {
			continue
		}
		opt, ok := byValue[v]
		if !ok {
			opt = &Option{Value: v}
			byValue[v] = opt
		}
		opt.TotalStock += p.Stock
		opt.Products = append(opt.Products, p)
	}
	out := make(Options, 0, len(byValue))
	for _, opt := range byValue {
		out = append(out, *opt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
