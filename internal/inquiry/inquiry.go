// Package inquiry decides which single fact to ask the customer for next,
// using live stock to make the question concrete.
package inquiry

import (
	"context"
	"fmt"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

// Missing names the dimension a question asks for.
type Missing string

const (
	MissingNone     Missing = ""
	MissingDiameter Missing = "diameter"
	MissingStroke   Missing = "stroke"
)

// DefaultTopK is how many options a question lists.
const DefaultTopK = 5

// Question is the next thing to ask. Options are sorted by stock, highest
// first, and TotalStock covers all options, not only the listed ones.
type Question struct {
	Text        string          `json:"text"`
	Missing     Missing         `json:"missing"`
	Options     catalog.Options `json:"options,omitempty"`
	OptionCount int             `json:"option_count"`
	TotalStock  float64         `json:"total_stock"`
}

// Engine builds questions from the catalogue.
type Engine struct {
	catalog catalog.Port
	topK    int
}

// New creates an engine listing up to topK options (DefaultTopK when <= 0).
func New(c catalog.Port, topK int) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Engine{catalog: c, topK: topK}
}

// Ask returns the question for the dimension s lacks. With both dimensions
// known it returns a zero Question.
func (e *Engine) Ask(ctx context.Context, s spec.Specification, tone spec.Tone) (Question, error) {
	switch {
	case s.Diameter != nil && s.Stroke == nil:
		opts, err := e.catalog.StrokeOptionsFor(ctx, *s.Diameter)
		if err != nil {
			return Question{}, err
		}
		return e.build(MissingStroke, *s.Diameter, opts, tone), nil
	case s.Stroke != nil && s.Diameter == nil:
		opts, err := e.catalog.DiameterOptionsFor(ctx, *s.Stroke)
		if err != nil {
			return Question{}, err
		}
		return e.build(MissingDiameter, *s.Stroke, opts, tone), nil
	case s.Diameter == nil && s.Stroke == nil:
		return Question{
			Text:    opener(tone) + "Silindirin **çap** ölçüsünü (mm) yazar mısınız? Örneğin: *100 çap* veya *Ø63*.",
			Missing: MissingDiameter,
		}, nil
	default:
		return Question{}, nil
	}
}

func (e *Engine) build(missing Missing, known int, opts catalog.Options, tone spec.Tone) Question {
	q := Question{Missing: missing, OptionCount: len(opts), TotalStock: opts.TotalStock()}
	knownLabel, missingLabel := "çap", "strok"
	if missing == MissingDiameter {
		knownLabel, missingLabel = "strok", "çap"
	}

	if len(opts) == 0 {
		q.Text = fmt.Sprintf("%s**%d mm %s** için şu an stokta ürün görünmüyor. Farklı bir %s ölçüsü denemek ister misiniz?",
			sorry(tone), known, knownLabel, knownLabel)
		return q
	}

	q.Options = opts.Ranked(e.topK)
	var b strings.Builder
	fmt.Fprintf(&b, "%s**%d mm %s** için %d farklı %s seçeneği var, toplam %s adet stokta.\n",
		opener(tone), known, knownLabel, len(opts), missingLabel, formatQty(q.TotalStock))
	for _, o := range q.Options {
		fmt.Fprintf(&b, "- %d mm (%s adet)\n", o.Value, formatQty(o.TotalStock))
	}
	if len(opts) > len(q.Options) {
		fmt.Fprintf(&b, "- … ve %d seçenek daha\n", len(opts)-len(q.Options))
	}
	fmt.Fprintf(&b, "Hangi %s ölçüsünü istersiniz?", missingLabel)
	q.Text = b.String()
	return q
}

func opener(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Tabii abi! "
	}
	return ""
}

func sorry(tone spec.Tone) string {
	if tone == spec.ToneFriendly {
		return "Kusura bakma abi, "
	}
	return "Üzgünüz, "
}

// formatQty drops the fraction of whole quantities.
func formatQty(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
