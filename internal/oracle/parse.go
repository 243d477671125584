package oracle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ziadkadry99/pneumabot/internal/spec"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// flexInt accepts 100, 100.0, "100", "100mm" and null.
type flexInt struct {
	v *int
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		f.v = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		digits := strings.TrimFunc(s, func(r rune) bool { return r < '0' || r > '9' })
		if end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); end >= 0 {
			digits = digits[:end]
		}
		if digits == "" {
			f.v = nil
			return nil
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			return err
		}
		f.v = &n
		return nil
	}
	var x float64
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	n := int(math.Round(x))
	f.v = &n
	return nil
}

// flexString accepts strings, numbers and null; empty strings become nil.
type flexString struct {
	v *string
}

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if s != "" {
		f.v = &s
	}
	return nil
}

type wireSpecs struct {
	Diameter       flexInt    `json:"diameter"`
	Stroke         flexInt    `json:"stroke"`
	Quantity       flexInt    `json:"quantity"`
	Features       []string   `json:"features"`
	Brand          flexString `json:"brand"`
	ProductCode    flexString `json:"product_code"`
	ConnectionSize flexString `json:"connection_size"`
}

type wireClassification struct {
	Intent             string    `json:"intent"`
	SubIntent          string    `json:"sub_intent"`
	Action             string    `json:"action"`
	Confidence         *float64  `json:"confidence"`
	Specs              wireSpecs `json:"extracted_specs"`
	SuggestedReply     string    `json:"suggested_response"`
	CorrectedUtterance string    `json:"corrected_query"`
}

// extractJSON trims anything before the first '{' and after the last '}',
// which strips markdown fences and chatter around the object.
func extractJSON(content string) string {
	s := content
	if idx := strings.Index(s, "{"); idx >= 0 {
		s = s[idx:]
	}
	if idx := strings.LastIndex(s, "}"); idx >= 0 {
		s = s[:idx+1]
	}
	return s
}

func parseClassification(content string) (*Classification, error) {
	var w wireClassification
	if err := json.Unmarshal([]byte(extractJSON(content)), &w); err != nil {
		return nil, fmt.Errorf("decoding classification: %w", err)
	}

	c := &Classification{
		Intent:             normalizeIntent(w.Intent),
		SubIntent:          strings.TrimSpace(w.SubIntent),
		Action:             normalizeAction(w.Action),
		SuggestedReply:     strings.TrimSpace(w.SuggestedReply),
		CorrectedUtterance: strings.TrimSpace(w.CorrectedUtterance),
	}
	if w.Confidence != nil {
		c.Confidence = math.Max(0, math.Min(1, *w.Confidence))
	}

	d := &c.Delta
	setInt := func(f spec.Field, dst **int, src flexInt) {
		if src.v != nil && *src.v > 0 {
			*dst = src.v
			d.SetSource(f, spec.SourceOracle)
		}
	}
	setString := func(f spec.Field, dst **string, src flexString) {
		if src.v != nil {
			*dst = src.v
			d.SetSource(f, spec.SourceOracle)
		}
	}
	setInt(spec.FieldDiameter, &d.Diameter, w.Specs.Diameter)
	setInt(spec.FieldStroke, &d.Stroke, w.Specs.Stroke)
	setInt(spec.FieldQuantity, &d.Quantity, w.Specs.Quantity)
	setString(spec.FieldBrand, &d.Brand, w.Specs.Brand)
	setString(spec.FieldProductCode, &d.ProductCode, w.Specs.ProductCode)
	setString(spec.FieldConnectionSize, &d.ConnectionSize, w.Specs.ConnectionSize)
	d.AddFeatures(normalizeFeatures(w.Specs.Features)...)

	return c, nil
}

// normalizeFeatures maps free-form feature words ("manyetik", "amortisörlü")
// onto canonical feature keys.
func normalizeFeatures(in []string) []string {
	var out []string
	for _, f := range in {
		key := strings.ReplaceAll(textnorm.Fold(strings.TrimSpace(f)), " ", "_")
		if _, ok := spec.FeatureKeywords[key]; ok {
			out = append(out, key)
			continue
		}
		out = append(out, spec.DetectFeatures(f)...)
	}
	return out
}

func normalizeIntent(s string) Intent {
	s = strings.Trim(textnorm.Fold(strings.TrimSpace(s)), " .\"'`")
	i := Intent(s)
	if i.Known() {
		return i
	}
	if s == "spec_question" {
		return IntentSpecQuery
	}
	return ""
}

func normalizeAction(s string) Action {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionSearchDirect, ActionRequestParams, ActionClarify:
		return a
	default:
		return ActionNone
	}
}

func parseQuantity(content string) (*int, error) {
	var w struct {
		Quantity flexInt `json:"quantity"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &w); err != nil {
		return nil, fmt.Errorf("decoding quantity: %w", err)
	}
	return w.Quantity.v, nil
}
