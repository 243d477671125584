// Package extract turns a customer utterance into a specification delta.
//
// The oracle is authoritative for the fields it fills. A deterministic rule
// pass backfills what the oracle left empty and stands in entirely when the
// oracle is unavailable. Both are checked against the sanity bounds before
// anything reaches the session.
package extract

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/config"
	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/oracle"
	"github.com/ziadkadry99/pneumabot/internal/spec"
)

// Input is what the extractor sees of a turn.
type Input struct {
	Utterance     string
	History       []string
	Current       spec.Specification
	PreviousReply string
}

// Result is the outcome of one extraction.
type Result struct {
	Intent             oracle.Intent
	SubIntent          string
	Action             oracle.Action
	Confidence         float64
	Delta              spec.Specification
	FallbackFields     []spec.Field
	SuggestedReply     string
	CorrectedUtterance string
	OracleUsed         bool
	Tone               spec.Tone
}

// HasFacts reports whether the delta carries a dimension, a product code or a
// quantity.
func (r Result) HasFacts() bool {
	d := r.Delta
	return d.Diameter != nil || d.Stroke != nil || d.ProductCode != nil || d.Quantity != nil
}

// Extractor reconciles oracle output with the deterministic pass.
type Extractor struct {
	oracle oracle.Oracle
	policy config.Policy
	log    zerolog.Logger
}

// New creates an extractor. A nil oracle means rules only.
func New(o oracle.Oracle, policy config.Policy, log zerolog.Logger) *Extractor {
	return &Extractor{oracle: o, policy: policy, log: log}
}

// Extract never fails: oracle problems degrade to the deterministic result.
func (e *Extractor) Extract(ctx context.Context, in Input) Result {
	rules := e.gate(Deterministic(in.Utterance), nil)
	res := Result{Tone: spec.DetectTone(in.Utterance)}

	var c *oracle.Classification
	var err error
	if e.oracle != nil {
		octx, cancel := context.WithTimeout(ctx, e.policy.OracleTimeout)
		c, err = e.oracle.ClassifySpecification(octx, oracle.Request{
			Utterance:     in.Utterance,
			History:       in.History,
			Current:       in.Current,
			PreviousReply: in.PreviousReply,
		})
		cancel()
		if err != nil {
			e.log.Warn().Err(err).Str("kind", errs.KindOracleUnavailable.String()).
				Msg("oracle classification failed, using rules")
		}
	}

	if c == nil {
		res.Confidence = e.policy.FallbackConfidence
		res.Delta = rules
		res.FallbackFields = fallbackFields(rules)
		return res
	}

	res.OracleUsed = true
	res.Intent = c.Intent
	res.SubIntent = c.SubIntent
	res.Action = c.Action
	res.Confidence = c.Confidence
	res.SuggestedReply = c.SuggestedReply
	res.CorrectedUtterance = c.CorrectedUtterance

	res.Delta = e.gate(c.Delta.Clone(), &rules)
	backfill(&res.Delta, rules)
	res.FallbackFields = fallbackFields(res.Delta)

	if res.Intent == "" {
		res.Intent = e.classifyIntent(ctx, in)
	}
	return res
}

func (e *Extractor) classifyIntent(ctx context.Context, in Input) oracle.Intent {
	ictx, cancel := context.WithTimeout(ctx, e.policy.OracleTimeout)
	defer cancel()
	intent, err := e.oracle.ClassifyIntent(ictx, in.Utterance, in.History)
	if err != nil {
		e.log.Warn().Err(err).Msg("intent classification failed")
		return ""
	}
	return intent
}

// gate enforces the dimension bounds on d. Out-of-range values are replaced by
// the corresponding value from alt when alt is given, otherwise dropped.
func (e *Extractor) gate(d spec.Specification, alt *spec.Specification) spec.Specification {
	check := func(f spec.Field, v **int, max int, altV *int) {
		if *v == nil || (**v > 0 && **v <= max) {
			return
		}
		e.log.Warn().Str("kind", errs.KindImplausibleValue.String()).Str("field", string(f)).
			Int("value", **v).Int("max", max).Msg("implausible value rejected")
		*v = nil
		d.SetSource(f, spec.SourceNone)
		if altV != nil {
			*v = spec.Int(*altV)
			d.SetSource(f, spec.SourceFallback)
		}
	}
	var altD, altS *int
	if alt != nil {
		altD, altS = alt.Diameter, alt.Stroke
	}
	check(spec.FieldDiameter, &d.Diameter, e.policy.MaxDiameterMM, altD)
	check(spec.FieldStroke, &d.Stroke, e.policy.MaxStrokeMM, altS)
	if d.Quantity != nil && *d.Quantity <= 0 {
		d.Quantity = nil
		d.SetSource(spec.FieldQuantity, spec.SourceNone)
	}
	return d
}

// backfill copies fields that d lacks from rules. Features are unioned.
func backfill(d *spec.Specification, rules spec.Specification) {
	ints := []struct {
		f        spec.Field
		dst, src **int
	}{
		{spec.FieldDiameter, &d.Diameter, &rules.Diameter},
		{spec.FieldStroke, &d.Stroke, &rules.Stroke},
		{spec.FieldQuantity, &d.Quantity, &rules.Quantity},
	}
	for _, x := range ints {
		if *x.dst == nil && *x.src != nil {
			*x.dst = spec.Int(**x.src)
			d.SetSource(x.f, spec.SourceFallback)
		}
	}
	if d.ProductCode == nil && rules.ProductCode != nil {
		d.ProductCode = spec.String(*rules.ProductCode)
		d.SetSource(spec.FieldProductCode, spec.SourceFallback)
	}
	d.AddFeatures(rules.FeatureList()...)
}

// fallbackFields lists the filled fields of d that came from the rules.
func fallbackFields(d spec.Specification) []spec.Field {
	var out []spec.Field
	for _, f := range []struct {
		field spec.Field
		set   bool
	}{
		{spec.FieldDiameter, d.Diameter != nil},
		{spec.FieldStroke, d.Stroke != nil},
		{spec.FieldQuantity, d.Quantity != nil},
		{spec.FieldProductCode, d.ProductCode != nil},
	} {
		if f.set && d.SourceOf(f.field) == spec.SourceFallback {
			out = append(out, f.field)
		}
	}
	return out
}
