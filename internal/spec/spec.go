// Package spec holds the product specification a conversation accumulates,
// together with the lexical classifiers (category, features, tone) that feed it.
package spec

import (
	"sort"
	"strconv"
	"strings"
)

// Field names a scalar specification field.
type Field string

const (
	FieldDiameter       Field = "diameter"
	FieldStroke         Field = "stroke"
	FieldQuantity       Field = "quantity"
	FieldBrand          Field = "brand"
	FieldProductCode    Field = "product_code"
	FieldConnectionSize Field = "connection_size"
)

// Source ranks where a field value came from. A value is never replaced by
// one from a lower-ranked source.
type Source int

const (
	SourceNone Source = iota
	SourceFallback
	SourceOracle
)

func (s Source) String() string {
	switch s {
	case SourceFallback:
		return "fallback"
	case SourceOracle:
		return "oracle"
	default:
		return "none"
	}
}

// FeatureSet is a set of feature keys such as "magnetic".
type FeatureSet map[string]bool

// Specification is the fact set gathered for one conversation. Dimensions
// are in millimetres.
type Specification struct {
	Diameter       *int             `json:"diameter,omitempty"`
	Stroke         *int             `json:"stroke,omitempty"`
	Features       FeatureSet       `json:"features,omitempty"`
	Quantity       *int             `json:"quantity,omitempty"`
	Brand          *string          `json:"brand,omitempty"`
	ProductCode    *string          `json:"product_code,omitempty"`
	ConnectionSize *string          `json:"connection_size,omitempty"`
	Sources        map[Field]Source `json:"sources,omitempty"`
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// String returns a pointer to v, or nil when v is blank.
func String(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// SourceOf returns the recorded source of f.
func (s Specification) SourceOf(f Field) Source {
	if s.Sources == nil {
		return SourceNone
	}
	return s.Sources[f]
}

// SetSource records where f came from.
func (s *Specification) SetSource(f Field, src Source) {
	if s.Sources == nil {
		s.Sources = make(map[Field]Source)
	}
	if src == SourceNone {
		delete(s.Sources, f)
		return
	}
	s.Sources[f] = src
}

// AddFeatures adds feature keys to the set.
func (s *Specification) AddFeatures(keys ...string) {
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if s.Features == nil {
			s.Features = make(FeatureSet)
		}
		s.Features[k] = true
	}
}

// FeatureList returns the features sorted by key.
func (s Specification) FeatureList() []string {
	out := make([]string, 0, len(s.Features))
	for k, ok := range s.Features {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// HasDimensions reports whether diameter or stroke is known.
func (s Specification) HasDimensions() bool {
	return s.Diameter != nil || s.Stroke != nil
}

// Complete reports whether both diameter and stroke are known.
func (s Specification) Complete() bool {
	return s.Diameter != nil && s.Stroke != nil
}

// IsEmpty reports whether no field at all is set.
func (s Specification) IsEmpty() bool {
	return s.Diameter == nil && s.Stroke == nil && s.Quantity == nil && s.Brand == nil &&
		s.ProductCode == nil && s.ConnectionSize == nil && len(s.Features) == 0
}

// Merge folds delta into s. Scalars follow source precedence: a field held by
// a higher-ranked source keeps its value. Features are unioned.
func (s *Specification) Merge(delta Specification) {
	mergeInt(s, &s.Diameter, delta.Diameter, FieldDiameter, delta.SourceOf(FieldDiameter))
	mergeInt(s, &s.Stroke, delta.Stroke, FieldStroke, delta.SourceOf(FieldStroke))
	mergeInt(s, &s.Quantity, delta.Quantity, FieldQuantity, delta.SourceOf(FieldQuantity))
	mergeString(s, &s.Brand, delta.Brand, FieldBrand, delta.SourceOf(FieldBrand))
	mergeString(s, &s.ProductCode, delta.ProductCode, FieldProductCode, delta.SourceOf(FieldProductCode))
	mergeString(s, &s.ConnectionSize, delta.ConnectionSize, FieldConnectionSize, delta.SourceOf(FieldConnectionSize))
	s.AddFeatures(delta.FeatureList()...)
}

func mergeInt(s *Specification, dst **int, v *int, f Field, src Source) {
	if v == nil {
		return
	}
	if *dst != nil && s.SourceOf(f) > src {
		return
	}
	*dst = Int(*v)
	s.SetSource(f, src)
}

func mergeString(s *Specification, dst **string, v *string, f Field, src Source) {
	if v == nil {
		return
	}
	if *dst != nil && s.SourceOf(f) > src {
		return
	}
	val := *v
	*dst = &val
	s.SetSource(f, src)
}

// ClearQuantity drops the quantity, which is consumed once an order is drafted.
func (s *Specification) ClearQuantity() {
	s.Quantity = nil
	s.SetSource(FieldQuantity, SourceNone)
}

// Clear empties the specification.
func (s *Specification) Clear() {
	*s = Specification{}
}

// Clone returns a deep copy.
func (s Specification) Clone() Specification {
	out := Specification{}
	if s.Diameter != nil {
		out.Diameter = Int(*s.Diameter)
	}
	if s.Stroke != nil {
		out.Stroke = Int(*s.Stroke)
	}
	if s.Quantity != nil {
		out.Quantity = Int(*s.Quantity)
	}
	out.Brand = cloneString(s.Brand)
	out.ProductCode = cloneString(s.ProductCode)
	out.ConnectionSize = cloneString(s.ConnectionSize)
	out.AddFeatures(s.FeatureList()...)
	for f, src := range s.Sources {
		out.SetSource(f, src)
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String renders the specification for logs and prompts.
func (s Specification) String() string {
	var parts []string
	if s.Diameter != nil {
		parts = append(parts, "diameter="+strconv.Itoa(*s.Diameter))
	}
	if s.Stroke != nil {
		parts = append(parts, "stroke="+strconv.Itoa(*s.Stroke))
	}
	if f := s.FeatureList(); len(f) > 0 {
		parts = append(parts, "features="+strings.Join(f, ","))
	}
	if s.Quantity != nil {
		parts = append(parts, "quantity="+strconv.Itoa(*s.Quantity))
	}
	if s.Brand != nil {
		parts = append(parts, "brand="+*s.Brand)
	}
	if s.ProductCode != nil {
		parts = append(parts, "code="+*s.ProductCode)
	}
	if s.ConnectionSize != nil {
		parts = append(parts, "connection="+*s.ConnectionSize)
	}
	return "{" + strings.Join(parts, " ") + "}"
}
