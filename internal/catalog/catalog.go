// Package catalog answers product questions: which strokes exist for a
// diameter, which products match a full specification, what a code refers to
// and how much is in stock right now.
//
// Service owns the matching rules and runs over any Source, so SQLite and
// PostgreSQL behave identically.
package catalog

import (
	"context"
	"sort"
)

// ProductRef is a catalogue entry as seen by the conversation. UnitPrice 0
// means the price is quoted by a sales representative.
type ProductRef struct {
	ID          int64   `json:"id"`
	Code        string  `json:"code"`
	DisplayName string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Stock       float64 `json:"stock"`
	UnitPrice   float64 `json:"unit_price"`
}

// InStock reports whether at least one unit is available.
func (p ProductRef) InStock() bool { return p.Stock >= 1 }

// Option is one available value of the missing dimension.
type Option struct {
	Value      int          `json:"value"`
	TotalStock float64      `json:"total_stock"`
	Products   []ProductRef `json:"products,omitempty"`
}

// Options are sorted by value.
type Options []Option

// TotalStock sums the stock of all options.
func (o Options) TotalStock() float64 {
	var sum float64
	for _, opt := range o {
		sum += opt.TotalStock
	}
	return sum
}

// Ranked returns the k options with the most stock, ties by smaller value.
func (o Options) Ranked(k int) Options {
	out := make(Options, len(o))
	copy(out, o)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalStock != out[j].TotalStock {
			return out[i].TotalStock > out[j].TotalStock
		}
		return out[i].Value < out[j].Value
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// Values lists the option values in order.
func (o Options) Values() []int {
	out := make([]int, len(o))
	for i, opt := range o {
		out[i] = opt.Value
	}
	return out
}

// Port is what the conversation needs from the catalogue.
type Port interface {
	StrokeOptionsFor(ctx context.Context, diameter int) (Options, error)
	DiameterOptionsFor(ctx context.Context, stroke int) (Options, error)
	ExactMatch(ctx context.Context, diameter, stroke int, features []string) ([]ProductRef, error)
	// ByCode returns nil, nil when no product has the code.
	ByCode(ctx context.Context, code string) (*ProductRef, error)
	KeywordSearch(ctx context.Context, text string) ([]ProductRef, error)
	CurrentStock(ctx context.Context, productID int64) (float64, error)
}

// Query selects rows from a Source.
type Query struct {
	// All holds folded fragments that must each appear in the folded name
	// (or, with MatchCode, in the lower-cased code).
	All         []string
	MatchCode   bool
	InStockOnly bool
	// Limit <= 0 means no limit.
	Limit int
}

// Source is raw row access to a catalogue store. Rows come ordered by stock,
// highest first, then by code.
type Source interface {
	Find(ctx context.Context, q Query) ([]ProductRef, error)
	ByCode(ctx context.Context, code string) (*ProductRef, error)
	Stock(ctx context.Context, productID int64) (float64, error)
}

// Row is one product line of an import.
type Row struct {
	Code      string
	Name      string
	Brand     string
	Stock     float64
	UnitPrice float64
}

// Writer stores imported rows.
type Writer interface {
	// Upsert inserts or updates rows by code in one transaction and returns
	// the number of rows written.
	Upsert(ctx context.Context, rows []Row) (int, error)
}

// SemanticIndex finds product codes by meaning rather than by substring.
type SemanticIndex interface {
	SearchCodes(ctx context.Context, text string, limit int) ([]string, error)
}
