// Package catalogtest provides an in-memory catalogue source for tests of
// packages built on catalog.Port.
package catalogtest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// MemorySource is a catalog.Source over a product slice. Set Err to make
// every call fail.
type MemorySource struct {
	mu       sync.Mutex
	products []catalog.ProductRef
	Err      error
}

var _ catalog.Source = (*MemorySource)(nil)

// NewMemorySource copies products, assigning IDs to those without one.
func NewMemorySource(products ...catalog.ProductRef) *MemorySource {
	s := &MemorySource{}
	for i, p := range products {
		if p.ID == 0 {
			p.ID = int64(i + 1)
		}
		s.products = append(s.products, p)
	}
	return s
}

// NewService returns a catalog.Service over a MemorySource of products.
func NewService(products ...catalog.ProductRef) (*catalog.Service, *MemorySource) {
	src := NewMemorySource(products...)
	return catalog.NewService(src, nil, zerolog.Nop()), src
}

// SetStock changes the stock of the product with code.
func (s *MemorySource) SetStock(code string, stock float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.products {
		if strings.EqualFold(s.products[i].Code, code) {
			s.products[i].Stock = stock
		}
	}
}

func (s *MemorySource) Find(_ context.Context, q catalog.Query) ([]catalog.ProductRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []catalog.ProductRef
	for _, p := range s.products {
		if q.InStockOnly && p.Stock < 1 {
			continue
		}
		if matchesAll(p, q) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock > out[j].Stock
		}
		return out[i].Code < out[j].Code
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func matchesAll(p catalog.ProductRef, q catalog.Query) bool {
	name := textnorm.Fold(p.DisplayName)
	code := strings.ToLower(p.Code)
	for _, term := range q.All {
		term = textnorm.Fold(term)
		if strings.Contains(name, term) {
			continue
		}
		if q.MatchCode && strings.Contains(code, term) {
			continue
		}
		return false
	}
	return true
}

func (s *MemorySource) ByCode(_ context.Context, code string) (*catalog.ProductRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	for _, p := range s.products {
		if strings.EqualFold(p.Code, code) {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *MemorySource) Stock(_ context.Context, productID int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	for _, p := range s.products {
		if p.ID == productID {
			return p.Stock, nil
		}
	}
	return 0, nil
}

// SetErr makes subsequent calls fail with err (nil restores service).
func (s *MemorySource) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}
