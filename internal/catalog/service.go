package catalog

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/pneumabot/internal/errs"
	"github.com/ziadkadry99/pneumabot/internal/textnorm"
)

// KeywordLimit caps keyword search results.
const KeywordLimit = 15

// exactMatchScan bounds how many candidate rows ExactMatch inspects.
const exactMatchScan = 500

// Service implements Port over a Source.
type Service struct {
	src      Source
	semantic SemanticIndex
	log      zerolog.Logger
}

// NewService creates a catalogue service. semantic may be nil.
func NewService(src Source, semantic SemanticIndex, log zerolog.Logger) *Service {
	return &Service{src: src, semantic: semantic, log: log}
}

var _ Port = (*Service)(nil)

func unavailable(err error, op string) error {
	if err == nil {
		return nil
	}
	return errs.Wrap(err, errs.KindCatalogUnavailable, op)
}

// StrokeOptionsFor lists the strokes stocked for a diameter with their
// aggregate stock.
func (s *Service) StrokeOptionsFor(ctx context.Context, diameter int) (Options, error) {
	rows, err := s.src.Find(ctx, Query{All: []string{strconv.Itoa(diameter)}, InStockOnly: true})
	if err != nil {
		return nil, unavailable(err, "catalog.stroke_options")
	}
	return collectOptions(rows, strokeRe(diameter), diameter), nil
}

// DiameterOptionsFor lists the diameters stocked for a stroke.
func (s *Service) DiameterOptionsFor(ctx context.Context, stroke int) (Options, error) {
	rows, err := s.src.Find(ctx, Query{All: []string{strconv.Itoa(stroke)}, InStockOnly: true})
	if err != nil {
		return nil, unavailable(err, "catalog.diameter_options")
	}
	return collectOptions(rows, diameterRe(stroke), stroke), nil
}

// ExactMatch returns products whose name carries diameter x stroke, ranked by
// how many of the requested features they mention.
func (s *Service) ExactMatch(ctx context.Context, diameter, stroke int, features []string) ([]ProductRef, error) {
	all := []string{strconv.Itoa(diameter)}
	if stroke != diameter {
		all = append(all, strconv.Itoa(stroke))
	}
	rows, err := s.src.Find(ctx, Query{All: all, Limit: exactMatchScan})
	if err != nil {
		return nil, unavailable(err, "catalog.exact_match")
	}
	var hits []ProductRef
	for _, p := range rows {
		if dimensionsMatch(p.DisplayName, diameter, stroke) {
			hits = append(hits, p)
		}
	}
	return rank(hits, features), nil
}

// ByCode looks a product up by its exact code, case-insensitively.
func (s *Service) ByCode(ctx context.Context, code string) (*ProductRef, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	p, err := s.src.ByCode(ctx, code)
	if err != nil {
		return nil, unavailable(err, "catalog.by_code")
	}
	return p, nil
}

// KeywordSearch finds products whose name contains every meaningful word of
// text. When nothing matches and a semantic index is configured, the index
// is asked instead.
func (s *Service) KeywordSearch(ctx context.Context, text string) ([]ProductRef, error) {
	terms := textnorm.SearchTerms(text)
	if len(terms) == 0 {
		return nil, nil
	}
	rows, err := s.src.Find(ctx, Query{All: terms, MatchCode: true, Limit: KeywordLimit})
	if err != nil {
		return nil, unavailable(err, "catalog.keyword_search")
	}
	if len(rows) > 0 || s.semantic == nil {
		return rows, nil
	}
	return s.semanticSearch(ctx, text)
}

func (s *Service) semanticSearch(ctx context.Context, text string) ([]ProductRef, error) {
	codes, err := s.semantic.SearchCodes(ctx, text, KeywordLimit)
	if err != nil {
		// The index is an extra; a broken index is not a catalogue outage.
		s.log.Warn().Err(err).Msg("semantic search failed")
		return nil, nil
	}
	var out []ProductRef
	for _, code := range codes {
		p, err := s.src.ByCode(ctx, code)
		if err != nil {
			return nil, unavailable(err, "catalog.semantic_search")
		}
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

// CurrentStock re-reads the live stock of a product.
func (s *Service) CurrentStock(ctx context.Context, productID int64) (float64, error) {
	n, err := s.src.Stock(ctx, productID)
	if err != nil {
		return 0, unavailable(err, "catalog.current_stock")
	}
	return n, nil
}
