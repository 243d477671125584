package vectordb

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziadkadry99/pneumabot/internal/catalog"
	"github.com/ziadkadry99/pneumabot/internal/progress"
)

// DefaultMinSimilarity drops matches too weak to show a customer.
const DefaultMinSimilarity = 0.2

const indexBatch = 200

// ProductIndex is the semantic side of keyword search: it embeds product
// names and answers free-text queries with product codes.
type ProductIndex struct {
	store         VectorStore
	minSimilarity float32
	now           func() time.Time
}

var _ catalog.SemanticIndex = (*ProductIndex)(nil)

// NewProductIndex wraps store. minSimilarity <= 0 uses DefaultMinSimilarity.
func NewProductIndex(store VectorStore, minSimilarity float32) *ProductIndex {
	if minSimilarity <= 0 {
		minSimilarity = DefaultMinSimilarity
	}
	return &ProductIndex{store: store, minSimilarity: minSimilarity, now: time.Now}
}

// Content is the text embedded for a product.
func Content(p catalog.ProductRef) string {
	parts := []string{p.DisplayName}
	if p.Brand != "" {
		parts = append(parts, p.Brand)
	}
	return strings.Join(parts, " ")
}

func contentHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// IndexProducts adds or replaces the documents of products.
func (x *ProductIndex) IndexProducts(ctx context.Context, products []catalog.ProductRef, rep progress.Reporter) (int, error) {
	if rep == nil {
		rep = progress.Nop{}
	}
	rep.Start(len(products))
	defer rep.Finish()

	now := x.now()
	for start := 0; start < len(products); start += indexBatch {
		batch := products[start:min(start+indexBatch, len(products))]
		docs := make([]Document, 0, len(batch))
		for _, p := range batch {
			if p.Code == "" {
				continue
			}
			content := Content(p)
			docs = append(docs, Document{
				ID:      p.Code,
				Content: content,
				Metadata: DocumentMetadata{
					Code:        p.Code,
					Brand:       p.Brand,
					ContentHash: contentHash(content),
					LastUpdated: now,
				},
			})
		}
		if err := x.store.AddDocuments(ctx, docs); err != nil {
			return start, fmt.Errorf("indexing products: %w", err)
		}
		rep.Update(start+len(batch), batch[len(batch)-1].Code)
	}
	return len(products), nil
}

// SearchCodes returns the codes of the products closest to text, best
// first, skipping weak matches.
func (x *ProductIndex) SearchCodes(ctx context.Context, text string, limit int) ([]string, error) {
	results, err := x.store.Search(ctx, strings.TrimSpace(text), limit, nil)
	if err != nil {
		return nil, err
	}
	var codes []string
	for _, r := range results {
		if r.Similarity < x.minSimilarity {
			continue
		}
		codes = append(codes, r.Document.ID)
	}
	return codes, nil
}

// Persist writes the index to dir.
func (x *ProductIndex) Persist(ctx context.Context, dir string) error {
	return x.store.Persist(ctx, dir)
}

// LoadIfExists restores a persisted index. A missing index is not an error;
// it reports false so callers can run without semantic search.
func (x *ProductIndex) LoadIfExists(ctx context.Context, dir string) (bool, error) {
	if _, err := os.Stat(filepath.Join(dir, exportFile)); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := x.store.Load(ctx, dir); err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of indexed products.
func (x *ProductIndex) Count() int { return x.store.Count() }

// Search returns scored documents for text, optionally limited to a brand.
func (x *ProductIndex) Search(ctx context.Context, text string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	return x.store.Search(ctx, strings.TrimSpace(text), limit, filter)
}
