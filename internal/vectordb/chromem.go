package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/pneumabot/internal/embeddings"
)

const (
	collectionName = "products"
	exportFile     = "products.gob.gz"
)

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

var _ VectorStore = (*ChromemStore)(nil)

// NewChromemStore creates an empty in-memory store.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemStore{db: db, collection: col, embedFunc: ef}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}
	return s.collection.AddDocuments(ctx, chromDocs, runtime.NumCPU())
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 || query == "" {
		return nil, nil
	}
	limit = min(limit, count)

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}
	return out, nil
}

func (s *ChromemStore) DeleteByCode(ctx context.Context, code string) error {
	return s.collection.Delete(ctx, nil, nil, code)
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return s.db.ExportToFile(filepath.Join(dir, exportFile), true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	if err := s.db.ImportFromFile(filepath.Join(dir, exportFile), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// metadataToMap flattens metadata for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"code":         m.Code,
		"brand":        m.Brand,
		"content_hash": m.ContentHash,
		"last_updated": m.LastUpdated.Format(time.RFC3339),
	}
}

func mapToMetadata(m map[string]string) DocumentMetadata {
	lastUpdated, _ := time.Parse(time.RFC3339, m["last_updated"])
	return DocumentMetadata{
		Code:        m["code"],
		Brand:       m["brand"],
		ContentHash: m["content_hash"],
		LastUpdated: lastUpdated,
	}
}

func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil || filter.Brand == nil {
		return nil
	}
	return map[string]string{"brand": *filter.Brand}
}
