package vectordb

import "context"

// VectorStore stores product documents and searches them by embedding.
type VectorStore interface {
	// AddDocuments adds or replaces documents by ID.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// DeleteByCode removes the document of a product.
	DeleteByCode(ctx context.Context, code string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
