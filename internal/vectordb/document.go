package vectordb

import "time"

// Document is one product as stored in the semantic index. ID is the
// product code.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about an indexed product.
type DocumentMetadata struct {
	Code        string
	Brand       string
	ContentHash string
	LastUpdated time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata.
type SearchFilter struct {
	Brand *string
}
