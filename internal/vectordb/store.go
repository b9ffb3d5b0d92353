package vectordb

import (
	"context"

	"github.com/biomindlabs/biorag/internal/passage"
)

// Document is a corpus passage stored in the vector index.
type Document struct {
	ID      string
	Content string
	Meta    passage.Metadata
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata fields.
type SearchFilter struct {
	Source     *string
	SourceType *passage.SourceType
}

// VectorStore stores passages and searches them by embedding similarity.
type VectorStore interface {
	// AddDocuments adds or updates documents in the store.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text.
	Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error)

	// DeleteBySource removes all documents fetched from the given source.
	DeleteBySource(ctx context.Context, source string) error

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
