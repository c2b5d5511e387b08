package database

import (
	"context"
	"errors"
)

// Document is one index document with its externally-derived identifier.
type Document struct {
	ID     string
	Source Record
}

// ErrDocumentNotFound is returned by GetByID when the document does not exist.
var ErrDocumentNotFound = errors.New("index: document not found")

// IndexStore is the derived, read-optimized document store. All writes go
// through the sync core so document ids stay deterministic. Implementations
// must be safe for concurrent use.
type IndexStore interface {
	// Upsert creates or fully replaces the document with the given id.
	Upsert(ctx context.Context, index, docID string, doc Record) error

	// BulkInsert upserts all documents in one store call.
	BulkInsert(ctx context.Context, index string, docs []Document) error

	// Update merges attrs into an existing document.
	Update(ctx context.Context, index, docID string, attrs Record) error

	// GetByID returns the document source, or ErrDocumentNotFound.
	GetByID(ctx context.Context, index, docID string) (Record, error)

	// Search returns the sources of documents whose field matches any of
	// the given values.
	Search(ctx context.Context, index, field string, values []string) ([]Record, error)
}
