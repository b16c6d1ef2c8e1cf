package port

import (
	"context"

	"github.com/arosell/go-docsearch/internal/domain"
)

// DocumentStore persists documents with their embedded passages and supports
// nearest-neighbor queries over the passage vectors. Implementations are
// Postgres/pgvector for production and an in-memory store for tests and
// database-less development.
type DocumentStore interface {
	// InsertDocument writes a document and all of its passages in one
	// transaction.
	InsertDocument(ctx context.Context, doc *domain.Document, passages []domain.Passage) error

	// DeleteDocument removes a document and cascades deletion of its
	// passages. Returns ErrNotFound if the id is unknown.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments returns all documents with passage counts, newest first.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// Query returns up to topK passages ranked by cosine similarity to the
	// given vector. An empty index yields an empty slice, not an error.
	Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error)
}
