package store

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/port"
)

// InsertDocument writes a document and its passages in one transaction.
// Either everything lands or nothing does.
func (s *PostgresStore) InsertDocument(ctx context.Context, doc *domain.Document, passages []domain.Passage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin tx: %v", port.ErrStorage, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, filename, uploaded_at) VALUES ($1, $2, $3)`,
		doc.ID, doc.Filename, doc.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert document: %v", port.ErrStorage, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passages (id, document_id, position, text, embedding)
		 VALUES ($1, $2, $3, $4, $5)`)
	if err != nil {
		return fmt.Errorf("%w: prepare: %v", port.ErrStorage, err)
	}
	defer stmt.Close()

	for _, p := range passages {
		if len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: passage %d has %d-dimensional vector, want %d",
				port.ErrStorage, p.Position, len(p.Vector), s.dimension)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, doc.ID, p.Position, p.Text, pgvector.NewVector(p.Vector),
		); err != nil {
			return fmt.Errorf("%w: insert passage: %v", port.ErrStorage, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", port.ErrStorage, err)
	}
	return nil
}

// Query performs a cosine similarity search over all passages and reports
// similarity as 1 - cosine distance.
func (s *PostgresStore) Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	query := `SELECT p.id, p.document_id, p.position, p.text, p.created_at, d.filename,
	                 1 - (p.embedding <=> $1) AS score
	          FROM passages p
	          JOIN documents d ON d.id = p.document_id
	          ORDER BY p.embedding <=> $1
	          LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, pgvector.NewVector(vector), topK)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity query: %v", port.ErrStorage, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var r domain.SearchResult
		if err := rows.Scan(
			&r.ID, &r.DocumentID, &r.Position, &r.Text, &r.CreatedAt,
			&r.Filename, &r.Score,
		); err != nil {
			return nil, fmt.Errorf("%w: scan result: %v", port.ErrStorage, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
