package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/port"
)

// PostgresStore implements port.DocumentStore on Postgres with the pgvector
// extension. Document operations live here; vector-specific operations are
// in vector.go.
type PostgresStore struct {
	db        *sql.DB
	dimension int
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string, dimension int) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db, dimension: dimension}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// InitSchema creates the vector extension and all tables if they do not
// exist. Safe to run on every startup.
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS documents (
			id          UUID PRIMARY KEY,
			filename    TEXT NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS passages (
			id          UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			position    INT NOT NULL,
			text        TEXT NOT NULL,
			embedding   VECTOR(%d) NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dimension),
		`CREATE INDEX IF NOT EXISTS passages_document_id_idx ON passages (document_id)`,
		`CREATE INDEX IF NOT EXISTS passages_embedding_idx ON passages
			USING hnsw (embedding vector_cosine_ops)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id          BIGSERIAL PRIMARY KEY,
			action      TEXT NOT NULL,
			resource    TEXT NOT NULL,
			resource_id TEXT NOT NULL DEFAULT '',
			details     JSONB NOT NULL DEFAULT '{}',
			ip          TEXT NOT NULL DEFAULT '',
			user_agent  TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// --- Documents ---

// DeleteDocument removes a document; passages cascade via foreign key.
func (s *PostgresStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%w: delete document: %v", port.ErrStorage, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete document: %v", port.ErrStorage, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	return nil
}

// ListDocuments returns all documents with passage counts, newest first.
func (s *PostgresStore) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	query := `SELECT d.id, d.filename, d.uploaded_at, COUNT(p.id) AS passage_count
	          FROM documents d
	          LEFT JOIN passages p ON p.document_id = d.id
	          GROUP BY d.id, d.filename, d.uploaded_at
	          ORDER BY d.uploaded_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: list documents: %v", port.ErrStorage, err)
	}
	defer rows.Close()

	var docs []domain.DocumentSummary
	for rows.Next() {
		var d domain.DocumentSummary
		if err := rows.Scan(&d.ID, &d.Filename, &d.UploadedAt, &d.PassageCount); err != nil {
			return nil, fmt.Errorf("%w: scan document: %v", port.ErrStorage, err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Clear removes every document; passages cascade.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("%w: clear documents: %v", port.ErrStorage, err)
	}
	return nil
}

// Stats returns document and passage counts.
func (s *PostgresStore) Stats(ctx context.Context) (documents, passages int, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM documents), (SELECT COUNT(*) FROM passages)`)
	if err := row.Scan(&documents, &passages); err != nil {
		return 0, 0, fmt.Errorf("%w: stats: %v", port.ErrStorage, err)
	}
	return documents, passages, nil
}

// --- Audit Logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4::jsonb, $5, $6)`
	_, err := s.db.ExecContext(context.Background(), query,
		action, resource, resourceID, details, ip, userAgent,
	)
	return err
}

// ListAuditLogs returns recent audit logs with an optional action filter.
func (s *PostgresStore) ListAuditLogs(ctx context.Context, limit int, action string) ([]domain.AuditLog, error) {
	query := `SELECT id, action, resource, resource_id, details::text, ip, user_agent, created_at
	          FROM audit_logs`
	args := []interface{}{}
	argIdx := 1

	if action != "" {
		query += fmt.Sprintf(" WHERE action = $%d", argIdx)
		args = append(args, action)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(
			&l.ID, &l.Action, &l.Resource, &l.ResourceID,
			&l.Details, &l.IP, &l.UserAgent, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
