package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arosell/go-docsearch/internal/adapter/extract"
	"github.com/arosell/go-docsearch/internal/chunker"
	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/port"
)

// IngestService runs the write path: extract text, chunk it, embed every
// passage, and store the result.
type IngestService struct {
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	embedder  port.Embedder
	store     port.DocumentStore
}

// NewIngestService creates a new ingest service.
func NewIngestService(extractor *extract.Extractor, chunker *chunker.Chunker, embedder port.Embedder, store port.DocumentStore) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
	}
}

// Ingest processes one uploaded file end to end and returns the created
// document with its passage count.
func (s *IngestService) Ingest(ctx context.Context, filename string, data []byte) (*domain.DocumentSummary, error) {
	text, err := s.extractor.Extract(filename, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %s contains no text", port.ErrParse, filepath.Base(filename))
	}

	chunks, err := s.chunker.Split(text)
	if err != nil {
		return nil, fmt.Errorf("%w: split text: %v", port.ErrParse, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s produced no passages", port.ErrParse, filepath.Base(filename))
	}

	vectors, err := s.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d vectors for %d passages",
			port.ErrEmbeddingService, len(vectors), len(chunks))
	}

	doc := &domain.Document{
		ID:         uuid.NewString(),
		Filename:   filepath.Base(filename),
		UploadedAt: time.Now().UTC(),
	}

	passages := make([]domain.Passage, len(chunks))
	for i, chunk := range chunks {
		passages[i] = domain.Passage{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Position:   i,
			Text:       chunk,
			Vector:     vectors[i],
			CreatedAt:  doc.UploadedAt,
		}
	}

	if err := s.store.InsertDocument(ctx, doc, passages); err != nil {
		return nil, err
	}

	slog.Info("document ingested",
		"id", doc.ID,
		"filename", doc.Filename,
		"passages", len(passages),
		"model", s.embedder.ModelName(),
	)

	return &domain.DocumentSummary{Document: *doc, PassageCount: len(passages)}, nil
}

// Delete removes a document and all of its passages.
func (s *IngestService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	return s.store.DeleteDocument(ctx, id)
}

// List returns all ingested documents with passage counts.
func (s *IngestService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	return s.store.ListDocuments(ctx)
}
