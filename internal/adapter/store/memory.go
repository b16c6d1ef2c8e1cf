package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/port"
)

// MemoryStore is an in-memory port.DocumentStore using brute-force cosine
// similarity. It backs tests and database-less development.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]domain.Document
	passages []domain.Passage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]domain.Document)}
}

// InsertDocument stores the document and its passages atomically.
func (m *MemoryStore) InsertDocument(_ context.Context, doc *domain.Document, passages []domain.Passage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[doc.ID]; exists {
		return fmt.Errorf("%w: duplicate document id %s", port.ErrStorage, doc.ID)
	}
	m.docs[doc.ID] = *doc
	m.passages = append(m.passages, passages...)
	return nil
}

// DeleteDocument drops the document and every passage referencing it.
func (m *MemoryStore) DeleteDocument(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docs[id]; !exists {
		return fmt.Errorf("%w: %s", port.ErrNotFound, id)
	}
	delete(m.docs, id)

	kept := m.passages[:0]
	for _, p := range m.passages {
		if p.DocumentID != id {
			kept = append(kept, p)
		}
	}
	m.passages = kept
	return nil
}

// ListDocuments returns all documents with passage counts, newest first.
func (m *MemoryStore) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range m.passages {
		counts[p.DocumentID]++
	}

	docs := make([]domain.DocumentSummary, 0, len(m.docs))
	for _, d := range m.docs {
		docs = append(docs, domain.DocumentSummary{Document: d, PassageCount: counts[d.ID]})
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Query scores every passage by cosine similarity and returns the topK best.
func (m *MemoryStore) Query(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if topK <= 0 || len(m.passages) == 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(m.passages))
	for _, p := range m.passages {
		doc := m.docs[p.DocumentID]
		results = append(results, domain.SearchResult{
			Passage:  p,
			Filename: doc.Filename,
			Score:    cosine(p.Vector, vector),
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// cosine computes cosine similarity without assuming normalized input.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
