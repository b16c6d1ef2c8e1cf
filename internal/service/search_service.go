package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arosell/go-docsearch/internal/domain"
	"github.com/arosell/go-docsearch/internal/port"
)

// SearchService runs the read path: embed the query and rank passages by
// vector similarity.
type SearchService struct {
	embedder    port.Embedder
	store       port.DocumentStore
	defaultTopK int
	minScore    float64
}

// NewSearchService creates a new search service. defaultTopK applies when a
// caller passes topK <= 0; results scoring below minScore are dropped.
func NewSearchService(embedder port.Embedder, store port.DocumentStore, defaultTopK int, minScore float64) *SearchService {
	if defaultTopK <= 0 {
		defaultTopK = 5
	}
	return &SearchService{
		embedder:    embedder,
		store:       store,
		defaultTopK: defaultTopK,
		minScore:    minScore,
	}
}

// Search embeds the query and returns up to topK passages ranked by
// similarity. Failures of the embedder or the store are wrapped as search
// errors with the cause preserved.
func (s *SearchService) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = s.defaultTopK
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", port.ErrSearch, err)
	}

	// Over-fetch so the relevance cutoff below still leaves topK candidates.
	candidates, err := s.store.Query(ctx, vector, topK*2)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", port.ErrSearch, err)
	}

	results := make([]domain.SearchResult, 0, topK)
	for _, r := range candidates {
		if r.Score < s.minScore {
			continue
		}
		results = append(results, r)
		if len(results) == topK {
			break
		}
	}

	slog.Info("search", "query", query, "top_k", topK, "results", len(results))
	return results, nil
}
