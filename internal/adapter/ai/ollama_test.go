package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arosell/go-docsearch/internal/port"
)

// fakeOllama returns a test server that answers /api/embed with one vector
// per input, each of the given dimension.
func fakeOllama(t *testing.T, dimension int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input json.RawMessage `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		count := 1
		var batch []string
		if err := json.Unmarshal(req.Input, &batch); err == nil {
			count = len(batch)
		}

		embeddings := make([][]float32, count)
		for i := range embeddings {
			embeddings[i] = make([]float32, dimension)
			embeddings[i][0] = 1
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"embeddings": embeddings})
	}))
}

func TestOllamaEmbed(t *testing.T) {
	ts := fakeOllama(t, 4)
	defer ts.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: ts.URL, Model: "all-minilm", Dimension: 4})

	vec, err := p.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("expected 4-dimensional vector, got %d", len(vec))
	}
	if p.ModelName() != "all-minilm" || p.Dimension() != 4 {
		t.Error("provider metadata mismatch")
	}
}

func TestOllamaEmbedBatch(t *testing.T) {
	ts := fakeOllama(t, 4)
	defer ts.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: ts.URL, Model: "all-minilm", Dimension: 4})

	vectors, err := p.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Errorf("expected 3 vectors, got %d", len(vectors))
	}
}

func TestOllamaDimensionMismatch(t *testing.T) {
	ts := fakeOllama(t, 8)
	defer ts.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: ts.URL, Model: "all-minilm", Dimension: 4})

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, port.ErrEmbeddingService) {
		t.Errorf("expected ErrEmbeddingService on dimension mismatch, got %v", err)
	}
}

func TestOllamaServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer ts.Close()

	p := NewOllamaProvider(OllamaConfig{BaseURL: ts.URL, Model: "missing", Dimension: 4})

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, port.ErrEmbeddingService) {
		t.Errorf("expected ErrEmbeddingService, got %v", err)
	}
}

func TestOllamaUnreachable(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{BaseURL: "http://127.0.0.1:1", Model: "all-minilm", Dimension: 4})

	_, err := p.Embed(context.Background(), "hello")
	if !errors.Is(err, port.ErrEmbeddingService) {
		t.Errorf("expected ErrEmbeddingService, got %v", err)
	}
}
