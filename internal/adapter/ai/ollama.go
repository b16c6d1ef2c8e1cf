package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/arosell/go-docsearch/internal/port"
)

// OllamaConfig holds the configuration for the Ollama embedding endpoint.
type OllamaConfig struct {
	BaseURL   string // e.g. http://localhost:11434 or https://api.ollama.com
	Model     string // e.g. all-minilm, bge-m3
	Token     string // Bearer token for Ollama Cloud (empty = no auth)
	Dimension int    // expected vector length, e.g. 384
}

// OllamaProvider implements port.Embedder using the Ollama REST API.
type OllamaProvider struct {
	cfg        OllamaConfig
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama-backed embedder.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	return &OllamaProvider{
		cfg:        cfg,
		httpClient: &http.Client{},
	}
}

// ModelName returns the embedding model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.cfg.Model
}

// Dimension returns the configured vector length.
func (o *OllamaProvider) Dimension() int {
	return o.cfg.Dimension
}

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: ollama returned no embedding", port.ErrEmbeddingService)
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := o.embed(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: ollama returned %d embeddings for %d inputs",
			port.ErrEmbeddingService, len(vectors), len(texts))
	}
	return vectors, nil
}

// embed posts a single or batched input to /api/embed and validates the
// dimension of every returned vector.
func (o *OllamaProvider) embed(ctx context.Context, input interface{}) ([][]float32, error) {
	payload := map[string]interface{}{
		"model": o.cfg.Model,
		"input": input,
	}

	body, err := o.post(ctx, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrEmbeddingService, err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", port.ErrEmbeddingService, err)
	}

	for _, v := range resp.Embeddings {
		if o.cfg.Dimension > 0 && len(v) != o.cfg.Dimension {
			return nil, fmt.Errorf("%w: model %s returned %d-dimensional vector, want %d",
				port.ErrEmbeddingService, o.cfg.Model, len(v), o.cfg.Dimension)
		}
	}

	return resp.Embeddings, nil
}

// post is a helper for POST requests to the Ollama endpoint (with optional
// bearer token).
func (o *OllamaProvider) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
