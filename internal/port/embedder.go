package port

import "context"

// Embedder abstracts the embedding backend for text vectorization.
// Implementations can target Ollama or any compatible API. Every vector
// produced by one implementation has the same fixed dimension.
type Embedder interface {
	// ModelName returns the identifier of the embedding model.
	ModelName() string

	// Dimension returns the length of every vector this embedder produces.
	Dimension() int

	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
