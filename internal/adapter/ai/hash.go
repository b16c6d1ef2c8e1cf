package ai

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashingEmbedder is a deterministic, dependency-free embedder that maps each
// token into a hashed bag-of-words bucket and L2-normalizes the result. It is
// no substitute for a sentence-embedding model, but its cosine similarity
// still rewards token overlap, which is enough for tests and for running the
// engine without an Ollama instance.
type HashingEmbedder struct {
	dimension int
}

// NewHashingEmbedder creates a hashing embedder with the given dimension.
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashingEmbedder{dimension: dimension}
}

// ModelName returns the identifier of this embedder.
func (h *HashingEmbedder) ModelName() string {
	return "hashing-bow"
}

// Dimension returns the vector length.
func (h *HashingEmbedder) Dimension() int {
	return h.dimension
}

// Embed produces the hashed bag-of-words vector for text. Identical input
// always yields an identical vector.
func (h *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dimension)
	for _, token := range tokenize(text) {
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		vec[hasher.Sum32()%uint32(h.dimension)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// EmbedBatch embeds each text independently.
func (h *HashingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := h.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

// tokenize lowercases text and splits it on any non-letter, non-digit rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
