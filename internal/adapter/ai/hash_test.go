package ai

import (
	"context"
	"math"
	"testing"
)

func TestHashingEmbedderDeterminism(t *testing.T) {
	h := NewHashingEmbedder(64)
	ctx := context.Background()

	first, err := h.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := h.Embed(ctx, "the quick brown fox")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vectors differ at index %d", i)
		}
	}
}

func TestHashingEmbedderNormalized(t *testing.T) {
	h := NewHashingEmbedder(64)

	vec, err := h.Embed(context.Background(), "machine learning is a subset of artificial intelligence")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != h.Dimension() {
		t.Fatalf("expected %d dimensions, got %d", h.Dimension(), len(vec))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("expected unit vector, got norm^2 = %g", norm)
	}
}

func TestHashingEmbedderOverlapScoresHigher(t *testing.T) {
	h := NewHashingEmbedder(128)
	ctx := context.Background()

	doc, _ := h.Embed(ctx, "the quick brown fox jumps over the lazy dog")
	related, _ := h.Embed(ctx, "quick fox")
	unrelated, _ := h.Embed(ctx, "postgres vector indexes")

	if dot32(doc, related) <= dot32(doc, unrelated) {
		t.Error("expected overlapping tokens to score higher than unrelated text")
	}
}

func TestHashingEmbedderBatch(t *testing.T) {
	h := NewHashingEmbedder(32)

	vectors, err := h.EmbedBatch(context.Background(), []string{"one", "two", ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for _, v := range vectors {
		if len(v) != 32 {
			t.Errorf("expected 32 dimensions, got %d", len(v))
		}
	}
}

// dot32 computes the dot product of two normalized vectors.
func dot32(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
