// Package chunker splits document text into overlapping passages.
package chunker

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// DefaultChunkSize is the default passage size in characters.
const DefaultChunkSize = 300

// DefaultChunkOverlap is the default overlap between passages in characters.
const DefaultChunkOverlap = 100

// Chunker splits text recursively on paragraph, line, sentence and word
// boundaries into windows of roughly chunkSize characters.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the passage size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between passages in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// ChunkSize returns the configured passage size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured passage overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split breaks text into ordered passages. Whitespace-only fragments are
// dropped, so empty input yields no passages.
func (c *Chunker) Split(text string) ([]string, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(c.chunkSize),
		textsplitter.WithChunkOverlap(c.overlap),
	)

	raw, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, len(raw))
	for _, chunk := range raw {
		if trimmed := strings.TrimSpace(chunk); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks, nil
}
