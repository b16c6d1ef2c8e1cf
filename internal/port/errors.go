package port

import "errors"

// Sentinel errors used across ports. Callers test with errors.Is; adapters
// wrap them with fmt.Errorf("%w: ...") to add context.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrParse             = errors.New("could not parse file")
	ErrEmbeddingService  = errors.New("embedding service unavailable")
	ErrStorage           = errors.New("storage failure")
	ErrNotFound          = errors.New("document not found")
	ErrSearch            = errors.New("search failed")
)
