package domain

import "time"

// Document represents an uploaded source file tracked by the search engine.
type Document struct {
	ID         string    `json:"id"          db:"id"`
	Filename   string    `json:"filename"    db:"filename"`
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// DocumentSummary is a Document plus aggregate passage information,
// as returned by list operations.
type DocumentSummary struct {
	Document
	PassageCount int `json:"passage_count" db:"passage_count"`
}

// Passage is a chunk of a document's text stored alongside its embedding
// vector in pgvector.
type Passage struct {
	ID         string    `json:"id"          db:"id"`
	DocumentID string    `json:"document_id" db:"document_id"`
	Position   int       `json:"position"    db:"position"`
	Text       string    `json:"text"        db:"text"`
	Vector     []float32 `json:"-"           db:"embedding"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// SearchResult is a passage returned by similarity search, including its
// normalized relevance score and the filename of its source document.
type SearchResult struct {
	Passage
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
}
