package rag

import (
	"path/filepath"
	"time"
)

// IndexConfig metadata record for one ingested document, 1:1 with its vector index.
type IndexConfig struct {
	IndexID        string    `json:"index_id"`
	DocumentPath   string    `json:"document_path"`
	CreatedAt      time.Time `json:"created_at"`
	Language       string    `json:"language,omitempty"` // ISO 639-1, "" until detected
	EmbeddingModel string    `json:"embedding_model"`
	ChunkCount     int       `json:"chunk_count"`
}

// DocumentName returns the display name derived from the document path.
func (c *IndexConfig) DocumentName() string {
	return filepath.Base(c.DocumentPath)
}

// PageSegment one page (or section) of extracted document text, in document order.
type PageSegment struct {
	Page int    `json:"page"` // 1-based
	Text string `json:"text"`
}

// Chunk a bounded span of document text with its embedding vector.
type Chunk struct {
	Text   string    `json:"text"`
	Vector []float32 `json:"vector,omitempty"`
	Page   int       `json:"page"`   // source page, 1-based
	Offset int       `json:"offset"` // position within the document's chunk sequence
}

// ChatMessage one turn of a conversation. History is owned by the caller and
// passed into the engine on every chat call.
type ChatMessage struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SearchScope the set of index IDs a chat query may retrieve from.
type SearchScope []string

// RetrievedSource one grounding chunk actually placed in the prompt,
// returned to the caller for citation.
type RetrievedSource struct {
	IndexID      string  `json:"index_id"`
	DocumentName string  `json:"document_name"`
	Page         int     `json:"page"`
	ChunkOffset  int     `json:"chunk_offset"`
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
}
