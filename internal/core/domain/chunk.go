package domain

import "fmt"

// Sentence is the working record of the semantic chunker. It lives only
// for the duration of one chunking call.
type Sentence struct {
	Index          int
	Text           string
	CombinedText   string
	Embedding      []float32
	DistanceToNext float64
}

// Chunk is a contiguous span of sentences stored as one retrieval unit.
type Chunk struct {
	ChunkID    string    `json:"chunk_id"`
	DocumentID string    `json:"doc_id"`
	UserID     string    `json:"user_id"`
	Filename   string    `json:"filename"`
	PageNumber int       `json:"page_number"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
}

// ChunkID is deterministic so that re-processing a document overwrites
// its previous points instead of duplicating them.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, index)
}
