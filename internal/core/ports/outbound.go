package ports

import (
	"context"
	"io"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SetChunkCount(ctx context.Context, id string, count int) error
	SetSelected(ctx context.Context, userID, id string, selected bool) error
	ListSelectedIDs(ctx context.Context, userID string) ([]string, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns raw bytes into per-page text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType, filename string) ([]domain.Page, error)
}

// WebFetcher downloads a web page body.
type WebFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, string, error)
}

// TranscriptFetcher resolves a video link to its caption text.
type TranscriptFetcher interface {
	FetchTranscript(ctx context.Context, rawURL string) (*domain.Transcript, error)
}

// SentenceSegmenter splits text into ordered sentences.
type SentenceSegmenter interface {
	Segment(text string) []string
}

// Chunker splits page text into retrieval chunks.
type Chunker interface {
	Split(ctx context.Context, text string) ([]string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator completes a chat transcript.
type Generator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

// VectorStore keeps one logical collection per user.
type VectorStore interface {
	Upsert(ctx context.Context, userID string, chunks []domain.Chunk) error
	Search(ctx context.Context, userID string, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedDocument, error)
	Delete(ctx context.Context, userID string, filter domain.SearchFilter) (int, error)
	ListByDocument(ctx context.Context, userID, documentID string, withVectors bool) ([]domain.Chunk, error)
}

// RecallSessionStore holds active-recall sessions keyed by session id.
type RecallSessionStore interface {
	Create(ctx context.Context, session *domain.RecallSession) error
	Get(ctx context.Context, id string) (*domain.RecallSession, error)
	Update(ctx context.Context, id string, mutate func(*domain.RecallSession) error) (*domain.RecallSession, error)
	Delete(ctx context.Context, id string) error
}

// MindmapStore persists generated outlines.
type MindmapStore interface {
	SaveOutline(ctx context.Context, userID string, documentIDs []string, markdown string) error
}
