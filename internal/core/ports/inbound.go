package ports

import (
	"context"
	"io"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, userID, filename, mimeType string, body io.Reader) (*domain.Document, error)
	IngestURL(ctx context.Context, userID, rawURL string) (*domain.Document, error)
	IngestTranscript(ctx context.Context, userID, videoURL string) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous document processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetDocument(ctx context.Context, userID, documentID string) (*domain.Document, error)
	ListChunks(ctx context.Context, userID, documentID string, limit int) ([]domain.Chunk, error)
}

// DocumentManager mutates document selection and stored embeddings.
type DocumentManager interface {
	SetSelected(ctx context.Context, userID, documentID string, selected bool) error
	DeleteEmbeddings(ctx context.Context, userID, documentID string) (int, error)
}

// DocumentQueryService answers questions with reconciled citations.
type DocumentQueryService interface {
	Answer(ctx context.Context, question domain.Question) (*domain.Answer, error)
}

// MindmapBuilder clusters stored chunks into a markdown outline.
type MindmapBuilder interface {
	Build(ctx context.Context, req domain.MindmapRequest) (*domain.Mindmap, error)
}

// RecallService drives active-recall quiz sessions.
type RecallService interface {
	Start(ctx context.Context, userID, topic string) (*domain.RecallStart, error)
	Answer(ctx context.Context, sessionID, userAnswer string) (*domain.RecallFeedback, error)
	Get(ctx context.Context, sessionID string) (*domain.RecallSession, error)
	End(ctx context.Context, sessionID string) error
}
