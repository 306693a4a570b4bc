package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

// DocumentUseCase serves document reads and management. A document owned
// by another user is reported as not found.
type DocumentUseCase struct {
	repo     ports.DocumentRepository
	vectorDB ports.VectorStore
}

func NewDocumentUseCase(repo ports.DocumentRepository, vectorDB ports.VectorStore) *DocumentUseCase {
	return &DocumentUseCase{repo: repo, vectorDB: vectorDB}
}

func (uc *DocumentUseCase) GetDocument(ctx context.Context, userID, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %s", documentID))
	}
	return doc, nil
}

func (uc *DocumentUseCase) ListChunks(ctx context.Context, userID, documentID string, limit int) ([]domain.Chunk, error) {
	if _, err := uc.GetDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}
	chunks, err := uc.vectorDB.ListByDocument(ctx, userID, documentID, false)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	if limit > 0 && len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func (uc *DocumentUseCase) SetSelected(ctx context.Context, userID, documentID string, selected bool) error {
	if err := uc.repo.SetSelected(ctx, userID, documentID, selected); err != nil {
		return fmt.Errorf("set selected: %w", err)
	}
	return nil
}

// DeleteEmbeddings removes one document's vectors, or all of the user's
// vectors when documentID is empty, and returns how many were deleted.
func (uc *DocumentUseCase) DeleteEmbeddings(ctx context.Context, userID, documentID string) (int, error) {
	filter := domain.SearchFilter{}
	if documentID != "" {
		if _, err := uc.GetDocument(ctx, userID, documentID); err != nil {
			return 0, err
		}
		filter.DocumentIDs = []string{documentID}
	}

	deleted, err := uc.vectorDB.Delete(ctx, userID, filter)
	if err != nil {
		return 0, fmt.Errorf("delete embeddings: %w", err)
	}

	if documentID != "" {
		if err := uc.repo.SetChunkCount(ctx, documentID, 0); err != nil {
			slog.Warn("chunk_count_reset_failed", "document_id", documentID, "error", err)
		}
	}
	slog.Info("embeddings_deleted", "user_id", userID, "document_id", documentID, "count", deleted)
	return deleted, nil
}
