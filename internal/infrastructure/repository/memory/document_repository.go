// Package memory keeps document metadata in process for the local CLI.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

type DocumentRepository struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
	now  func() time.Time
}

func NewDocumentRepository() *DocumentRepository {
	return &DocumentRepository{
		docs: make(map[string]domain.Document),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *DocumentRepository) Create(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create document", errors.New("document id is required"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[doc.ID]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "create document", fmt.Errorf("id %s already exists", doc.ID))
	}
	r.docs[doc.ID] = *doc
	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*domain.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, notFound("get document", id)
	}
	return &doc, nil
}

func (r *DocumentRepository) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	return r.mutate("update status", id, func(doc *domain.Document) {
		doc.Status = status
		doc.Error = errMessage
	})
}

func (r *DocumentRepository) SetChunkCount(_ context.Context, id string, count int) error {
	return r.mutate("set chunk count", id, func(doc *domain.Document) {
		doc.ChunkCount = count
	})
}

func (r *DocumentRepository) SetSelected(_ context.Context, userID, id string, selected bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok || doc.UserID != userID {
		return notFound("set selected", id)
	}
	doc.Selected = selected
	doc.UpdatedAt = r.now()
	r.docs[id] = doc
	return nil
}

// ListSelectedIDs returns selected document ids in creation order.
func (r *DocumentRepository) ListSelectedIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	selected := make([]domain.Document, 0)
	for _, doc := range r.docs {
		if doc.UserID == userID && doc.Selected {
			selected = append(selected, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(selected, func(i, j int) bool {
		if !selected[i].CreatedAt.Equal(selected[j].CreatedAt) {
			return selected[i].CreatedAt.Before(selected[j].CreatedAt)
		}
		return selected[i].ID < selected[j].ID
	})
	ids := make([]string, 0, len(selected))
	for _, doc := range selected {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (r *DocumentRepository) mutate(op, id string, apply func(*domain.Document)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return notFound(op, id)
	}
	apply(&doc)
	doc.UpdatedAt = r.now()
	r.docs[id] = doc
	return nil
}

func notFound(op, id string) error {
	return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id %s", id))
}
