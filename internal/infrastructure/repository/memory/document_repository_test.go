package memory

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

func TestDocumentLifecycle(t *testing.T) {
	repo := NewDocumentRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, &domain.Document{ID: "d1", UserID: "alice", Status: domain.StatusUploaded}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &domain.Document{ID: "d1", UserID: "alice"}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected duplicate to be rejected, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, "d1", domain.StatusFailed, "index chunks: wrote 2 of 5"); err != nil {
		t.Fatalf("UpdateStatus() error = %v", err)
	}
	if err := repo.SetChunkCount(ctx, "d1", 5); err != nil {
		t.Fatalf("SetChunkCount() error = %v", err)
	}

	doc, err := repo.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Status != domain.StatusFailed || doc.Error == "" || doc.ChunkCount != 5 {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if err := repo.UpdateStatus(ctx, "missing", domain.StatusReady, ""); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestSelectionIsPerUserAndOrdered(t *testing.T) {
	repo := NewDocumentRepository()
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"d2", "d1", "d3"} {
		_ = repo.Create(ctx, &domain.Document{ID: id, UserID: "alice", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}
	_ = repo.Create(ctx, &domain.Document{ID: "b1", UserID: "bob", CreatedAt: base})

	for _, id := range []string{"d3", "d2"} {
		if err := repo.SetSelected(ctx, "alice", id, true); err != nil {
			t.Fatalf("SetSelected(%s) error = %v", id, err)
		}
	}
	if err := repo.SetSelected(ctx, "alice", "b1", true); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected foreign document to be hidden, got %v", err)
	}

	ids, err := repo.ListSelectedIDs(ctx, "alice")
	if err != nil {
		t.Fatalf("ListSelectedIDs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"d2", "d3"}) {
		t.Fatalf("ListSelectedIDs() = %v, want [d2 d3]", ids)
	}
}
