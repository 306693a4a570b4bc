package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/Htaaxx/NotebookLLM/internal/bootstrap"
	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
	"github.com/Htaaxx/NotebookLLM/internal/core/usecase"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/repository/memory"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/storage/localfs"
	vectormemory "github.com/Htaaxx/NotebookLLM/internal/infrastructure/vector/memory"
)

const localUser = "local"

// notebook runs the ingestion pipeline in process against in-memory stores
// so a handful of files can be queried without Postgres, NATS or Qdrant.
type notebook struct {
	ingest  *usecase.IngestDocumentUseCase
	query   *usecase.QueryUseCase
	mindmap *usecase.MindmapUseCase
	repo    *memory.DocumentRepository
	dir     string
}

// inlineQueue processes a document as soon as it is published.
type inlineQueue struct {
	process ports.DocumentProcessor
}

func (q inlineQueue) PublishDocumentIngested(ctx context.Context, documentID string) error {
	return q.process.ProcessByID(ctx, documentID)
}

func (q inlineQueue) SubscribeDocumentIngested(ctx context.Context, _ func(context.Context, string) error) error {
	<-ctx.Done()
	return nil
}

func newNotebook(cfg config.Config, embedder ports.Embedder, generator ports.Generator) (*notebook, error) {
	dir, err := os.MkdirTemp("", "notebookctl-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	storage, err := localfs.New(dir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("init scratch storage: %w", err)
	}
	chunker, err := bootstrap.NewChunker(cfg, embedder)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	repo := memory.NewDocumentRepository()
	vectors := vectormemory.New()
	process := usecase.NewProcessDocumentUseCase(repo, storage, bootstrap.NewExtractor(), chunker, embedder, vectors, usecase.ProcessOptions{
		EmbeddingBatchSize:   cfg.EmbeddingBatchSize,
		VectorWriteBatchSize: cfg.VectorWriteBatchSize,
	})

	return &notebook{
		ingest: usecase.NewIngestDocumentUseCase(repo, storage, inlineQueue{process: process}, nil, nil),
		query: usecase.NewQueryUseCase(repo, embedder, vectors, generator, usecase.QueryOptions{
			TopK:            cfg.RAGTopK,
			ContextChars:    cfg.ContextPreviewChars,
			PreviewChars:    cfg.CitationPreviewChars,
			SummaryKeywords: cfg.SummaryKeywords,
		}),
		mindmap: usecase.NewMindmapUseCase(vectors, generator, bootstrap.NewClusterEngine(cfg), usecase.NewCPUPool(cfg.CPUWorkers), nil, usecase.MindmapOptions{
			DefaultClusters: cfg.MindmapDefaultClusters,
			Concurrency:     cfg.MindmapConcurrency,
		}),
		repo: repo,
		dir:  dir,
	}, nil
}

// addFiles ingests each file synchronously and returns the document ids.
func (n *notebook) addFiles(ctx context.Context, paths []string) ([]string, error) {
	ids := make([]string, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		name := filepath.Base(path)
		doc, err := n.ingest.Upload(ctx, localUser, name, mime.TypeByExtension(filepath.Ext(name)), f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("index %s: %w", name, err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func (n *notebook) Close() error {
	return os.RemoveAll(n.dir)
}
