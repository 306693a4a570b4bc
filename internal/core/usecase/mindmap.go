package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Htaaxx/NotebookLLM/internal/core/clustering"
	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

const (
	defaultMindmapClusters    = 5
	defaultMindmapConcurrency = 4
)

type MindmapOptions struct {
	DefaultClusters int
	Concurrency     int
}

type MindmapUseCase struct {
	vectorDB  ports.VectorStore
	generator ports.Generator
	engine    *clustering.Engine
	pool      *CPUPool
	store     ports.MindmapStore
	opts      MindmapOptions
}

// NewMindmapUseCase builds the use case. store may be nil.
func NewMindmapUseCase(
	vectorDB ports.VectorStore,
	generator ports.Generator,
	engine *clustering.Engine,
	pool *CPUPool,
	store ports.MindmapStore,
	opts MindmapOptions,
) *MindmapUseCase {
	if opts.DefaultClusters <= 0 {
		opts.DefaultClusters = defaultMindmapClusters
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultMindmapConcurrency
	}
	return &MindmapUseCase{
		vectorDB:  vectorDB,
		generator: generator,
		engine:    engine,
		pool:      pool,
		store:     store,
		opts:      opts,
	}
}

func (uc *MindmapUseCase) Build(ctx context.Context, req domain.MindmapRequest) (*domain.Mindmap, error) {
	if req.UserID == "" || len(req.DocumentIDs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build mindmap", errors.New("user_id and document_ids are required"))
	}
	if req.NumClusters < 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "build mindmap", fmt.Errorf("num_clusters must be positive, got %d", req.NumClusters))
	}
	k := req.NumClusters
	if k == 0 {
		k = uc.opts.DefaultClusters
	}

	texts, vectors, err := uc.loadChunks(ctx, req.UserID, req.DocumentIDs)
	if err != nil {
		return nil, err
	}

	var res *clustering.Result
	err = uc.pool.Run(ctx, func() error {
		var clusterErr error
		res, clusterErr = uc.engine.Cluster(texts, vectors, k)
		return clusterErr
	})
	if err != nil {
		return nil, err
	}
	if missing := res.K - len(res.Clusters); missing > 0 {
		slog.Debug("cluster_empty", "requested", res.RequestedK, "k", res.K, "empty", missing)
	}

	sections, failed, err := uc.outlineClusters(ctx, res.Clusters)
	if err != nil {
		return nil, err
	}

	markdown := assembleOutline(sections)
	if uc.store != nil {
		if err := uc.store.SaveOutline(ctx, req.UserID, req.DocumentIDs, markdown); err != nil {
			slog.Warn("mindmap_persist_failed", "user_id", req.UserID, "error", err)
		}
	}

	return &domain.Mindmap{
		Markdown:       markdown,
		ClusterCount:   len(res.Clusters),
		FailedClusters: failed,
		ChunkCount:     len(texts),
	}, nil
}

// loadChunks gathers stored chunks with vectors. Documents that cannot be
// read and chunks without content or vector are skipped. When nothing was
// loaded and some fetch failed, the fetch errors are returned instead.
func (uc *MindmapUseCase) loadChunks(ctx context.Context, userID string, documentIDs []string) ([]string, [][]float32, error) {
	texts := make([]string, 0)
	vectors := make([][]float32, 0)
	var fetchErrs []error
	for _, docID := range documentIDs {
		chunks, err := uc.vectorDB.ListByDocument(ctx, userID, docID, true)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			slog.Warn("mindmap_document_skipped", "user_id", userID, "document_id", docID, "error", err)
			fetchErrs = append(fetchErrs, fmt.Errorf("load chunks of %s: %w", docID, err))
			continue
		}
		skipped := 0
		for _, ch := range chunks {
			if strings.TrimSpace(ch.Content) == "" || len(ch.Embedding) == 0 {
				skipped++
				continue
			}
			texts = append(texts, ch.Content)
			vectors = append(vectors, ch.Embedding)
		}
		if skipped > 0 {
			slog.Warn("mindmap_chunks_skipped", "document_id", docID, "count", skipped)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(texts) == 0 && len(fetchErrs) > 0 {
		return nil, nil, errors.Join(fetchErrs...)
	}
	return texts, vectors, nil
}

// outlineClusters asks the generator for one outline per cluster. A failed
// cluster becomes a placeholder header and does not stop the others.
func (uc *MindmapUseCase) outlineClusters(ctx context.Context, clusters []domain.Cluster) ([][]string, int, error) {
	sections := make([][]string, len(clusters))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Concurrency)
	for i, c := range clusters {
		g.Go(func() error {
			raw, err := uc.generator.Generate(gctx, outlineMessages(c.MergedText))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("cluster_outline_failed", "cluster", c.ID, "error", err)
				failed.Add(1)
				sections[i] = []string{clusterPlaceholder(i)}
				return nil
			}
			lines := ExtractOutline(raw)
			if len(lines) == 0 {
				slog.Warn("cluster_outline_empty", "cluster", c.ID)
				failed.Add(1)
				lines = []string{clusterPlaceholder(i)}
			}
			sections[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return sections, int(failed.Load()), nil
}
