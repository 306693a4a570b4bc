package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/config"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
	"github.com/Htaaxx/NotebookLLM/internal/core/usecase"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/graph/neo4j"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/queue/nats"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/repository/postgres"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
	sessionmemory "github.com/Htaaxx/NotebookLLM/internal/infrastructure/session/memory"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/storage/localfs"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/web"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/youtube"
)

type App struct {
	Config config.Config

	Queue       *nats.Queue
	Repo        ports.DocumentRepository
	IngestUC    ports.DocumentIngestor
	ProcessUC   ports.DocumentProcessor
	DocumentsUC *usecase.DocumentUseCase
	QueryUC     ports.DocumentQueryService
	MindmapUC   ports.MindmapBuilder
	RecallUC    ports.RecallService

	janitor func(ctx context.Context)
	closeFn func()
}

// New connects every backing service. observer receives gateway retry and
// breaker events and may be nil.
func New(ctx context.Context, cfg config.Config, observer resilience.Observer) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := NewGatewayExecutor(cfg, observer)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	cleanup := func() {
		queue.Close()
		_ = db.Close()
	}

	embedder, generator, err := NewLanguageModels(cfg, executor)
	if err != nil {
		cleanup()
		return nil, err
	}
	vectorDB, err := NewVectorStore(cfg, executor)
	if err != nil {
		cleanup()
		return nil, err
	}
	chunker, err := NewChunker(cfg, embedder)
	if err != nil {
		cleanup()
		return nil, err
	}

	var mindmapStore ports.MindmapStore
	var graph *neo4j.Store
	if cfg.Neo4jURI != "" {
		graph, err = neo4j.New(ctx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("init neo4j: %w", err)
		}
		mindmapStore = graph
	}

	var sessions ports.RecallSessionStore
	var janitor func(ctx context.Context)
	switch cfg.RecallStore {
	case "", "memory":
		store := sessionmemory.New()
		sessions = store
		janitor = func(ctx context.Context) { store.Run(ctx, cfg.SessionJanitorInterval) }
	case "postgres":
		store := postgres.NewRecallSessionRepository(db)
		sessions = store
		janitor = func(ctx context.Context) { purgeLoop(ctx, store, cfg.SessionJanitorInterval) }
	default:
		cleanup()
		return nil, fmt.Errorf("unknown RECALL_STORE %q", cfg.RecallStore)
	}

	fetcher := web.NewFetcher(executor, cfg.WebFetchTimeout)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, fetcher, youtube.New(fetcher, cfg.TranscriptLanguages))
	processUC := usecase.NewProcessDocumentUseCase(repo, storage, NewExtractor(), chunker, embedder, vectorDB, usecase.ProcessOptions{
		EmbeddingBatchSize:   cfg.EmbeddingBatchSize,
		VectorWriteBatchSize: cfg.VectorWriteBatchSize,
	})
	documentsUC := usecase.NewDocumentUseCase(repo, vectorDB)
	queryUC := usecase.NewQueryUseCase(repo, embedder, vectorDB, generator, usecase.QueryOptions{
		TopK:            cfg.RAGTopK,
		ContextChars:    cfg.ContextPreviewChars,
		PreviewChars:    cfg.CitationPreviewChars,
		SummaryKeywords: cfg.SummaryKeywords,
	})
	mindmapUC := usecase.NewMindmapUseCase(vectorDB, generator, NewClusterEngine(cfg), usecase.NewCPUPool(cfg.CPUWorkers), mindmapStore, usecase.MindmapOptions{
		DefaultClusters: cfg.MindmapDefaultClusters,
		Concurrency:     cfg.MindmapConcurrency,
	})
	recallUC := usecase.NewRecallUseCase(embedder, vectorDB, generator, sessions, usecase.RecallOptions{
		TopK:       cfg.RecallTopK,
		SessionTTL: cfg.RecallSessionTTL,
	})

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:    ingestUC,
		ProcessUC:   processUC,
		DocumentsUC: documentsUC,
		QueryUC:     queryUC,
		MindmapUC:   mindmapUC,
		RecallUC:    recallUC,

		janitor: janitor,
		closeFn: func() {
			if graph != nil {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = graph.Close(closeCtx)
				cancel()
			}
			cleanup()
		},
	}, nil
}

// RunSessionJanitor evicts expired recall sessions until ctx is done.
func (a *App) RunSessionJanitor(ctx context.Context) {
	if a.janitor != nil {
		a.janitor(ctx)
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func purgeLoop(ctx context.Context, repo *postgres.RecallSessionRepository, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := repo.PurgeExpired(ctx)
			if err != nil {
				slog.Warn("recall_session_purge_failed", "error", err)
				continue
			}
			if n > 0 {
				slog.Info("recall_sessions_purged", "count", n)
			}
		}
	}
}
