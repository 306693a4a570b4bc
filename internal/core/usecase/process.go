package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

const (
	defaultEmbeddingBatchSize   = 32
	defaultVectorWriteBatchSize = 32
)

type ProcessOptions struct {
	EmbeddingBatchSize   int
	VectorWriteBatchSize int
}

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	opts      ProcessOptions
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	opts ProcessOptions,
) *ProcessDocumentUseCase {
	if opts.EmbeddingBatchSize <= 0 {
		opts.EmbeddingBatchSize = defaultEmbeddingBatchSize
	}
	if opts.VectorWriteBatchSize <= 0 {
		opts.VectorWriteBatchSize = defaultVectorWriteBatchSize
	}
	return &ProcessDocumentUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
		opts:      opts,
	}
}

func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	count, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SetChunkCount(ctx, documentID, count); err != nil {
		return fmt.Errorf("set chunk count: %w", err)
	}
	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return 0, err
	}

	pages, err := uc.extractPages(ctx, doc)
	if err != nil {
		return 0, err
	}

	chunks, err := uc.chunk(ctx, doc, pages)
	if err != nil {
		return 0, err
	}

	if err := uc.embedAndIndex(ctx, doc.UserID, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (uc *ProcessDocumentUseCase) loadDocument(ctx context.Context, documentID string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	return doc, nil
}

func (uc *ProcessDocumentUseCase) extractPages(ctx context.Context, doc *domain.Document) ([]domain.Page, error) {
	reader, err := uc.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read source document: %w", err)
	}

	pages, err := uc.extractor.Extract(ctx, raw, doc.MimeType, doc.Filename)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if len(pages) == 0 {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract text", fmt.Errorf("%s produced no pages", doc.Filename))
	}
	return pages, nil
}

// chunk numbers chunks across the whole document in page order, so chunk
// ids stay stable when the same file is processed again.
func (uc *ProcessDocumentUseCase) chunk(ctx context.Context, doc *domain.Document, pages []domain.Page) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0)
	for _, page := range pages {
		parts, err := uc.chunker.Split(ctx, page.Text)
		if err != nil {
			return nil, fmt.Errorf("chunk page %d: %w", page.PageNumber, err)
		}
		for _, part := range parts {
			index := len(out)
			out = append(out, domain.Chunk{
				ChunkID:    domain.ChunkID(doc.ID, index),
				DocumentID: doc.ID,
				UserID:     doc.UserID,
				Filename:   doc.Filename,
				PageNumber: page.PageNumber,
				ChunkIndex: index,
				Content:    part,
			})
		}
	}
	if len(out) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}
	return out, nil
}

// embedAndIndex walks the chunks in write batches. Each write batch is
// embedded in embedding-sized sub-batches and upserted before the next one
// starts, so a failure reports exactly how many chunks already landed.
func (uc *ProcessDocumentUseCase) embedAndIndex(ctx context.Context, userID string, chunks []domain.Chunk) error {
	written := 0
	for start := 0; start < len(chunks); start += uc.opts.VectorWriteBatchSize {
		end := min(start+uc.opts.VectorWriteBatchSize, len(chunks))
		batch := chunks[start:end]

		if err := uc.embedBatch(ctx, batch); err != nil {
			return &domain.PartialWriteError{Operation: "embed chunks", Completed: written, Total: len(chunks), Err: err}
		}
		if err := uc.vectorDB.Upsert(ctx, userID, batch); err != nil {
			return &domain.PartialWriteError{Operation: "index chunks", Completed: written, Total: len(chunks), Err: err}
		}
		written += len(batch)
	}
	return nil
}

func (uc *ProcessDocumentUseCase) embedBatch(ctx context.Context, batch []domain.Chunk) error {
	for start := 0; start < len(batch); start += uc.opts.EmbeddingBatchSize {
		end := min(start+uc.opts.EmbeddingBatchSize, len(batch))
		texts := make([]string, 0, end-start)
		for _, ch := range batch[start:end] {
			texts = append(texts, ch.Content)
		}

		vectors, err := uc.embedder.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks: %w", err)
		}
		if len(vectors) != len(texts) {
			return domain.WrapError(
				domain.ErrGateway,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(texts)),
			)
		}
		for i, v := range vectors {
			batch[start+i].Embedding = v
		}
	}
	return nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	// Recorded even when ctx is already cancelled.
	return uc.markStatus(context.WithoutCancel(ctx), documentID, domain.StatusFailed, processErr.Error())
}
