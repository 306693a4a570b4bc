package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Htaaxx/NotebookLLM/internal/core/citation"
	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

const defaultQueryTopK = 10

// DefaultSummaryKeywords trigger summarization instead of retrieval.
var DefaultSummaryKeywords = []string{"tổng hợp", "tóm tắt", "summarize", "summary"}

type QueryOptions struct {
	TopK            int
	ContextChars    int
	PreviewChars    int
	SummaryKeywords []string
}

type QueryUseCase struct {
	repo       ports.DocumentRepository
	embedder   ports.Embedder
	vectorDB   ports.VectorStore
	generator  ports.Generator
	reconciler *citation.Reconciler
	opts       QueryOptions
}

func NewQueryUseCase(
	repo ports.DocumentRepository,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.Generator,
	opts QueryOptions,
) *QueryUseCase {
	if opts.TopK <= 0 {
		opts.TopK = defaultQueryTopK
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = citation.DefaultContextChars
	}
	if len(opts.SummaryKeywords) == 0 {
		opts.SummaryKeywords = DefaultSummaryKeywords
	}
	return &QueryUseCase{
		repo:       repo,
		embedder:   embedder,
		vectorDB:   vectorDB,
		generator:  generator,
		reconciler: citation.NewReconciler(opts.PreviewChars),
		opts:       opts,
	}
}

// Answer runs retrieval-augmented Q&A scoped to the requested documents,
// or to the user's selected documents when none are given.
func (uc *QueryUseCase) Answer(ctx context.Context, q domain.Question) (*domain.Answer, error) {
	question := strings.TrimSpace(q.Question)
	if q.UserID == "" || question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("user_id and question are required"))
	}

	scope, err := uc.scope(ctx, q)
	if err != nil {
		return nil, err
	}

	if IsSummaryRequest(question, uc.opts.SummaryKeywords) {
		return uc.summarize(ctx, q.UserID, scope)
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := uc.vectorDB.Search(ctx, q.UserID, queryVector, uc.opts.TopK, domain.SearchFilter{DocumentIDs: scope})
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}
	if len(hits) == 0 {
		return &domain.Answer{Text: noRelevantInfoAnswer, Citations: map[string]domain.CitationDetail{}}, nil
	}

	contextText, sources := citation.BuildContext(hits, uc.opts.ContextChars)
	raw, err := uc.generator.Generate(ctx, answerMessages(question, contextText))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	res := uc.reconciler.Reconcile(raw, sources)
	if res.MissingReferences {
		slog.Warn("citation_references_missing", "user_id", q.UserID, "retrieved", len(hits))
	}
	if len(res.Unresolved) > 0 {
		slog.Warn("citation_unresolved", "user_id", q.UserID, "numbers", res.Unresolved)
	}

	return &domain.Answer{
		Text:       res.Answer,
		Citations:  res.Citations,
		Unresolved: res.Unresolved,
		Retrieved:  len(hits),
	}, nil
}

func (uc *QueryUseCase) scope(ctx context.Context, q domain.Question) ([]string, error) {
	if len(q.DocumentIDs) > 0 {
		return q.DocumentIDs, nil
	}
	ids, err := uc.repo.ListSelectedIDs(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("list selected documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer question", errors.New("no documents selected"))
	}
	return ids, nil
}

func (uc *QueryUseCase) summarize(ctx context.Context, userID string, scope []string) (*domain.Answer, error) {
	if len(scope) != 1 {
		return nil, domain.WrapError(domain.ErrSummaryScope, "summarize", fmt.Errorf("%d documents in scope", len(scope)))
	}

	chunks, err := uc.vectorDB.ListByDocument(ctx, userID, scope[0], false)
	if err != nil {
		return nil, fmt.Errorf("load document chunks: %w", err)
	}
	if len(chunks) == 0 {
		return &domain.Answer{Text: noRelevantInfoAnswer, Citations: map[string]domain.CitationDetail{}, Summary: true}, nil
	}

	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		parts = append(parts, ch.Content)
	}
	summary, err := uc.generator.Generate(ctx, summaryMessages(strings.Join(parts, "\n\n")))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	return &domain.Answer{
		Text:      strings.TrimSpace(summary),
		Citations: map[string]domain.CitationDetail{},
		Summary:   true,
		Retrieved: len(chunks),
	}, nil
}

// IsSummaryRequest reports whether the question contains a summary keyword,
// ignoring case.
func IsSummaryRequest(question string, keywords []string) bool {
	lower := strings.ToLower(question)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
