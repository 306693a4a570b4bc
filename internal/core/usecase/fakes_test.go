package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

type statusCall struct {
	status domain.DocumentStatus
	errMsg string
}

type docRepoFake struct {
	mu          sync.Mutex
	docs        map[string]*domain.Document
	selected    map[string][]string
	created     *domain.Document
	createErr   error
	statusCalls []statusCall
	chunkCounts map[string]int
}

func newDocRepoFake(docs ...*domain.Document) *docRepoFake {
	f := &docRepoFake{
		docs:        make(map[string]*domain.Document),
		selected:    make(map[string][]string),
		chunkCounts: make(map[string]int),
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	copyDoc := *doc
	f.created = &copyDoc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id string) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *docRepoFake) UpdateStatus(_ context.Context, _ string, status domain.DocumentStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *docRepoFake) SetChunkCount(_ context.Context, id string, count int) error {
	f.chunkCounts[id] = count
	return nil
}

func (f *docRepoFake) SetSelected(_ context.Context, userID, id string, selected bool) error {
	doc, ok := f.docs[id]
	if !ok || doc.UserID != userID {
		return domain.WrapError(domain.ErrDocumentNotFound, "set selected", errors.New(id))
	}
	doc.Selected = selected
	return nil
}

func (f *docRepoFake) ListSelectedIDs(_ context.Context, userID string) ([]string, error) {
	return f.selected[userID], nil
}

type storageFake struct {
	files   map[string]string
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{files: make(map[string]string)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.files[key] = string(raw)
	return nil
}

func (f *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	body, ok := f.files[key]
	if !ok {
		return nil, errors.New("missing " + key)
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

type queueFake struct {
	documentID string
	err        error
}

func (f *queueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *queueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type extractorFake struct {
	pages []domain.Page
	err   error
}

func (f *extractorFake) Extract(context.Context, []byte, string, string) ([]domain.Page, error) {
	return f.pages, f.err
}

// chunkerFake splits on "|".
type chunkerFake struct{}

func (chunkerFake) Split(_ context.Context, text string) ([]string, error) {
	out := make([]string, 0)
	for _, part := range strings.Split(text, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type embedderFake struct {
	mu      sync.Mutex
	batches [][]string
	queries []string
	err     error
}

func (f *embedderFake) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = topicVector(t)
	}
	return out, nil
}

func (f *embedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, text)
	return topicVector(text), nil
}

func topicVector(text string) []float32 {
	return []float32{
		float32(strings.Count(text, "Cats")) + 0.01,
		float32(strings.Count(text, "Stocks")) + 0.01,
	}
}

type vectorStoreFake struct {
	mu          sync.Mutex
	chunks      []domain.Chunk
	hits        []domain.RetrievedDocument
	lastFilter  domain.SearchFilter
	lastLimit   int
	upsertCalls int
	failUpsert  int
	listErr     map[string]error
	deleted     int
}

func (f *vectorStoreFake) Upsert(_ context.Context, _ string, chunks []domain.Chunk) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	if f.failUpsert > 0 && f.upsertCalls == f.failUpsert {
		return domain.WrapError(domain.ErrTemporary, "upsert", errors.New("vector store unavailable"))
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *vectorStoreFake) Search(_ context.Context, _ string, _ []float32, limit int, filter domain.SearchFilter) ([]domain.RetrievedDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	f.lastLimit = limit
	return f.hits, nil
}

func (f *vectorStoreFake) Delete(_ context.Context, _ string, filter domain.SearchFilter) (int, error) {
	f.lastFilter = filter
	return f.deleted, nil
}

func (f *vectorStoreFake) ListByDocument(_ context.Context, _ string, documentID string, _ bool) ([]domain.Chunk, error) {
	if err := f.listErr[documentID]; err != nil {
		return nil, err
	}
	out := make([]domain.Chunk, 0)
	for _, ch := range f.chunks {
		if ch.DocumentID == documentID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

type generatorFake struct {
	mu      sync.Mutex
	calls   [][]domain.ChatMessage
	respond func(messages []domain.ChatMessage) (string, error)
}

func (f *generatorFake) Generate(_ context.Context, messages []domain.ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	return f.respond(messages)
}

func (f *generatorFake) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type sessionStoreFake struct {
	mu       sync.Mutex
	sessions map[string]domain.RecallSession
}

func newSessionStoreFake() *sessionStoreFake {
	return &sessionStoreFake{sessions: make(map[string]domain.RecallSession)}
}

func (f *sessionStoreFake) Create(_ context.Context, s *domain.RecallSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.ID] = *s
	return nil
}

func (f *sessionStoreFake) Get(_ context.Context, id string) (*domain.RecallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "get", fmt.Errorf("id %s", id))
	}
	return &s, nil
}

func (f *sessionStoreFake) Update(_ context.Context, id string, mutate func(*domain.RecallSession) error) (*domain.RecallSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrSessionNotFound, "update", fmt.Errorf("id %s", id))
	}
	working := s
	working.History = append([]domain.RecallTurn(nil), s.History...)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	f.sessions[id] = working
	return &working, nil
}

func (f *sessionStoreFake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.sessions[id]; !ok {
		return domain.WrapError(domain.ErrSessionNotFound, "delete", fmt.Errorf("id %s", id))
	}
	delete(f.sessions, id)
	return nil
}
