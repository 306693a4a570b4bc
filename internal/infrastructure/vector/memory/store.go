// Package memory keeps chunk vectors in process memory. It backs the CLI
// and tests, and can replace Qdrant with VECTOR_STORE=memory.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/vecmath"
)

type Store struct {
	mu     sync.RWMutex
	byUser map[string]map[string]domain.Chunk
}

func New() *Store {
	return &Store{byUser: make(map[string]map[string]domain.Chunk)}
}

func (s *Store) Upsert(_ context.Context, userID string, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	points, ok := s.byUser[userID]
	if !ok {
		points = make(map[string]domain.Chunk)
		s.byUser[userID] = points
	}
	for _, ch := range chunks {
		ch.UserID = userID
		ch.Embedding = slices.Clone(ch.Embedding)
		points[ch.ChunkID] = ch
	}
	return nil
}

func (s *Store) Search(
	ctx context.Context,
	userID string,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RetrievedDocument, 0)
	for _, ch := range s.byUser[userID] {
		if !matches(ch, filter) {
			continue
		}
		out = append(out, domain.RetrievedDocument{
			DocumentID: ch.DocumentID,
			ChunkID:    ch.ChunkID,
			Filename:   ch.Filename,
			PageNumber: ch.PageNumber,
			ChunkIndex: ch.ChunkIndex,
			Content:    ch.Content,
			Score:      vecmath.CosineSimilarity(vecmath.ToFloat64(queryVector), vecmath.ToFloat64(ch.Embedding)),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ChunkID < out[j].ChunkID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	for i := range out {
		out[i].Rank = i + 1
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, userID string, filter domain.SearchFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	points := s.byUser[userID]
	deleted := 0
	for id, ch := range points {
		if matches(ch, filter) {
			delete(points, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) ListByDocument(_ context.Context, userID, documentID string, withVectors bool) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Chunk, 0)
	for _, ch := range s.byUser[userID] {
		if ch.DocumentID != documentID {
			continue
		}
		if withVectors {
			ch.Embedding = slices.Clone(ch.Embedding)
		} else {
			ch.Embedding = nil
		}
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PageNumber != out[j].PageNumber {
			return out[i].PageNumber < out[j].PageNumber
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func matches(ch domain.Chunk, filter domain.SearchFilter) bool {
	if len(filter.DocumentIDs) == 0 {
		return true
	}
	return slices.Contains(filter.DocumentIDs, ch.DocumentID)
}
