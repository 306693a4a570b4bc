// Package memory holds active-recall sessions in process memory with a TTL.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

type Store struct {
	mu       sync.Mutex
	sessions map[string]*entry
	now      func() time.Time
}

// entry serializes mutations of one session without holding the map lock
// while the caller's mutate function runs (it may call the LLM).
type entry struct {
	mu      sync.Mutex
	session domain.RecallSession
}

func New() *Store {
	return &Store{
		sessions: make(map[string]*entry),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Create(_ context.Context, session *domain.RecallSession) error {
	if session == nil || session.ID == "" {
		return domain.WrapError(domain.ErrInvalidInput, "create recall session", fmt.Errorf("session id is required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.ID]; exists {
		return domain.WrapError(domain.ErrInvalidInput, "create recall session", fmt.Errorf("session %s already exists", session.ID))
	}
	s.sessions[session.ID] = &entry{session: cloneSession(*session)}
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*domain.RecallSession, error) {
	e, err := s.live(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := cloneSession(e.session)
	return &out, nil
}

func (s *Store) Update(ctx context.Context, id string, mutate func(*domain.RecallSession) error) (*domain.RecallSession, error) {
	e, err := s.live(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.now().Before(e.session.ExpiresAt) {
		return nil, notFound(id)
	}

	working := cloneSession(e.session)
	if err := mutate(&working); err != nil {
		return nil, err
	}
	e.session = working
	out := cloneSession(working)
	return &out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return notFound(id)
	}
	delete(s.sessions, id)
	return nil
}

// PurgeExpired drops sessions past their expiry.
func (s *Store) PurgeExpired() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, e := range s.sessions {
		// Skip sessions that are mid-update; the next sweep sees them.
		if !e.mu.TryLock() {
			continue
		}
		expired := !now.Before(e.session.ExpiresAt)
		e.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged
}

// Run purges expired sessions every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
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
			if n := s.PurgeExpired(); n > 0 {
				slog.Debug("recall_sessions_purged", "count", n)
			}
		}
	}
}

func (s *Store) live(id string) (*entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	if !s.now().Before(e.session.ExpiresAt) {
		delete(s.sessions, id)
		return nil, notFound(id)
	}
	return e, nil
}

func notFound(id string) error {
	return domain.WrapError(domain.ErrSessionNotFound, "recall session", fmt.Errorf("id %s", id))
}

func cloneSession(in domain.RecallSession) domain.RecallSession {
	out := in
	out.History = make([]domain.RecallTurn, len(in.History))
	for i, turn := range in.History {
		turn.KeyPoints = append([]string(nil), turn.KeyPoints...)
		out.History[i] = turn
	}
	return out
}
