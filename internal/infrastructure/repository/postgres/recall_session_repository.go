package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
)

// RecallSessionRepository keeps active-recall sessions in Postgres so that
// several api replicas can serve the same session.
type RecallSessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRecallSessionRepository(db *sql.DB) *RecallSessionRepository {
	return &RecallSessionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *RecallSessionRepository) Create(ctx context.Context, session *domain.RecallSession) error {
	historyJSON, err := json.Marshal(historyOrEmpty(session.History))
	if err != nil {
		return fmt.Errorf("marshal recall history: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO recall_sessions (id, user_id, topic, context, last_question, history, created_at, expires_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`, session.ID, session.UserID, session.Topic, session.Context, session.LastQuestion, historyJSON, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert recall session: %w", err)
	}
	return nil
}

func (r *RecallSessionRepository) Get(ctx context.Context, id string) (*domain.RecallSession, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, topic, context, last_question, history, created_at, expires_at
FROM recall_sessions
WHERE id = $1 AND expires_at > $2
`, id, r.now())
	return scanSession(row, id)
}

// Update locks the row for the duration of mutate so concurrent answers to
// the same session are applied one after another.
func (r *RecallSessionRepository) Update(
	ctx context.Context,
	id string,
	mutate func(*domain.RecallSession) error,
) (*domain.RecallSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin recall tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
SELECT id, user_id, topic, context, last_question, history, created_at, expires_at
FROM recall_sessions
WHERE id = $1 AND expires_at > $2
FOR UPDATE
`, id, r.now())
	session, err := scanSession(row, id)
	if err != nil {
		return nil, err
	}

	if err := mutate(session); err != nil {
		return nil, err
	}

	historyJSON, err := json.Marshal(historyOrEmpty(session.History))
	if err != nil {
		return nil, fmt.Errorf("marshal recall history: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
UPDATE recall_sessions
SET last_question = $2, history = $3, expires_at = $4
WHERE id = $1
`, id, session.LastQuestion, historyJSON, session.ExpiresAt); err != nil {
		return nil, fmt.Errorf("update recall session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit recall tx: %w", err)
	}
	return session, nil
}

func (r *RecallSessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recall_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recall session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recall session rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "delete recall session", fmt.Errorf("id %s", id))
	}
	return nil
}

// PurgeExpired removes sessions past their expiry and reports how many.
func (r *RecallSessionRepository) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recall_sessions WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("purge recall sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge recall sessions rows affected: %w", err)
	}
	return n, nil
}

func scanSession(row *sql.Row, id string) (*domain.RecallSession, error) {
	var s domain.RecallSession
	var historyRaw []byte
	if err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Topic,
		&s.Context,
		&s.LastQuestion,
		&historyRaw,
		&s.CreatedAt,
		&s.ExpiresAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get recall session", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan recall session: %w", err)
	}
	if err := json.Unmarshal(historyRaw, &s.History); err != nil {
		return nil, fmt.Errorf("unmarshal recall history: %w", err)
	}
	return &s, nil
}

func historyOrEmpty(history []domain.RecallTurn) []domain.RecallTurn {
	if history == nil {
		return []domain.RecallTurn{}
	}
	return history
}
