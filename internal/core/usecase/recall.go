package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/core/ports"
)

const (
	defaultRecallTopK = 5
	defaultRecallTTL  = time.Hour
)

type RecallOptions struct {
	TopK       int
	SessionTTL time.Duration
}

type RecallUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	generator ports.Generator
	sessions  ports.RecallSessionStore
	opts      RecallOptions
	now       func() time.Time
	newID     func() string
}

func NewRecallUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	generator ports.Generator,
	sessions ports.RecallSessionStore,
	opts RecallOptions,
) *RecallUseCase {
	if opts.TopK <= 0 {
		opts.TopK = defaultRecallTopK
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultRecallTTL
	}
	return &RecallUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		generator: generator,
		sessions:  sessions,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

// Start grounds a new session on the user's most relevant chunks for the
// topic and asks the first question.
func (uc *RecallUseCase) Start(ctx context.Context, userID, topic string) (*domain.RecallStart, error) {
	topic = strings.TrimSpace(topic)
	if userID == "" || topic == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start recall", errors.New("user_id and topic are required"))
	}

	vector, err := uc.embedder.EmbedQuery(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("embed topic: %w", err)
	}
	hits, err := uc.vectorDB.Search(ctx, userID, vector, uc.opts.TopK, domain.SearchFilter{})
	if err != nil {
		return nil, fmt.Errorf("search vector db: %w", err)
	}
	if len(hits) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "start recall", fmt.Errorf("no material found for topic %q", topic))
	}

	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		parts = append(parts, h.Content)
	}
	material := strings.Join(parts, "\n\n")

	question, err := uc.question(ctx, topic, material, nil)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	session := &domain.RecallSession{
		ID:           uc.newID(),
		UserID:       userID,
		Topic:        topic,
		Context:      material,
		LastQuestion: question,
		History:      []domain.RecallTurn{},
		CreatedAt:    now,
		ExpiresAt:    now.Add(uc.opts.SessionTTL),
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create recall session: %w", err)
	}
	return &domain.RecallStart{SessionID: session.ID, FirstQuestion: question}, nil
}

// Answer evaluates the learner's answer to the pending question and moves
// the session to the next one. The session is unchanged if any step fails.
func (uc *RecallUseCase) Answer(ctx context.Context, sessionID, userAnswer string) (*domain.RecallFeedback, error) {
	userAnswer = strings.TrimSpace(userAnswer)
	if sessionID == "" || userAnswer == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "answer recall", errors.New("session_id and user_answer are required"))
	}

	var out domain.RecallFeedback
	_, err := uc.sessions.Update(ctx, sessionID, func(s *domain.RecallSession) error {
		asked := make([]string, 0, len(s.History)+1)
		for _, turn := range s.History {
			asked = append(asked, turn.Question)
		}
		asked = append(asked, s.LastQuestion)

		var feedback, rawPoints, next string
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			feedback, err = uc.generator.Generate(gctx, recallFeedbackMessages(s.LastQuestion, userAnswer, s.Context))
			if err != nil {
				return fmt.Errorf("generate feedback: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			rawPoints, err = uc.generator.Generate(gctx, recallKeyPointsMessages(s.Topic, s.Context))
			if err != nil {
				return fmt.Errorf("generate key points: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			next, err = uc.question(gctx, s.Topic, s.Context, asked)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		out = domain.RecallFeedback{
			Feedback:     strings.TrimSpace(feedback),
			KeyPoints:    ParseKeyPoints(rawPoints),
			NextQuestion: next,
		}
		now := uc.now()
		s.History = append(s.History, domain.RecallTurn{
			Question:   s.LastQuestion,
			UserAnswer: userAnswer,
			Feedback:   out.Feedback,
			KeyPoints:  out.KeyPoints,
			AnsweredAt: now,
		})
		s.LastQuestion = next
		s.ExpiresAt = now.Add(uc.opts.SessionTTL)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (uc *RecallUseCase) Get(ctx context.Context, sessionID string) (*domain.RecallSession, error) {
	return uc.sessions.Get(ctx, sessionID)
}

func (uc *RecallUseCase) End(ctx context.Context, sessionID string) error {
	return uc.sessions.Delete(ctx, sessionID)
}

func (uc *RecallUseCase) question(ctx context.Context, topic, material string, asked []string) (string, error) {
	raw, err := uc.generator.Generate(ctx, recallQuestionMessages(topic, material, asked))
	if err != nil {
		return "", fmt.Errorf("generate recall question: %w", err)
	}
	question := strings.TrimSpace(raw)
	if question == "" {
		return "", domain.WrapError(domain.ErrGateway, "generate recall question", errors.New("empty completion"))
	}
	return question, nil
}

// ParseKeyPoints turns a bulleted completion into one entry per line.
func ParseKeyPoints(raw string) []string {
	points := make([]string, 0)
	for _, line := range strings.Split(raw, "\n") {
		point := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if point != "" {
			points = append(points, point)
		}
	}
	return points
}
