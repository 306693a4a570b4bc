package domain

import "time"

type RecallTurn struct {
	Question   string    `json:"question"`
	UserAnswer string    `json:"user_answer"`
	Feedback   string    `json:"feedback"`
	KeyPoints  []string  `json:"key_points"`
	AnsweredAt time.Time `json:"answered_at"`
}

type RecallSession struct {
	ID           string       `json:"session_id"`
	UserID       string       `json:"user_id"`
	Topic        string       `json:"topic"`
	Context      string       `json:"-"`
	LastQuestion string       `json:"last_question"`
	History      []RecallTurn `json:"history"`
	CreatedAt    time.Time    `json:"created_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

type RecallStart struct {
	SessionID     string `json:"session_id"`
	FirstQuestion string `json:"first_question"`
}

type RecallFeedback struct {
	Feedback     string   `json:"feedback"`
	KeyPoints    []string `json:"key_points"`
	NextQuestion string   `json:"next_question"`
}
