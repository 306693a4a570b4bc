package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Document struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	SourceURL   string         `json:"source_url,omitempty"`
	Selected    bool           `json:"selected"`
	ChunkCount  int            `json:"chunk_count"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Page is one unit of extracted text. PageNumber is 1-based.
type Page struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
}

// Transcript is the caption text of a video, joined into one passage.
type Transcript struct {
	VideoID  string `json:"video_id"`
	Title    string `json:"title"`
	Language string `json:"language"`
	Text     string `json:"text"`
}
