package domain

type SearchFilter struct {
	DocumentIDs []string
}

// RetrievedDocument is one similarity hit. Rank is the 1-based position in
// the result list and doubles as the [DOCUMENT n] number shown to the LLM.
type RetrievedDocument struct {
	DocumentID string  `json:"doc_id"`
	ChunkID    string  `json:"chunk_id"`
	Filename   string  `json:"filename"`
	PageNumber int     `json:"page_number"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
}

// SourceMapping links a prompt-local document number to its hit.
type SourceMapping map[int]RetrievedDocument

type CitationDetail struct {
	DocumentID     string `json:"doc_id"`
	ChunkID        string `json:"chunk_id"`
	PageNumber     int    `json:"page_number"`
	Filename       string `json:"filename"`
	ContentPreview string `json:"content_preview"`
}

type Question struct {
	UserID      string   `json:"user_id"`
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type Answer struct {
	Text       string                    `json:"answer"`
	Citations  map[string]CitationDetail `json:"citations"`
	Unresolved []int                     `json:"unresolved,omitempty"`
	Summary    bool                      `json:"summary,omitempty"`
	// Retrieved is the number of chunks placed in the prompt context.
	Retrieved int `json:"retrieved"`
}

type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}
