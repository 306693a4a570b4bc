package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

const scrollPageSize = 256

// Client stores chunks in one Qdrant collection per user.
type Client struct {
	baseURL          string
	apiKey           string
	collectionPrefix string
	httpClient       *http.Client
	executor         *resilience.Executor

	ensureMu sync.Mutex
	ensured  map[string]int
}

func New(baseURL, apiKey, collectionPrefix string, executor *resilience.Executor) *Client {
	if collectionPrefix == "" {
		collectionPrefix = "notebook"
	}
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		apiKey:           apiKey,
		collectionPrefix: collectionPrefix,
		httpClient:       &http.Client{Timeout: 60 * time.Second},
		executor:         executor,
		ensured:          make(map[string]int),
	}
}

// CollectionName maps a user id onto a Qdrant-safe collection name.
func (c *Client) CollectionName(userID string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, userID)
	return c.collectionPrefix + "_" + safe
}

// PointID derives a stable UUID from the chunk id so that retried or
// repeated upserts overwrite instead of duplicating.
func PointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(chunkID)).String()
}

func (c *Client) Upsert(ctx context.Context, userID string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	dim := len(chunks[0].Embedding)
	for _, ch := range chunks {
		if len(ch.Embedding) == 0 || len(ch.Embedding) != dim {
			return domain.WrapError(domain.ErrInvalidInput, "qdrant upsert", fmt.Errorf("chunk %s has dimension %d, want %d", ch.ChunkID, len(ch.Embedding), dim))
		}
	}

	collection := c.CollectionName(userID)
	if err := c.ensureCollection(ctx, collection, dim); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}
	points := make([]point, 0, len(chunks))
	for _, ch := range chunks {
		points = append(points, point{
			ID:     PointID(ch.ChunkID),
			Vector: ch.Embedding,
			Payload: map[string]any{
				"doc_id":      ch.DocumentID,
				"user_id":     userID,
				"filename":    ch.Filename,
				"page_number": ch.PageNumber,
				"chunk_index": ch.ChunkIndex,
				"chunk_id":    ch.ChunkID,
				"content":     ch.Content,
			},
		})
	}

	path := fmt.Sprintf("/collections/%s/points?wait=true", collection)
	return c.call(ctx, http.MethodPut, path, map[string]any{"points": points}, nil, "upsert")
}

func (c *Client) Search(
	ctx context.Context,
	userID string,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.RetrievedDocument, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := buildFilter(userID, filter); f != nil {
		reqBody["filter"] = f
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", c.CollectionName(userID))
	if err := c.call(ctx, http.MethodPost, path, reqBody, &searchResp, "search"); err != nil {
		if isNotFound(err) {
			return []domain.RetrievedDocument{}, nil
		}
		return nil, err
	}

	out := make([]domain.RetrievedDocument, 0, len(searchResp.Result))
	for i, r := range searchResp.Result {
		out = append(out, domain.RetrievedDocument{
			DocumentID: getStringPayload(r.Payload, "doc_id"),
			ChunkID:    getStringPayload(r.Payload, "chunk_id"),
			Filename:   getStringPayload(r.Payload, "filename"),
			PageNumber: getIntPayload(r.Payload, "page_number"),
			ChunkIndex: getIntPayload(r.Payload, "chunk_index"),
			Content:    getStringPayload(r.Payload, "content"),
			Score:      r.Score,
			Rank:       i + 1,
		})
	}
	return out, nil
}

// Delete counts matching points, then removes them. With no document ids
// every point of the user is removed.
func (c *Client) Delete(ctx context.Context, userID string, filter domain.SearchFilter) (int, error) {
	collection := c.CollectionName(userID)
	f := buildFilter(userID, filter)

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	countPath := fmt.Sprintf("/collections/%s/points/count", collection)
	if err := c.call(ctx, http.MethodPost, countPath, map[string]any{"filter": f, "exact": true}, &countResp, "count"); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	if countResp.Result.Count == 0 {
		return 0, nil
	}

	deletePath := fmt.Sprintf("/collections/%s/points/delete?wait=true", collection)
	if err := c.call(ctx, http.MethodPost, deletePath, map[string]any{"filter": f}, nil, "delete"); err != nil {
		return 0, err
	}
	return countResp.Result.Count, nil
}

// ListByDocument scrolls every point of one document, ordered by page
// then chunk index.
func (c *Client) ListByDocument(ctx context.Context, userID, documentID string, withVectors bool) ([]domain.Chunk, error) {
	path := fmt.Sprintf("/collections/%s/points/scroll", c.CollectionName(userID))
	filter := buildFilter(userID, domain.SearchFilter{DocumentIDs: []string{documentID}})

	out := make([]domain.Chunk, 0)
	var offset any
	for {
		reqBody := map[string]any{
			"filter":       filter,
			"limit":        scrollPageSize,
			"with_payload": true,
			"with_vector":  withVectors,
		}
		if offset != nil {
			reqBody["offset"] = offset
		}

		var scrollResp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
					Vector  []float32      `json:"vector"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		if err := c.call(ctx, http.MethodPost, path, reqBody, &scrollResp, "scroll"); err != nil {
			if isNotFound(err) {
				return out, nil
			}
			return nil, err
		}

		for _, p := range scrollResp.Result.Points {
			out = append(out, domain.Chunk{
				ChunkID:    getStringPayload(p.Payload, "chunk_id"),
				DocumentID: getStringPayload(p.Payload, "doc_id"),
				UserID:     getStringPayload(p.Payload, "user_id"),
				Filename:   getStringPayload(p.Payload, "filename"),
				PageNumber: getIntPayload(p.Payload, "page_number"),
				ChunkIndex: getIntPayload(p.Payload, "chunk_index"),
				Content:    getStringPayload(p.Payload, "content"),
				Embedding:  p.Vector,
			})
		}

		offset = scrollResp.Result.NextPageOffset
		if offset == nil || len(scrollResp.Result.Points) == 0 {
			break
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PageNumber != out[j].PageNumber {
			return out[i].PageNumber < out[j].PageNumber
		}
		return out[i].ChunkIndex < out[j].ChunkIndex
	})
	return out, nil
}

func buildFilter(userID string, filter domain.SearchFilter) map[string]any {
	must := []map[string]any{
		{"key": "user_id", "match": map[string]any{"value": userID}},
	}
	if len(filter.DocumentIDs) > 0 {
		must = append(must, map[string]any{
			"key":   "doc_id",
			"match": map[string]any{"any": filter.DocumentIDs},
		})
	}
	return map[string]any{"must": must}
}

func (c *Client) ensureCollection(ctx context.Context, collection string, vectorSize int) error {
	c.ensureMu.Lock()
	if size, ok := c.ensured[collection]; ok && size == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}
	err := c.call(ctx, http.MethodPut, "/collections/"+collection, reqBody, nil, "ensure collection")
	// 409 if the collection already exists (depends on version/config).
	var statusErr *resilience.StatusError
	if err != nil && !(errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusConflict) {
		return err
	}

	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensured[collection] = vectorSize
	return nil
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
