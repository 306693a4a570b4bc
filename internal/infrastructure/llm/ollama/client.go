package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

type Client struct {
	baseURL     string
	genModel    string
	embedModel  string
	temperature float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, genModel, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		genModel:    genModel,
		embedModel:  embedModel,
		temperature: 0.5,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		executor:    executor,
	}
}

func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = t
	return c
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	vectors, err := resilience.Do(ctx, e.client.executor, "ollama.embed", func(callCtx context.Context) ([][]float32, error) {
		var response struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := e.client.postJSON(callCtx, "/api/embed", request, &response, "embed"); err != nil {
			return nil, err
		}
		return response.Embeddings, nil
	}, classify)
	if err != nil {
		return nil, resilience.WrapGatewayError("ollama embed", err, classify)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrGateway,
			"ollama embed",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(vectors), len(texts)),
		)
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	type chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	payload := make([]chatMessage, 0, len(messages))
	for _, m := range messages {
		payload = append(payload, chatMessage{Role: string(m.Role), Content: m.Content})
	}

	request := map[string]any{
		"model":    g.client.genModel,
		"messages": payload,
		"stream":   false,
		"options": map[string]any{
			"temperature": g.client.temperature,
		},
	}

	text, err := resilience.Do(ctx, g.client.executor, "ollama.chat", func(callCtx context.Context) (string, error) {
		var response struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}
		if err := g.client.postJSON(callCtx, "/api/chat", request, &response, "chat"); err != nil {
			return "", err
		}
		return strings.TrimSpace(response.Message.Content), nil
	}, classify)
	if err != nil {
		return "", resilience.WrapGatewayError("ollama chat", err, classify)
	}
	return text, nil
}
