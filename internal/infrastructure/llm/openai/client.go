// Package openai adapts OpenAI-compatible endpoints to the embedding and
// generation ports.
package openai

import (
	"context"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

type Client struct {
	api         *goopenai.Client
	chatModel   string
	embedModel  string
	temperature float32
	executor    *resilience.Executor
}

func New(apiKey, baseURL, chatModel, embedModel string, executor *resilience.Executor) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		api:         goopenai.NewClientWithConfig(cfg),
		chatModel:   chatModel,
		embedModel:  embedModel,
		temperature: 0.5,
		executor:    executor,
	}
}

func (c *Client) WithTemperature(t float64) *Client {
	c.temperature = float32(t)
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

	resp, err := resilience.Do(ctx, e.client.executor, "openai.embed", func(callCtx context.Context) (goopenai.EmbeddingResponse, error) {
		return e.client.api.CreateEmbeddings(callCtx, goopenai.EmbeddingRequest{
			Input: texts,
			Model: goopenai.EmbeddingModel(e.client.embedModel),
		})
	}, classify)
	if err != nil {
		return nil, resilience.WrapGatewayError("openai embed", err, classify)
	}

	if len(resp.Data) != len(texts) {
		return nil, domain.WrapError(
			domain.ErrGateway,
			"openai embed",
			fmt.Errorf("vectors/texts mismatch: %d/%d", len(resp.Data), len(texts)),
		)
	}
	// Data is keyed by Index, which need not follow response order.
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) || out[item.Index] != nil {
			return nil, domain.WrapError(domain.ErrGateway, "openai embed", fmt.Errorf("unexpected embedding index %d", item.Index))
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
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
	request := goopenai.ChatCompletionRequest{
		Model:       g.client.chatModel,
		Temperature: g.client.temperature,
		Messages:    make([]goopenai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		request.Messages = append(request.Messages, goopenai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	resp, err := resilience.Do(ctx, g.client.executor, "openai.chat", func(callCtx context.Context) (goopenai.ChatCompletionResponse, error) {
		return g.client.api.CreateChatCompletion(callCtx, request)
	}, classify)
	if err != nil {
		return "", resilience.WrapGatewayError("openai chat", err, classify)
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrGateway, "openai chat", fmt.Errorf("empty choices"))
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
