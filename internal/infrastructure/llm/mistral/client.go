package mistral

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

const defaultBaseURL = "https://api.mistral.ai"

// Client talks to the Mistral REST API. It carries no retry logic of
// its own; the resilience decorators in this package supply it.
type Client struct {
	baseURL     string
	apiKey      string
	embedModel  string
	chatModel   string
	temperature float64
	httpClient  *http.Client
}

func New(baseURL, apiKey, embedModel, chatModel string, temperature float64) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		embedModel:  embedModel,
		chatModel:   chatModel,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Embedder generates embeddings with the configured embedding model
// (mistral-embed, 1024 dimensions).
type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	request := map[string]any{
		"model": e.client.embedModel,
		"input": texts,
	}

	var response struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := e.client.postJSON(ctx, "/v1/embeddings", request, &response, "embed"); err != nil {
		return nil, domain.WrapError(domain.ErrEmbeddingService, "embed batch", err)
	}
	if len(response.Data) != len(texts) {
		return nil, domain.WrapError(domain.ErrEmbeddingService, "embed batch",
			fmt.Errorf("embeddings/texts mismatch: %d/%d", len(response.Data), len(texts)))
	}

	vectors := make([][]float32, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, domain.WrapError(domain.ErrEmbeddingService, "embed batch",
				fmt.Errorf("embedding index %d out of range", item.Index))
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, domain.WrapError(domain.ErrEmbeddingService, "embed query",
			fmt.Errorf("empty embedding result"))
	}
	return vectors[0], nil
}

// Generator produces answers with the configured chat model.
type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":       g.client.chatModel,
		"temperature": g.client.temperature,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := g.client.postJSON(ctx, "/v1/chat/completions", request, &response, "chat"); err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("generate answer: empty choices in response")
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
