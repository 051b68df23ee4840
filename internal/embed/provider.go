// Package embed turns text into embedding vectors through an
// OpenAI-compatible endpoint.
package embed

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call an embedding model. It
// mirrors the CreateEmbeddings method of *openai.Client so any compatible
// backend can be adapted.
type Client interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder implements Embedder over an OpenAI-compatible client.
type OpenAIEmbedder struct {
	Client Client
	Model  string
}

// NewOpenAI builds an embedder for baseURL. An empty baseURL keeps the
// OpenAI default.
func NewOpenAI(apiKey, baseURL, model string, cfg func(*openai.ClientConfig)) *OpenAIEmbedder {
	c := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		c.BaseURL = baseURL
	}
	if cfg != nil {
		cfg(&c)
	}
	return &OpenAIEmbedder{Client: openai.NewClientWithConfig(c), Model: model}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	resp, err := e.Client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(e.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d inputs", len(resp.Data), len(texts))
	}
	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(out) || out[idx] != nil {
			return nil, errors.New("embedding response has invalid indices")
		}
		out[idx] = d.Embedding
	}
	return out, nil
}
