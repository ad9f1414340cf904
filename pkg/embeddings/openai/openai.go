// Package openai implements pkg/embeddings' Embedder for OpenAI-compatible
// embedding APIs.
package openai

import (
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/gridiron/pkg/embeddings"
)

// DefaultEmbeddingModel is used when no model is configured.
const DefaultEmbeddingModel = "text-embedding-3-small"

// EmbedderConfig holds configuration for the OpenAI embedder.
type EmbedderConfig struct {
	// APIKey authenticates requests.
	APIKey string

	// BaseURL overrides the API root, for OpenAI-compatible servers.
	BaseURL string

	Model      string
	Dimensions int
}

// Embedder wraps the embeddings endpoint of an OpenAI-compatible API.
type Embedder struct {
	client     *goopenai.Client
	model      string
	dimensions int
}

// NewEmbedder creates a new OpenAI embedder.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultEmbeddingModel
	}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(clientCfg),
		model:      model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := embeddings.CheckText(text); err != nil {
		return nil, err
	}

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequest{
		Model:      goopenai.EmbeddingModel(e.model),
		Input:      []string{text},
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrProviderUnavailable, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", embeddings.ErrProviderUnavailable)
	}

	return resp.Data[0].Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
