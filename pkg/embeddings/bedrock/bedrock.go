// Package bedrock implements pkg/embeddings' Embedder on Amazon Titan text
// embeddings served by AWS Bedrock.
package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/papercomputeco/gridiron/pkg/embeddings"
)

// DefaultModel is Titan Text Embeddings v2.
const DefaultModel = "amazon.titan-embed-text-v2:0"

// InvokeModelAPI is the subset of the Bedrock runtime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// EmbedderConfig holds configuration for the Bedrock embedder.
type EmbedderConfig struct {
	Client     InvokeModelAPI
	Model      string
	Dimensions int
}

// Embedder produces normalized Titan embeddings.
type Embedder struct {
	client     InvokeModelAPI
	model      string
	dimensions int
}

type titanRequest struct {
	InputText  string `json:"inputText"`
	Dimensions int    `json:"dimensions"`
	Normalize  bool   `json:"normalize"`
}

type titanResponse struct {
	Embedding           []float32 `json:"embedding"`
	InputTextTokenCount int       `json:"inputTextTokenCount"`
}

// NewEmbedder creates a Bedrock embedder around an existing runtime client.
func NewEmbedder(cfg EmbedderConfig) (*Embedder, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("%w: bedrock runtime client is required", embeddings.ErrProviderUnavailable)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	dims := cfg.Dimensions
	if dims == 0 {
		dims = embeddings.DefaultDimensions
	}

	return &Embedder{
		client:     cfg.Client,
		model:      model,
		dimensions: dims,
	}, nil
}

// Embed converts text into a vector embedding.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := embeddings.CheckText(text); err != nil {
		return nil, err
	}

	body, err := json.Marshal(titanRequest{
		InputText:  text,
		Dimensions: e.dimensions,
		Normalize:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", embeddings.ErrProviderUnavailable, err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.model),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: invoking %s: %v", embeddings.ErrProviderUnavailable, e.model, err)
	}

	var resp titanResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", embeddings.ErrProviderUnavailable, err)
	}

	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned", embeddings.ErrProviderUnavailable)
	}

	return resp.Embedding, nil
}

// Close releases resources held by the embedder.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
