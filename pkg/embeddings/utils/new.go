// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/papercomputeco/gridiron/pkg/embeddings"
	"github.com/papercomputeco/gridiron/pkg/embeddings/bedrock"
	"github.com/papercomputeco/gridiron/pkg/embeddings/ollama"
	"github.com/papercomputeco/gridiron/pkg/embeddings/openai"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint
	APIKey       string

	// AWS is used by the bedrock provider.
	AWS aws.Config
}

func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	switch o.ProviderType {
	case "bedrock":
		return bedrock.NewEmbedder(bedrock.EmbedderConfig{
			Client:     bedrockruntime.NewFromConfig(o.AWS),
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	case "ollama":
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	case "openai":
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     o.APIKey,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
