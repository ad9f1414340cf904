package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/papercomputeco/gridiron/pkg/llm/provider/anthropic"
	"github.com/papercomputeco/gridiron/pkg/llm/provider/openai"
)

// Supported provider type constants
const (
	Anthropic = "anthropic"
	Bedrock   = "bedrock"
	OpenAI    = "openai"
	Ollama    = "ollama"
)

// DefaultOllamaURL is the OpenAI-compatible endpoint of a local Ollama.
const DefaultOllamaURL = "http://localhost:11434/v1"

// SupportedProviders returns the list of all supported provider type names.
func SupportedProviders() []string {
	return []string{Anthropic, Bedrock, OpenAI, Ollama}
}

// Options configures New.
type Options struct {
	ProviderType string
	BaseURL      string
	APIKey       string

	// AWS is used by the bedrock provider.
	AWS aws.Config

	Logger *slog.Logger
}

// New creates a new Provider instance for the given provider type.
// Returns an error if the provider type is not recognized.
func New(_ context.Context, opts Options) (Provider, error) {
	switch opts.ProviderType {
	case Anthropic:
		return anthropic.New(anthropic.Config{
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
		}, opts.Logger), nil
	case Bedrock:
		return anthropic.NewBedrock(opts.AWS, opts.Logger), nil
	case OpenAI:
		return openai.New(openai.Config{
			Name:    OpenAI,
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
		}, opts.Logger), nil
	case Ollama:
		baseURL := opts.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaURL
		}
		return openai.New(openai.Config{
			Name:    Ollama,
			APIKey:  "ollama",
			BaseURL: baseURL,
		}, opts.Logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %q (supported: %v)", opts.ProviderType, SupportedProviders())
	}
}
