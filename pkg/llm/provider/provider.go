// Package provider defines the reasoning model contract and builds
// providers from configuration.
package provider

import (
	"context"

	"github.com/papercomputeco/gridiron/pkg/llm"
)

// Provider sends provider-agnostic chat requests to a reasoning model.
type Provider interface {
	// Name returns the canonical provider name (e.g., "anthropic", "bedrock", "openai", "ollama")
	Name() string

	// Chat performs one model call and returns the complete response.
	Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	// ChatStream performs one model call, passing text fragments to handle
	// as they arrive, and returns the assembled response including any
	// tool_use blocks.
	ChatStream(ctx context.Context, req *llm.ChatRequest, handle llm.StreamHandler) (*llm.ChatResponse, error)
}
