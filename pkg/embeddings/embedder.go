// Package embeddings defines the text-to-vector contract shared by ingestion
// and retrieval.
package embeddings

import (
	"context"
	"errors"
	"strings"
)

// DefaultDimensions is the vector length produced when no dimensionality is
// configured. It must match the knowledge-base column width.
const DefaultDimensions = 1024

var (
	// ErrProviderUnavailable is returned when the embedding service cannot
	// produce a vector: network, authentication, or an unusable payload.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrEmptyText is returned for blank input, before any outbound call.
	ErrEmptyText = errors.New("cannot embed empty text")
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding of fixed dimensionality.
	// Identical text yields the same vector for a fixed model.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// CheckText rejects blank input.
func CheckText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	return nil
}
