package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/gridiron/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	mu sync.Mutex

	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// Calls records every text passed to Embed.
	Calls []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, text)

	if err := embeddings.CheckText(text); err != nil {
		return nil, err
	}
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("%w: mock embedding failure for: %s", embeddings.ErrProviderUnavailable, text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	// Return a default embedding for any text
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}
