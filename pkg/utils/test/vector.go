package testutils

import (
	"context"
	"strings"
	"sync"

	"github.com/papercomputeco/gridiron/pkg/vector"
)

// MockVectorDriver is a test vector driver that returns canned results.
type MockVectorDriver struct {
	mu sync.Mutex

	// Chunks accumulates everything passed to UpsertMany.
	Chunks []vector.Chunk

	// Results is returned by Search, truncated to k.
	Results []vector.Result

	// LastK is the k passed to the most recent Search call, before defaults.
	LastK int

	// Err is returned by every operation when set.
	Err error
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) UpsertMany(_ context.Context, chunks []vector.Chunk) (*vector.UpsertResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	m.Chunks = append(m.Chunks, chunks...)
	return &vector.UpsertResult{Written: len(chunks)}, nil
}

func (m *MockVectorDriver) DeleteByCategory(_ context.Context, patterns []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}

	var (
		kept    []vector.Chunk
		removed int64
	)
	for _, c := range m.Chunks {
		if matchesAny(c.Category, patterns) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	m.Chunks = kept
	return removed, nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ []float32, k int) ([]vector.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	m.LastK = k
	k = vector.TopK(k)
	if len(m.Results) < k {
		return m.Results, nil
	}
	return m.Results[:k], nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.Chunks)), m.Err
}

func (m *MockVectorDriver) Close() error {
	return nil
}

func matchesAny(category string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(category, p) {
			return true
		}
	}
	return false
}
