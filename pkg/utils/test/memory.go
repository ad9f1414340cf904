package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/gridiron/pkg/memory"
)

// AppendCall records one AppendTurns invocation.
type AppendCall struct {
	ActorID   string
	SessionID string
	Turns     []memory.Turn
}

// MockMemoryDriver is a test memory driver that records calls and returns
// configurable results.
type MockMemoryDriver struct {
	mu sync.Mutex

	// Appended accumulates all AppendTurns calls.
	Appended []AppendCall

	// Searches accumulates the namespaces passed to SearchLongTerm.
	Searches []string

	// Turns is returned by RecentTurns for any session.
	Turns []memory.Turn

	// Records maps namespace -> records returned by SearchLongTerm.
	Records map[string][]memory.Record

	// FailAppend causes AppendTurns to return an error.
	FailAppend bool

	// FailRecent causes RecentTurns to return an error.
	FailRecent bool

	// FailSearch causes SearchLongTerm to return an error.
	FailSearch bool
}

// NewMockMemoryDriver creates a new mock memory driver.
func NewMockMemoryDriver() *MockMemoryDriver {
	return &MockMemoryDriver{
		Records: make(map[string][]memory.Record),
	}
}

func (m *MockMemoryDriver) AppendTurns(_ context.Context, actorID, sessionID string, turns []memory.Turn) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAppend {
		return "", memory.ErrStoreUnavailable
	}
	m.Appended = append(m.Appended, AppendCall{ActorID: actorID, SessionID: sessionID, Turns: turns})
	return "mock-event", nil
}

func (m *MockMemoryDriver) RecentTurns(_ context.Context, _, _ string, _ int) ([]memory.Turn, error) {
	if m.FailRecent {
		return nil, memory.ErrStoreUnavailable
	}
	return m.Turns, nil
}

func (m *MockMemoryDriver) SearchLongTerm(_ context.Context, _, namespace string, _ int) ([]memory.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Searches = append(m.Searches, namespace)
	if m.FailSearch {
		return nil, memory.ErrStoreUnavailable
	}
	return m.Records[namespace], nil
}

// AppendCalls returns a snapshot of recorded AppendTurns calls.
func (m *MockMemoryDriver) AppendCalls() []AppendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]AppendCall(nil), m.Appended...)
}

func (m *MockMemoryDriver) Close() error {
	return nil
}
