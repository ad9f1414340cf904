package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/papercomputeco/gridiron/pkg/llm"
)

// ErrMockProvider is returned by MockProvider when Err is unset but the
// scripted responses are exhausted.
var ErrMockProvider = errors.New("mock provider: no scripted response")

// MockProvider replays scripted responses in order and records requests.
type MockProvider struct {
	mu sync.Mutex

	// Responses are returned one per call.
	Responses []*llm.ChatResponse

	// Err is returned by every call when set.
	Err error

	// Requests records each request received.
	Requests []*llm.ChatRequest
}

// NewMockProvider creates a provider that answers with the given responses.
func NewMockProvider(responses ...*llm.ChatResponse) *MockProvider {
	return &MockProvider{Responses: responses}
}

// TextResponse is a final assistant answer.
func TextResponse(text string) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model:      "mock-model",
		Message:    llm.NewTextMessage(llm.RoleAssistant, text),
		StopReason: llm.StopEndTurn,
		Usage:      &llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// ToolUseResponse asks for a single tool call.
func ToolUseResponse(id, name string, input map[string]any) *llm.ChatResponse {
	return &llm.ChatResponse{
		Model: "mock-model",
		Message: llm.Message{
			Role: llm.RoleAssistant,
			Content: []llm.ContentBlock{{
				Type:      llm.BlockToolUse,
				ToolUseID: id,
				ToolName:  name,
				ToolInput: input,
			}},
		},
		StopReason: llm.StopToolUse,
		Usage:      &llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) next(req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return nil, ErrMockProvider
	}
	resp := m.Responses[0]
	m.Responses = m.Responses[1:]
	return resp, nil
}

func (m *MockProvider) Chat(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return m.next(req)
}

// ChatStream emits each word of the response text as its own chunk.
func (m *MockProvider) ChatStream(_ context.Context, req *llm.ChatRequest, handle llm.StreamHandler) (*llm.ChatResponse, error) {
	resp, err := m.next(req)
	if err != nil {
		return nil, err
	}

	text := resp.Message.GetText()
	for _, word := range strings.SplitAfter(text, " ") {
		if word == "" {
			continue
		}
		if err := handle(llm.StreamChunk{Model: resp.Model, Text: word}); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// RequestCount returns the number of calls received.
func (m *MockProvider) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
