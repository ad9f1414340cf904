// Package openai provides a reasoning provider for OpenAI-compatible chat
// completion APIs, including OpenAI itself and local Ollama servers.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/papercomputeco/gridiron/pkg/llm"
)

// Config holds configuration for an OpenAI-compatible provider.
type Config struct {
	// Name is reported by Name, e.g. "openai" or "ollama".
	Name    string
	APIKey  string
	BaseURL string
}

// Provider implements the reasoning provider contract over chat completions.
type Provider struct {
	name   string
	client *sdk.Client
	logger *slog.Logger
}

// New creates an OpenAI-compatible provider.
func New(c Config, logger *slog.Logger) *Provider {
	cfg := sdk.DefaultConfig(c.APIKey)
	if c.BaseURL != "" {
		cfg.BaseURL = c.BaseURL
	}
	name := c.Name
	if name == "" {
		name = "openai"
	}

	return &Provider{
		name:   name,
		client: sdk.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Name
func (p *Provider) Name() string {
	return p.name
}

// Chat performs one chat completion call.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	resp, err := p.client.CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		return nil, fmt.Errorf("%s chat completion: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s chat completion: no choices returned", p.name)
	}

	choice := resp.Choices[0]
	msg, err := fromMessage(choice.Message.Content, choice.Message.ToolCalls)
	if err != nil {
		return nil, err
	}

	return &llm.ChatResponse{
		Model:      resp.Model,
		CreatedAt:  time.Now(),
		Message:    msg,
		StopReason: stopReason(choice.FinishReason),
		Usage: &llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ChatStream performs one streaming chat completion call. Tool call
// fragments are merged by index.
func (p *Provider) ChatStream(ctx context.Context, req *llm.ChatRequest, handle llm.StreamHandler) (*llm.ChatResponse, error) {
	r := buildRequest(req)
	r.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("%s chat completion stream: %w", p.name, err)
	}
	defer stream.Close()

	var (
		text   string
		model  string
		finish sdk.FinishReason
		usage  *sdk.Usage
		calls  = map[int]*sdk.ToolCall{}
	)

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s chat completion stream: %w", p.name, err)
		}

		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			finish = choice.FinishReason
		}

		if choice.Delta.Content != "" {
			text += choice.Delta.Content
			if err := handle(llm.StreamChunk{Model: model, Text: choice.Delta.Content}); err != nil {
				return nil, err
			}
		}

		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			acc, ok := calls[idx]
			if !ok {
				acc = &sdk.ToolCall{Type: sdk.ToolTypeFunction}
				calls[idx] = acc
			}
			if tc.ID != "" {
				acc.ID = tc.ID
			}
			if tc.Function.Name != "" {
				acc.Function.Name = tc.Function.Name
			}
			acc.Function.Arguments += tc.Function.Arguments
		}
	}

	indexes := make([]int, 0, len(calls))
	for i := range calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	toolCalls := make([]sdk.ToolCall, 0, len(indexes))
	for _, i := range indexes {
		toolCalls = append(toolCalls, *calls[i])
	}

	msg, err := fromMessage(text, toolCalls)
	if err != nil {
		return nil, err
	}

	resp := &llm.ChatResponse{
		Model:      model,
		CreatedAt:  time.Now(),
		Message:    msg,
		StopReason: stopReason(finish),
	}
	if usage != nil {
		resp.Usage = &llm.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
		}
	}
	return resp, nil
}

func buildRequest(req *llm.ChatRequest) sdk.ChatCompletionRequest {
	r := sdk.ChatCompletionRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		Messages:  toMessages(req.System, req.Messages),
	}
	if req.Temperature != nil {
		r.Temperature = float32(*req.Temperature)
	}

	for _, t := range req.Tools {
		r.Tools = append(r.Tools, sdk.Tool{
			Type: sdk.ToolTypeFunction,
			Function: &sdk.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Schema(),
			},
		})
	}
	return r
}

// toMessages flattens block content into chat messages. Tool results become
// one "tool" message each.
func toMessages(system string, msgs []llm.Message) []sdk.ChatCompletionMessage {
	out := make([]sdk.ChatCompletionMessage, 0, len(msgs)+1)
	if system != "" {
		out = append(out, sdk.ChatCompletionMessage{
			Role:    sdk.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, m := range msgs {
		if m.Role == llm.RoleAssistant {
			am := sdk.ChatCompletionMessage{
				Role:    sdk.ChatMessageRoleAssistant,
				Content: m.GetText(),
			}
			for _, use := range m.ToolUses() {
				args, _ := json.Marshal(use.ToolInput)
				am.ToolCalls = append(am.ToolCalls, sdk.ToolCall{
					ID:   use.ToolUseID,
					Type: sdk.ToolTypeFunction,
					Function: sdk.FunctionCall{
						Name:      use.ToolName,
						Arguments: string(args),
					},
				})
			}
			out = append(out, am)
			continue
		}

		if text := m.GetText(); text != "" {
			out = append(out, sdk.ChatCompletionMessage{
				Role:    sdk.ChatMessageRoleUser,
				Content: text,
			})
		}
		for _, b := range m.Content {
			if b.Type != llm.BlockToolResult {
				continue
			}
			content := b.ToolOutput
			if b.IsError {
				content = "Error: " + content
			}
			out = append(out, sdk.ChatCompletionMessage{
				Role:       sdk.ChatMessageRoleTool,
				Content:    content,
				ToolCallID: b.ToolResultID,
			})
		}
	}
	return out
}

func fromMessage(text string, toolCalls []sdk.ToolCall) (llm.Message, error) {
	msg := llm.Message{Role: llm.RoleAssistant}
	if text != "" {
		msg.Content = append(msg.Content, llm.ContentBlock{Type: llm.BlockText, Text: text})
	}

	for _, tc := range toolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				return msg, fmt.Errorf("decoding %s tool arguments: %w", tc.Function.Name, err)
			}
		}
		msg.Content = append(msg.Content, llm.ContentBlock{
			Type:      llm.BlockToolUse,
			ToolUseID: tc.ID,
			ToolName:  tc.Function.Name,
			ToolInput: input,
		})
	}
	return msg, nil
}

func stopReason(r sdk.FinishReason) string {
	switch r {
	case sdk.FinishReasonStop:
		return llm.StopEndTurn
	case sdk.FinishReasonToolCalls, sdk.FinishReasonFunctionCall:
		return llm.StopToolUse
	case sdk.FinishReasonLength:
		return llm.StopMaxTokens
	default:
		return string(r)
	}
}
