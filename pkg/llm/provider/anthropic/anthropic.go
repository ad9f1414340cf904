// Package anthropic provides a reasoning provider for Claude, called either
// directly through the Anthropic API or through AWS Bedrock.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/papercomputeco/gridiron/pkg/llm"
)

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 4096

// Config holds configuration for the direct API provider.
type Config struct {
	APIKey  string
	BaseURL string
}

// Provider implements the reasoning provider contract for Claude.
type Provider struct {
	name   string
	client sdk.Client
	logger *slog.Logger
}

// New creates a provider that calls the Anthropic API.
func New(c Config, logger *slog.Logger) *Provider {
	var opts []option.RequestOption
	if c.APIKey != "" {
		opts = append(opts, option.WithAPIKey(c.APIKey))
	}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}

	return &Provider{
		name:   "anthropic",
		client: sdk.NewClient(opts...),
		logger: logger,
	}
}

// NewBedrock creates a provider that calls Claude through AWS Bedrock using
// the given AWS configuration for region and credentials.
func NewBedrock(cfg aws.Config, logger *slog.Logger) *Provider {
	return &Provider{
		name:   "bedrock",
		client: sdk.NewClient(bedrock.WithConfig(cfg)),
		logger: logger,
	}
}

// Name
func (p *Provider) Name() string {
	return p.name
}

// Chat sends one Messages API call.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	params := buildParams(req)

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s messages call: %w", p.name, err)
	}

	return toResponse(msg)
}

// ChatStream sends one streaming Messages API call, forwarding text deltas
// to handle and accumulating the full message.
func (p *Provider) ChatStream(ctx context.Context, req *llm.ChatRequest, handle llm.StreamHandler) (*llm.ChatResponse, error) {
	params := buildParams(req)

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := sdk.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			p.logger.Warn("failed to accumulate stream event",
				"provider", p.name,
				"error", err,
			)
		}

		ev, ok := event.AsAny().(sdk.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		delta, ok := ev.Delta.AsAny().(sdk.TextDelta)
		if !ok || delta.Text == "" {
			continue
		}
		if err := handle(llm.StreamChunk{Model: req.Model, Text: delta.Text}); err != nil {
			return nil, err
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s messages stream: %w", p.name, err)
	}

	return toResponse(&message)
}

func buildParams(req *llm.ChatRequest) sdk.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages:  toMessages(req.Messages),
	}

	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	for _, t := range req.Tools {
		props := t.Properties
		if props == nil {
			props = map[string]any{}
		}
		params.Tools = append(params.Tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        t.Name,
				Description: sdk.String(t.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: props,
					Required:   t.Required,
				},
			},
		})
	}

	return params
}

func toMessages(msgs []llm.Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(m.Content))
		for _, b := range m.Content {
			switch b.Type {
			case llm.BlockText:
				if b.Text != "" {
					blocks = append(blocks, sdk.NewTextBlock(b.Text))
				}
			case llm.BlockToolUse:
				input := b.ToolInput
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(b.ToolUseID, input, b.ToolName))
			case llm.BlockToolResult:
				blocks = append(blocks, sdk.NewToolResultBlock(b.ToolResultID, b.ToolOutput, b.IsError))
			}
		}

		if m.Role == llm.RoleAssistant {
			out = append(out, sdk.NewAssistantMessage(blocks...))
		} else {
			out = append(out, sdk.NewUserMessage(blocks...))
		}
	}
	return out
}

func toResponse(msg *sdk.Message) (*llm.ChatResponse, error) {
	content := make([]llm.ContentBlock, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			content = append(content, llm.ContentBlock{Type: llm.BlockText, Text: block.Text})
		case "tool_use":
			input, err := decodeInput(block.Input)
			if err != nil {
				return nil, fmt.Errorf("decoding %s tool input: %w", block.Name, err)
			}
			content = append(content, llm.ContentBlock{
				Type:      llm.BlockToolUse,
				ToolUseID: block.ID,
				ToolName:  block.Name,
				ToolInput: input,
			})
		}
	}

	usage := &llm.Usage{
		PromptTokens:             int(msg.Usage.InputTokens),
		CompletionTokens:         int(msg.Usage.OutputTokens),
		TotalTokens:              int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		CacheCreationInputTokens: int(msg.Usage.CacheCreationInputTokens),
		CacheReadInputTokens:     int(msg.Usage.CacheReadInputTokens),
	}

	return &llm.ChatResponse{
		Model:     string(msg.Model),
		CreatedAt: time.Now(),
		Message: llm.Message{
			Role:    llm.RoleAssistant,
			Content: content,
		},
		StopReason: string(msg.StopReason),
		Usage:      usage,
	}, nil
}

func decodeInput(raw any) (map[string]any, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	input := map[string]any{}
	if len(b) == 0 || string(b) == "null" || string(b) == `""` {
		return input, nil
	}
	if err := json.Unmarshal(b, &input); err != nil {
		return nil, err
	}
	return input, nil
}
