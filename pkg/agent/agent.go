// Package agent orchestrates one answer: it assembles memory context, runs
// the model and tool loop, and hands the finished exchange to the
// background recorder.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/gridiron/pkg/assembler"
	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/llm/provider"
	"github.com/papercomputeco/gridiron/pkg/worker"
)

// ErrModelInvocationFailed is returned when the reasoning provider fails.
var ErrModelInvocationFailed = errors.New("model invocation failed")

const (
	// DefaultMaxTurns bounds model calls per answer when unset.
	DefaultMaxTurns = 10

	// StopMaxTurns is reported when the turn limit ends the loop while the
	// model still wants tools.
	StopMaxTurns = "max_turns"

	previewLength = 100
)

// Tools runs the fact sources the model may call.
type Tools interface {
	Definitions() []llm.ToolDefinition
	Call(ctx context.Context, name string, input map[string]any) (string, error)
}

// Recorder accepts finished exchanges for background persistence.
type Recorder interface {
	Enqueue(job worker.Job) bool
}

// Config configures an Agent.
type Config struct {
	Provider  provider.Provider
	Tools     Tools
	Assembler *assembler.Assembler
	Recorder  Recorder

	Model     string
	MaxTokens int
	MaxTurns  int

	// SystemPrompt is the base prompt; memory context is appended per
	// request. Defaults to assembler.BaseSystemPrompt.
	SystemPrompt string

	Logger *slog.Logger
}

// Input is one question.
type Input struct {
	Prompt    string
	ActorID   string
	SessionID string
}

// Answer is the outcome of a completed loop.
type Answer struct {
	// Text concatenates the model's text across every turn, in order.
	Text       string
	StopReason string
	ToolsUsed  []string
	Usage      llm.Usage
}

// Agent answers prompts.
type Agent struct {
	config Config
	logger *slog.Logger
}

// New creates an Agent.
func New(c Config) *Agent {
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = assembler.BaseSystemPrompt
	}

	return &Agent{
		config: c,
		logger: c.Logger,
	}
}

// Answer runs the loop to completion without streaming.
func (a *Agent) Answer(ctx context.Context, in Input) (*Answer, error) {
	started := time.Now()

	answer, err := a.run(ctx, in, nil)
	if err != nil {
		return nil, err
	}

	a.record(in, answer, false, started)
	return answer, nil
}

// run executes the model and tool loop. A nil handle selects the
// non-streaming provider call.
func (a *Agent) run(ctx context.Context, in Input, handle llm.StreamHandler) (*Answer, error) {
	a.logger.Info("processing prompt",
		"actor_id", in.ActorID,
		"session_id", in.SessionID,
		"prompt_preview", preview(in.Prompt),
		"streaming", handle != nil,
	)

	system := a.config.SystemPrompt
	if a.config.Assembler != nil {
		memoryContext := a.config.Assembler.BuildContext(ctx, in.ActorID, in.SessionID, in.Prompt)
		system = assembler.SystemPrompt(system, memoryContext)
	}

	var tools []llm.ToolDefinition
	if a.config.Tools != nil {
		tools = a.config.Tools.Definitions()
	}

	messages := []llm.Message{llm.NewTextMessage(llm.RoleUser, in.Prompt)}
	answer := &Answer{}

	for turn := 0; turn < a.config.MaxTurns; turn++ {
		req := &llm.ChatRequest{
			Model:     a.config.Model,
			System:    system,
			Messages:  messages,
			Tools:     tools,
			MaxTokens: a.config.MaxTokens,
		}

		resp, err := a.call(ctx, req, handle)
		if err != nil {
			a.logger.Error("model invocation failed",
				"provider", a.config.Provider.Name(),
				"turn", turn,
				"error", err,
			)
			return nil, fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
		}

		answer.Usage.Add(resp.Usage)
		answer.Text += resp.Message.GetText()
		answer.StopReason = resp.StopReason
		messages = append(messages, resp.Message)

		uses := resp.Message.ToolUses()
		if len(uses) == 0 {
			return answer, nil
		}

		for _, use := range uses {
			answer.ToolsUsed = append(answer.ToolsUsed, use.ToolName)
		}
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: a.runTools(ctx, uses),
		})
	}

	a.logger.Warn("turn limit reached",
		"actor_id", in.ActorID,
		"max_turns", a.config.MaxTurns,
	)
	answer.StopReason = StopMaxTurns
	return answer, nil
}

func (a *Agent) call(ctx context.Context, req *llm.ChatRequest, handle llm.StreamHandler) (*llm.ChatResponse, error) {
	if handle == nil {
		return a.config.Provider.Chat(ctx, req)
	}
	return a.config.Provider.ChatStream(ctx, req, handle)
}

// runTools calls every requested tool concurrently and returns the results
// in request order. A failing tool becomes an error result.
func (a *Agent) runTools(ctx context.Context, uses []llm.ContentBlock) []llm.ContentBlock {
	results := make([]llm.ContentBlock, len(uses))

	var g errgroup.Group
	for i, use := range uses {
		g.Go(func() error {
			if a.config.Tools == nil {
				results[i] = llm.NewToolResult(use.ToolUseID, "no tools are available", true)
				return nil
			}

			out, err := a.config.Tools.Call(ctx, use.ToolName, use.ToolInput)
			if err != nil {
				results[i] = llm.NewToolResult(use.ToolUseID, err.Error(), true)
				return nil
			}
			results[i] = llm.NewToolResult(use.ToolUseID, out, false)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// record hands the exchange to the recorder without waiting.
func (a *Agent) record(in Input, answer *Answer, streaming bool, started time.Time) {
	if a.config.Recorder == nil {
		return
	}

	ok := a.config.Recorder.Enqueue(worker.Job{
		ActorID:     in.ActorID,
		SessionID:   in.SessionID,
		Prompt:      in.Prompt,
		Answer:      answer.Text,
		Provider:    a.config.Provider.Name(),
		Model:       a.config.Model,
		StopReason:  answer.StopReason,
		ToolsUsed:   answer.ToolsUsed,
		Streaming:   streaming,
		StartedAt:   started,
		CompletedAt: time.Now(),
	})
	if !ok {
		a.logger.Warn("answer not recorded",
			"actor_id", in.ActorID,
			"session_id", in.SessionID,
		)
	}
}

func preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength])
}
