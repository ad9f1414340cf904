// Package adapters implements the fact sources the reasoning model can call:
// the knowledge-base search plus live ESPN and Wikipedia lookups.
//
// Every adapter reports its own upstream failures as readable text, so a
// tool call only returns an error for invalid input or an unusable
// knowledge base.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/papercomputeco/gridiron/pkg/debugtrace"
	"github.com/papercomputeco/gridiron/pkg/llm"
)

var (
	// ErrInvalidInput is returned when a tool call is missing a required
	// argument or has one of the wrong type.
	ErrInvalidInput = errors.New("invalid tool input")

	// ErrUnknownTool is returned when the registry has no tool by that name.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrUpstream is returned when an external source answers with a
	// non-success status.
	ErrUpstream = errors.New("upstream request failed")
)

// Tool is a single callable fact source.
type Tool interface {
	// Definition describes the tool to the model.
	Definition() llm.ToolDefinition

	// Call runs the tool with the model-supplied input and returns text
	// for the model to read.
	Call(ctx context.Context, input map[string]any) (string, error)
}

// Registry holds tools by name and traces every call.
type Registry struct {
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry registers tools. A later tool replaces an earlier one with the
// same name.
func NewRegistry(logger *slog.Logger, tools ...Tool) *Registry {
	r := &Registry{
		tools:  make(map[string]Tool, len(tools)),
		logger: logger,
	}
	for _, t := range tools {
		r.tools[t.Definition().Name] = t
	}
	return r
}

// Definitions returns every tool definition sorted by name.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// Names returns the registered tool names sorted.
func (r *Registry) Names() []string {
	defs := r.Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Call runs the named tool and records its input and output in the
// request's debug trace.
func (r *Registry) Call(ctx context.Context, name string, input map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	debugtrace.Record(ctx, name, debugtrace.PhaseInput, input)

	out, err := t.Call(ctx, input)
	if err != nil {
		r.logger.Warn("tool call failed",
			"tool", name,
			"error", err,
		)
		debugtrace.Record(ctx, name, debugtrace.PhaseOutput, "Error: "+err.Error())
		return "", err
	}

	r.logger.Debug("tool call completed",
		"tool", name,
		"output_bytes", len(out),
	)
	debugtrace.Record(ctx, name, debugtrace.PhaseOutput, out)
	return out, nil
}

// stringArg reads a string argument. Required arguments must be non-empty.
func stringArg(input map[string]any, key string, required bool) (string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, key)
		}
		return "", nil
	}

	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidInput, key)
	}
	if required && s == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, key)
	}
	return s, nil
}

// intArg reads an optional integer argument, accepting JSON numbers.
func intArg(input map[string]any, key string) (int, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return 0, nil
	}

	switch n := v.(type) {
	case float64:
		switch {
		case math.IsNaN(n) || n <= 0:
			return 0, nil
		case n >= math.MaxInt32:
			return math.MaxInt32, nil
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number", ErrInvalidInput, key)
	}
}
