// Package mcp exposes the fact adapters as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/gridiron/pkg/llm"
	"github.com/papercomputeco/gridiron/pkg/utils"
)

// Tools is the tool set served over MCP.
type Tools interface {
	Definitions() []llm.ToolDefinition
	Call(ctx context.Context, name string, input map[string]any) (string, error)
}

type Config struct {
	// Tools are registered one MCP tool per definition.
	Tools Tools

	// Noop for empty MCP server
	Noop bool

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server exposing every configured tool.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "gridiron",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if !c.Noop {
		if c.Tools == nil {
			return nil, errors.New("tools are required")
		}
		if c.Logger == nil {
			return nil, errors.New("logger is required")
		}

		for _, def := range c.Tools.Definitions() {
			mcpServer.AddTool(&mcp.Tool{
				Name:        def.Name,
				Description: def.Description,
				InputSchema: def.Schema(),
			}, s.toolHandler(def.Name))
		}
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// toolHandler adapts one registry tool. Tool failures become error results
// rather than protocol errors.
func (s *Server) toolHandler(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := map[string]any{}
		if req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &input); err != nil {
				return errorResult(fmt.Sprintf("Invalid arguments: %v", err)), nil
			}
		}

		s.config.Logger.Debug("MCP tool request",
			"tool", name,
		)

		out, err := s.config.Tools.Call(ctx, name, input)
		if err != nil {
			return errorResult(fmt.Sprintf("%s failed: %v", name, err)), nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: out},
			},
		}, nil
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
