package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/gridiron/api/mcp"
	"github.com/papercomputeco/gridiron/pkg/agent"
)

// Answerer produces answers for the invocations endpoint.
type Answerer interface {
	Answer(ctx context.Context, in agent.Input) (*agent.Answer, error)
	Stream(ctx context.Context, in agent.Input) <-chan agent.Event
}

// Server is the HTTP API server.
type Server struct {
	config Config
	agent  Answerer
	logger *slog.Logger
	app    *fiber.App
	now    func() time.Time
}

// NewServer creates a new API server. A nil mcpServer leaves /mcp
// unregistered.
func NewServer(config Config, answerer Answerer, mcpServer *mcp.Server, logger *slog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		agent:  answerer,
		logger: logger,
		app:    app,
		now:    time.Now,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/invocations", s.handleInvocations)

	if mcpServer != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}
