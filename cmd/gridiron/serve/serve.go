// Package servecmder provides the serve command that runs the gridiron
// HTTP service.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/gridiron/api"
	"github.com/papercomputeco/gridiron/api/mcp"
	"github.com/papercomputeco/gridiron/cmd/gridiron/stack"
	"github.com/papercomputeco/gridiron/pkg/adapters"
	"github.com/papercomputeco/gridiron/pkg/agent"
	"github.com/papercomputeco/gridiron/pkg/assembler"
	"github.com/papercomputeco/gridiron/pkg/config"
	eventstreamutils "github.com/papercomputeco/gridiron/pkg/eventstream/utils"
	"github.com/papercomputeco/gridiron/pkg/llm/provider"
	memoryutils "github.com/papercomputeco/gridiron/pkg/memory/utils"
	"github.com/papercomputeco/gridiron/pkg/secrets"
	"github.com/papercomputeco/gridiron/pkg/worker"
)

type serveCommander struct {
	flags config.FlagSet

	listen         string
	debug          bool
	region         string
	secretsARN     string
	embeddingProv  string
	embeddingTgt   string
	embeddingModel string
	embeddingDims  uint
	vectorProv     string
	vectorTgt      string
	memoryProv     string
	memoryID       string
	modelProv      string
	model          string
	eventsProv     string

	logger *slog.Logger
}

var serveFlags = []string{
	config.FlagListen,
	config.FlagDebug,
	config.FlagRegion,
	config.FlagSecretsARN,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagMemoryProv,
	config.FlagMemoryID,
	config.FlagModelProv,
	config.FlagModel,
	config.FlagEventsProv,
}

const serveLongDesc string = `Run the gridiron HTTP service.

Serves:
  GET  /ping          Health check
  POST /invocations   Answer a prompt as JSON, or as server-sent events
                      when the body sets "stream": true
  ALL  /mcp           The fact sources as Model Context Protocol tools

Configuration comes from flags, GRIDIRON_* environment variables,
.gridiron/config.toml and built-in defaults, in that order.

Examples:
  gridiron serve
  gridiron serve --listen :9000 --model-provider anthropic
  gridiron serve --vector-store-provider sqlite --vector-store-target ./kb.sqlite`

const serveShortDesc string = "Run the gridiron HTTP service"

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{flags: config.Flags}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := stack.Load(cmd, serveFlags)
			if err != nil {
				return err
			}
			return cmder.run(cmd.Context(), cfg)
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagListen, &cmder.listen)
	config.AddBoolFlag(cmd, cmder.flags, config.FlagDebug, &cmder.debug)
	config.AddStringFlag(cmd, cmder.flags, config.FlagRegion, &cmder.region)
	config.AddStringFlag(cmd, cmder.flags, config.FlagSecretsARN, &cmder.secretsARN)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingProv, &cmder.embeddingProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingTgt, &cmder.embeddingTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEmbeddingModel, &cmder.embeddingModel)
	config.AddUintFlag(cmd, cmder.flags, config.FlagEmbeddingDims, &cmder.embeddingDims)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreProv, &cmder.vectorProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagVectorStoreTgt, &cmder.vectorTgt)
	config.AddStringFlag(cmd, cmder.flags, config.FlagMemoryProv, &cmder.memoryProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagMemoryID, &cmder.memoryID)
	config.AddStringFlag(cmd, cmder.flags, config.FlagModelProv, &cmder.modelProv)
	config.AddStringFlag(cmd, cmder.flags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, cmder.flags, config.FlagEventsProv, &cmder.eventsProv)

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logger = stack.NewLogger(cfg, false)

	awsCfg, err := stack.AWS(ctx, cfg)
	if err != nil {
		return err
	}

	if err := stack.ApplySecrets(ctx, cfg, secrets.NewResolverFromConfig(awsCfg, c.logger)); err != nil {
		return err
	}

	embedder, store, err := stack.KnowledgeBase(ctx, cfg, awsCfg, c.logger)
	if err != nil {
		return err
	}
	defer embedder.Close()
	defer store.Close()

	memoryClient, err := memoryutils.NewClient(ctx, &memoryutils.NewMemoryDriverOpts{
		Memory: cfg.Memory,
		AWS:    awsCfg,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating memory client: %w", err)
	}
	defer memoryClient.Close()

	fetcher, err := adapters.NewFetcher(adapters.FetcherConfig{
		Timeout:  cfg.Adapters.Timeout,
		CacheTTL: cfg.Adapters.CacheTTL,
		Logger:   c.logger,
	})
	if err != nil {
		return err
	}
	defer fetcher.Close()

	registry := adapters.NewDefaultRegistry(adapters.Sources{
		Embedder:     embedder,
		Store:        store,
		Fetcher:      fetcher,
		ESPNSiteURL:  cfg.Adapters.ESPNSiteURL,
		WikipediaURL: cfg.Adapters.WikipediaURL,
		Logger:       c.logger,
	})

	model, err := provider.New(ctx, provider.Options{
		ProviderType: cfg.Model.Provider,
		BaseURL:      cfg.Model.BaseURL,
		APIKey:       cfg.Model.APIKey,
		AWS:          awsCfg,
		Logger:       c.logger,
	})
	if err != nil {
		return err
	}

	publisher, err := eventstreamutils.NewPublisher(cfg.Events, c.logger)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	pool, err := worker.NewPool(&worker.Config{
		Memory:    memoryClient,
		Publisher: publisher,
		Logger:    c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating worker pool: %w", err)
	}
	// Drained after the server stops so in-flight answers are recorded.
	defer pool.Close()

	answerer := agent.New(agent.Config{
		Provider:  model,
		Tools:     registry,
		Assembler: assembler.New(memoryClient, c.logger),
		Recorder:  pool,
		Model:     cfg.Model.Model,
		MaxTokens: int(cfg.Model.MaxTokens),
		MaxTurns:  int(cfg.Model.MaxTurns),
		Logger:    c.logger,
	})

	mcpServer, err := mcp.NewServer(mcp.Config{
		Tools:  registry,
		Logger: c.logger,
	})
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}

	server := api.NewServer(api.Config{ListenAddr: cfg.Server.Listen}, answerer, mcpServer, c.logger)

	c.logger.Info("gridiron ready",
		"listen", cfg.Server.Listen,
		"model_provider", model.Name(),
		"model", cfg.Model.Model,
		"memory_enabled", memoryClient.Enabled(),
		"tools", registry.Names(),
		"events_provider", cfg.Events.Provider,
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errChan:
		return err
	case <-sigCtx.Done():
		c.logger.Info("received signal, shutting down")
	}

	if err := server.Shutdown(); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("server shutdown failed", "error", err)
	}
	return nil
}
