// Package stack resolves configuration and builds the components shared by
// gridiron commands.
package stack

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gridiron/pkg/config"
	"github.com/papercomputeco/gridiron/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/gridiron/pkg/embeddings/utils"
	"github.com/papercomputeco/gridiron/pkg/logger"
	"github.com/papercomputeco/gridiron/pkg/secrets"
	"github.com/papercomputeco/gridiron/pkg/vector"
	vectorutils "github.com/papercomputeco/gridiron/pkg/vector/utils"
)

// Load resolves the effective configuration for cmd. Registered flags named
// by keys override environment, file and default values.
func Load(cmd *cobra.Command, keys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, keys)

	return config.FromViper(v), nil
}

// NewLogger builds the command logger. Servers write JSON records to stdout;
// in debug mode a colorized copy also goes to stderr. Pretty loggers write
// only the colorized form to stderr.
func NewLogger(cfg *config.Config, pretty bool) *slog.Logger {
	console := logger.New(
		logger.WithDebug(cfg.Server.Debug),
		logger.WithPretty(true),
		logger.WithWriter(os.Stderr),
	)
	if pretty {
		return console
	}

	service := logger.New(
		logger.WithDebug(cfg.Server.Debug),
		logger.WithJSON(true),
		logger.WithWriter(os.Stdout),
	)
	if !cfg.Server.Debug {
		return service
	}
	return logger.Multi(service, console)
}

// AWS loads the default AWS credential chain pinned to the configured region.
func AWS(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return awsCfg, nil
}

// ApplySecrets replaces the vector store credentials with the Secrets
// Manager bundle when an ARN is configured.
func ApplySecrets(ctx context.Context, cfg *config.Config, resolver *secrets.Resolver) error {
	if cfg.Secrets.ARN == "" {
		return nil
	}

	bundle, err := resolver.Resolve(ctx, cfg.Secrets.ARN)
	if err != nil {
		return err
	}
	return bundle.Apply(&cfg.VectorStore)
}

// KnowledgeBase builds the embedder and vector store. The caller closes both.
func KnowledgeBase(ctx context.Context, cfg *config.Config, awsCfg aws.Config, log *slog.Logger) (embeddings.Embedder, vector.Driver, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		APIKey:       cfg.Model.APIKey,
		AWS:          awsCfg,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating embedder: %w", err)
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		Store:      cfg.VectorStore,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     log,
	})
	if err != nil {
		_ = embedder.Close()
		return nil, nil, fmt.Errorf("creating vector store: %w", err)
	}

	log.Info("knowledge base ready",
		"embedding_provider", cfg.Embedding.Provider,
		"embedding_model", cfg.Embedding.Model,
		"dimensions", cfg.Embedding.Dimensions,
		"vector_store", cfg.VectorStore.Provider,
	)
	return embedder, driver, nil
}
