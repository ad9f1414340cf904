// Package memoryutils builds memory drivers from configuration.
package memoryutils

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/papercomputeco/gridiron/pkg/config"
	"github.com/papercomputeco/gridiron/pkg/memory"
	"github.com/papercomputeco/gridiron/pkg/memory/agentcore"
	"github.com/papercomputeco/gridiron/pkg/memory/local"
	"github.com/papercomputeco/gridiron/pkg/memory/postgres"
)

type NewMemoryDriverOpts struct {
	Memory config.MemoryConfig
	AWS    aws.Config
	Logger *slog.Logger
}

// NewMemoryDriver returns the configured driver, or nil when memory is
// disabled.
func NewMemoryDriver(ctx context.Context, opts *NewMemoryDriverOpts) (memory.Driver, error) {
	if !opts.Memory.Enabled() {
		opts.Logger.Info("memory disabled",
			"provider", opts.Memory.Provider,
		)
		return nil, nil
	}

	switch opts.Memory.Provider {
	case "agentcore":
		return agentcore.NewDriverFromConfig(opts.AWS, agentcore.Config{
			MemoryID: opts.Memory.ID,
		}, opts.Logger)

	case "postgres":
		return postgres.NewDriver(ctx, postgres.Config{
			DSN:             opts.Memory.Target,
			NamespacePrefix: opts.Memory.NamespacePrefix,
		}, opts.Logger)

	case "local":
		return local.NewDriver(local.Config{
			NamespacePrefix: opts.Memory.NamespacePrefix,
		}), nil

	default:
		return nil, fmt.Errorf("unsupported memory provider: %s", opts.Memory.Provider)
	}
}

// NewClient builds the configured driver and wraps it in a memory.Client.
func NewClient(ctx context.Context, opts *NewMemoryDriverOpts) (*memory.Client, error) {
	driver, err := NewMemoryDriver(ctx, opts)
	if err != nil {
		return nil, err
	}

	return memory.NewClient(memory.ClientConfig{
		Driver:          driver,
		NamespacePrefix: opts.Memory.NamespacePrefix,
		Logger:          opts.Logger,
	}), nil
}
