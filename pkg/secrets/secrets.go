// Package secrets resolves database credentials from an AWS Secrets Manager
// bundle at startup.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/papercomputeco/gridiron/pkg/config"
)

// ErrSecretUnavailable is returned when the bundle cannot be fetched or
// decoded.
var ErrSecretUnavailable = errors.New("secret unavailable")

// API is the subset of the Secrets Manager client used here.
type API interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Bundle is the decoded credentials secret. Port is kept as text since
// bundles store it either way.
type Bundle struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Resolver fetches credential bundles.
type Resolver struct {
	client API
	logger *slog.Logger
}

// NewResolver creates a Resolver over client.
func NewResolver(client API, logger *slog.Logger) *Resolver {
	return &Resolver{
		client: client,
		logger: logger,
	}
}

// NewResolverFromConfig creates a Resolver using AWS configuration.
func NewResolverFromConfig(cfg aws.Config, logger *slog.Logger) *Resolver {
	return NewResolver(secretsmanager.NewFromConfig(cfg), logger)
}

// Resolve fetches and decodes the JSON bundle stored at arn.
func (r *Resolver) Resolve(ctx context.Context, arn string) (*Bundle, error) {
	out, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrSecretUnavailable, arn, err)
	}
	if out.SecretString == nil {
		return nil, fmt.Errorf("%w: %s has no string value", ErrSecretUnavailable, arn)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(*out.SecretString), &raw); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrSecretUnavailable, arn, err)
	}

	b := &Bundle{
		Host:     field(raw, "TIDB_HOST"),
		Port:     field(raw, "TIDB_PORT"),
		Username: field(raw, "TIDB_USERNAME"),
		Password: field(raw, "TIDB_PASSWORD"),
		Database: field(raw, "TIDB_DATABASE"),
	}

	r.logger.Info("resolved database credentials",
		"secret_arn", arn,
		"host", b.Host,
		"database", b.Database,
	)
	return b, nil
}

// Apply overwrites the store's connection settings with every non-empty
// bundle field.
func (b *Bundle) Apply(c *config.VectorStoreConfig) error {
	if b.Host != "" {
		c.Host = b.Host
	}
	if b.Port != "" {
		port, err := strconv.ParseUint(b.Port, 10, 16)
		if err != nil {
			return fmt.Errorf("%w: invalid TIDB_PORT %q", ErrSecretUnavailable, b.Port)
		}
		c.Port = uint(port)
	}
	if b.Username != "" {
		c.Username = b.Username
	}
	if b.Password != "" {
		c.Password = b.Password
	}
	if b.Database != "" {
		c.Database = b.Database
	}
	return nil
}

func field(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}
