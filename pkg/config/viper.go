package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/gridiron/pkg/dotdir"
)

// legacyEnv binds the environment variable names used by the managed
// runtime to their config keys. These sit alongside the GRIDIRON_ prefixed
// names so existing deployments keep working.
var legacyEnv = map[string][]string{
	"server.listen":         {"PORT"},
	"aws.region":            {"AWS_REGION", "AWS_DEFAULT_REGION"},
	"secrets.arn":           {"SECRETS_ARN"},
	"memory.id":             {"MEMORY_ID"},
	"vector_store.host":     {"TIDB_HOST"},
	"vector_store.port":     {"TIDB_PORT"},
	"vector_store.username": {"TIDB_USERNAME", "TIDB_USER"},
	"vector_store.password": {"TIDB_PASSWORD"},
	"vector_store.database": {"TIDB_DATABASE"},
	"model.api_key":         {"ANTHROPIC_API_KEY", "OPENAI_API_KEY"},
}

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the GRIDIRON_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (GRIDIRON_SERVER_LISTEN, MEMORY_ID, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GRIDIRON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range legacyEnv {
		input := append([]string{key, "GRIDIRON_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		_ = v.BindEnv(input...)
	}

	return v, nil
}

// FromViper materializes a Config from the resolved viper state.
func FromViper(v *viper.Viper) *Config {
	listen := v.GetString("server.listen")
	if listen != "" && !strings.Contains(listen, ":") {
		listen = ":" + listen
	}

	return &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: listen,
			Debug:  v.GetBool("server.debug"),
		},
		AWS: AWSConfig{
			Region: v.GetString("aws.region"),
		},
		Secrets: SecretsConfig{
			ARN: v.GetString("secrets.arn"),
		},
		Embedding: EmbeddingConfig{
			Provider:   v.GetString("embedding.provider"),
			Target:     v.GetString("embedding.target"),
			Model:      v.GetString("embedding.model"),
			Dimensions: v.GetUint("embedding.dimensions"),
		},
		VectorStore: VectorStoreConfig{
			Provider: v.GetString("vector_store.provider"),
			Target:   v.GetString("vector_store.target"),
			Table:    v.GetString("vector_store.table"),
			Host:     v.GetString("vector_store.host"),
			Port:     v.GetUint("vector_store.port"),
			Username: v.GetString("vector_store.username"),
			Password: v.GetString("vector_store.password"),
			Database: v.GetString("vector_store.database"),
			TLS:      v.GetBool("vector_store.tls"),
		},
		Memory: MemoryConfig{
			Provider:        v.GetString("memory.provider"),
			ID:              v.GetString("memory.id"),
			Target:          v.GetString("memory.target"),
			NamespacePrefix: v.GetString("memory.namespace_prefix"),
		},
		Model: ModelConfig{
			Provider:  v.GetString("model.provider"),
			Model:     v.GetString("model.model"),
			BaseURL:   v.GetString("model.base_url"),
			APIKey:    v.GetString("model.api_key"),
			MaxTokens: v.GetUint("model.max_tokens"),
			MaxTurns:  v.GetUint("model.max_turns"),
		},
		Adapters: AdaptersConfig{
			ESPNSiteURL:  v.GetString("adapters.espn_site_url"),
			WikipediaURL: v.GetString("adapters.wikipedia_url"),
			Timeout:      v.GetDuration("adapters.timeout"),
			CacheTTL:     v.GetDuration("adapters.cache_ttl"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetStringSlice("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.debug", d.Server.Debug)

	v.SetDefault("aws.region", d.AWS.Region)
	v.SetDefault("secrets.arn", d.Secrets.ARN)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.table", d.VectorStore.Table)
	v.SetDefault("vector_store.host", d.VectorStore.Host)
	v.SetDefault("vector_store.port", d.VectorStore.Port)
	v.SetDefault("vector_store.username", d.VectorStore.Username)
	v.SetDefault("vector_store.password", d.VectorStore.Password)
	v.SetDefault("vector_store.database", d.VectorStore.Database)
	v.SetDefault("vector_store.tls", d.VectorStore.TLS)

	v.SetDefault("memory.provider", d.Memory.Provider)
	v.SetDefault("memory.id", d.Memory.ID)
	v.SetDefault("memory.target", d.Memory.Target)
	v.SetDefault("memory.namespace_prefix", d.Memory.NamespacePrefix)

	v.SetDefault("model.provider", d.Model.Provider)
	v.SetDefault("model.model", d.Model.Model)
	v.SetDefault("model.base_url", d.Model.BaseURL)
	v.SetDefault("model.api_key", d.Model.APIKey)
	v.SetDefault("model.max_tokens", d.Model.MaxTokens)
	v.SetDefault("model.max_turns", d.Model.MaxTurns)

	v.SetDefault("adapters.espn_site_url", d.Adapters.ESPNSiteURL)
	v.SetDefault("adapters.wikipedia_url", d.Adapters.WikipediaURL)
	v.SetDefault("adapters.timeout", d.Adapters.Timeout)
	v.SetDefault("adapters.cache_ttl", d.Adapters.CacheTTL)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
