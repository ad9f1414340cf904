package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent gridiron configuration stored as
// config.toml in the .gridiron/ directory.
type Config struct {
	Version     int               `toml:"version"`
	Server      ServerConfig      `toml:"server"`
	AWS         AWSConfig         `toml:"aws"`
	Secrets     SecretsConfig     `toml:"secrets"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Memory      MemoryConfig      `toml:"memory"`
	Model       ModelConfig       `toml:"model"`
	Adapters    AdaptersConfig    `toml:"adapters"`
	Events      EventsConfig      `toml:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
	Debug  bool   `toml:"debug,omitempty"`
}

// AWSConfig holds settings shared by every AWS-backed component.
type AWSConfig struct {
	Region string `toml:"region,omitempty"`
}

// SecretsConfig points at a Secrets Manager bundle holding database
// credentials. When ARN is empty, credentials come from the vector_store
// section directly.
type SecretsConfig struct {
	ARN string `toml:"arn,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// VectorStoreConfig holds knowledge-base store settings. Target is a
// provider-specific address: a DSN for postgres, a file path for sqlite,
// host:port for qdrant. The tidb provider uses the discrete credential fields.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Table    string `toml:"table,omitempty"`
	Host     string `toml:"host,omitempty"`
	Port     uint   `toml:"port,omitempty"`
	Username string `toml:"username,omitempty"`
	Password string `toml:"password,omitempty"`
	Database string `toml:"database,omitempty"`
	TLS      bool   `toml:"tls"`
}

// MemoryConfig holds conversational memory settings. Memory is enabled when
// the selected provider has what it needs to connect: an ID for agentcore,
// a Target DSN for postgres. The local provider is always available.
type MemoryConfig struct {
	Provider        string `toml:"provider,omitempty"`
	ID              string `toml:"id,omitempty"`
	Target          string `toml:"target,omitempty"`
	NamespacePrefix string `toml:"namespace_prefix,omitempty"`
}

// Enabled reports whether the configured memory provider can be used.
func (m MemoryConfig) Enabled() bool {
	switch m.Provider {
	case "agentcore":
		return m.ID != ""
	case "postgres":
		return m.Target != ""
	case "local":
		return true
	default:
		return false
	}
}

// ModelConfig holds reasoning model settings.
type ModelConfig struct {
	Provider  string `toml:"provider,omitempty"`
	Model     string `toml:"model,omitempty"`
	BaseURL   string `toml:"base_url,omitempty"`
	APIKey    string `toml:"api_key,omitempty"`
	MaxTokens uint   `toml:"max_tokens,omitempty"`
	MaxTurns  uint   `toml:"max_turns,omitempty"`
}

// AdaptersConfig holds settings for the external fact adapters.
type AdaptersConfig struct {
	ESPNSiteURL  string        `toml:"espn_site_url,omitempty"`
	WikipediaURL string        `toml:"wikipedia_url,omitempty"`
	Timeout      time.Duration `toml:"timeout,omitempty"`
	CacheTTL     time.Duration `toml:"cache_ttl,omitempty"`
}

// EventsConfig holds answer event publishing settings.
type EventsConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func durationKey(name string, field func(c *Config) *time.Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return field(c).String()
		},
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = d
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": stringKey(func(c *Config) *string { return &c.Server.Listen }),
	"server.debug":  boolKey("server.debug", func(c *Config) *bool { return &c.Server.Debug }),

	"aws.region":  stringKey(func(c *Config) *string { return &c.AWS.Region }),
	"secrets.arn": stringKey(func(c *Config) *string { return &c.Secrets.ARN }),

	"embedding.provider":   stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":     stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":      stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.dimensions": uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),

	"vector_store.provider": stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":   stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.table":    stringKey(func(c *Config) *string { return &c.VectorStore.Table }),
	"vector_store.host":     stringKey(func(c *Config) *string { return &c.VectorStore.Host }),
	"vector_store.port":     uintKey("vector_store.port", func(c *Config) *uint { return &c.VectorStore.Port }),
	"vector_store.username": stringKey(func(c *Config) *string { return &c.VectorStore.Username }),
	"vector_store.password": stringKey(func(c *Config) *string { return &c.VectorStore.Password }),
	"vector_store.database": stringKey(func(c *Config) *string { return &c.VectorStore.Database }),
	"vector_store.tls":      boolKey("vector_store.tls", func(c *Config) *bool { return &c.VectorStore.TLS }),

	"memory.provider":         stringKey(func(c *Config) *string { return &c.Memory.Provider }),
	"memory.id":               stringKey(func(c *Config) *string { return &c.Memory.ID }),
	"memory.target":           stringKey(func(c *Config) *string { return &c.Memory.Target }),
	"memory.namespace_prefix": stringKey(func(c *Config) *string { return &c.Memory.NamespacePrefix }),

	"model.provider":   stringKey(func(c *Config) *string { return &c.Model.Provider }),
	"model.model":      stringKey(func(c *Config) *string { return &c.Model.Model }),
	"model.base_url":   stringKey(func(c *Config) *string { return &c.Model.BaseURL }),
	"model.api_key":    stringKey(func(c *Config) *string { return &c.Model.APIKey }),
	"model.max_tokens": uintKey("model.max_tokens", func(c *Config) *uint { return &c.Model.MaxTokens }),
	"model.max_turns":  uintKey("model.max_turns", func(c *Config) *uint { return &c.Model.MaxTurns }),

	"adapters.espn_site_url": stringKey(func(c *Config) *string { return &c.Adapters.ESPNSiteURL }),
	"adapters.wikipedia_url": stringKey(func(c *Config) *string { return &c.Adapters.WikipediaURL }),
	"adapters.timeout":       durationKey("adapters.timeout", func(c *Config) *time.Duration { return &c.Adapters.Timeout }),
	"adapters.cache_ttl":     durationKey("adapters.cache_ttl", func(c *Config) *time.Duration { return &c.Adapters.CacheTTL }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),
	"events.brokers": {
		get: func(c *Config) string { return strings.Join(c.Events.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.Events.Brokers = nil
			for b := range strings.SplitSeq(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.Events.Brokers = append(c.Events.Brokers, b)
				}
			}
			return nil
		},
	},
}

// keyOrder is the stable listing order for config keys, matching the TOML layout.
var keyOrder = []string{
	"server.listen",
	"server.debug",
	"aws.region",
	"secrets.arn",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.dimensions",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.table",
	"vector_store.host",
	"vector_store.port",
	"vector_store.username",
	"vector_store.password",
	"vector_store.database",
	"vector_store.tls",
	"memory.provider",
	"memory.id",
	"memory.target",
	"memory.namespace_prefix",
	"model.provider",
	"model.model",
	"model.base_url",
	"model.api_key",
	"model.max_tokens",
	"model.max_turns",
	"adapters.espn_site_url",
	"adapters.wikipedia_url",
	"adapters.timeout",
	"adapters.cache_ttl",
	"events.provider",
	"events.brokers",
	"events.topic",
}
