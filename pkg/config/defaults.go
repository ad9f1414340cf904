package config

import "time"

const (
	defaultListen = ":8080"
	defaultRegion = "us-east-1"

	defaultEmbeddingProvider   = "bedrock"
	defaultEmbeddingModel      = "amazon.titan-embed-text-v2:0"
	defaultEmbeddingDimensions = 1024

	defaultVectorProvider = "tidb"
	defaultVectorTable    = "nfl_embeddings"
	defaultVectorPort     = 4000
	defaultVectorDatabase = "test"

	defaultMemoryProvider  = "agentcore"
	defaultNamespacePrefix = "nfl"

	defaultModelProvider  = "bedrock"
	defaultModel          = "us.anthropic.claude-sonnet-4-20250514-v1:0"
	defaultModelMaxTokens = 4096
	defaultModelMaxTurns  = 10

	defaultESPNSiteURL  = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"
	defaultWikipediaURL = "https://en.wikipedia.org/w/api.php"
	defaultTimeout      = 10 * time.Second
	defaultCacheTTL     = 2 * time.Minute

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "gridiron.answers"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		AWS: AWSConfig{
			Region: defaultRegion,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
			Table:    defaultVectorTable,
			Port:     defaultVectorPort,
			Database: defaultVectorDatabase,
			TLS:      true,
		},
		Memory: MemoryConfig{
			Provider:        defaultMemoryProvider,
			NamespacePrefix: defaultNamespacePrefix,
		},
		Model: ModelConfig{
			Provider:  defaultModelProvider,
			Model:     defaultModel,
			MaxTokens: defaultModelMaxTokens,
			MaxTurns:  defaultModelMaxTurns,
		},
		Adapters: AdaptersConfig{
			ESPNSiteURL:  defaultESPNSiteURL,
			WikipediaURL: defaultWikipediaURL,
			Timeout:      defaultTimeout,
			CacheTTL:     defaultCacheTTL,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
