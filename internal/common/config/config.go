// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	LiveFetch LiveFetchConfig `mapstructure:"live_fetch"`
	GenAI     GenAIConfig     `mapstructure:"genai"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// CatalogConfig selects where the taxonomy document comes from.
type CatalogConfig struct {
	Source        string `mapstructure:"source"` // "file" or "postgres"
	Path          string `mapstructure:"path"`
	RegistryPath  string `mapstructure:"registry_path"`
	SchemaVersion string `mapstructure:"schema_version"`
}

// RetrievalConfig selects the similarity retriever variant and its bounds.
type RetrievalConfig struct {
	Provider      string  `mapstructure:"provider"` // "vector", "keyword", "elasticsearch"
	TopK          int     `mapstructure:"top_k"`
	MinScore      float64 `mapstructure:"min_score"`
	IndexName     string  `mapstructure:"index_name"`
	PersistPath   string  `mapstructure:"persist_path"`
	HealthTimeout int     `mapstructure:"health_timeout"` // milliseconds
}

// EmbeddingConfig configures the embedding service client.
type EmbeddingConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	CacheSize int    `mapstructure:"cache_size"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

// LiveFetchConfig configures the live-fetch collaborator client.
type LiveFetchConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	EngineID     string  `mapstructure:"engine_id"`
	Timeout      int     `mapstructure:"timeout"` // milliseconds, soft deadline
	MaxResults   int     `mapstructure:"max_results"`
	MinRelevance float64 `mapstructure:"min_relevance"`
	CacheTTL     int     `mapstructure:"cache_ttl"` // seconds
}

// GenAIConfig configures the model-call collaborator client.
type GenAIConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxRetries  int     `mapstructure:"max_retries"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PipelineConfig holds the per-query processing bounds.
type PipelineConfig struct {
	FetchTimeout        int     `mapstructure:"fetch_timeout"` // milliseconds, soft join deadline
	PromptBudget        int     `mapstructure:"prompt_budget"` // characters
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	HistoryTurns        int     `mapstructure:"history_turns"`
	MaxQueryLength      int     `mapstructure:"max_query_length"`

	// PrecedencePolicy orders origins for merge conflicts, highest first.
	// Default: live, catalog, similarity.
	PrecedencePolicy []string `mapstructure:"precedence_policy"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
