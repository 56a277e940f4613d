// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, ignore when not present
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations so tests and tools running from
// nested directories still pick up credentials.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// Expand ${VAR} placeholders left in YAML values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.GenAI.APIKey == "" {
		if val := os.Getenv("GENAI_API_KEY"); val != "" {
			cfg.GenAI.APIKey = val
		}
	}
	if cfg.Embedding.APIKey == "" {
		if val := os.Getenv("EMBEDDING_API_KEY"); val != "" {
			cfg.Embedding.APIKey = val
		}
	}
	if cfg.LiveFetch.APIKey == "" {
		if val := os.Getenv("SEARCH_API_KEY"); val != "" {
			cfg.LiveFetch.APIKey = val
		}
	}
	if cfg.LiveFetch.EngineID == "" {
		if val := os.Getenv("SEARCH_ENGINE_ID"); val != "" {
			cfg.LiveFetch.EngineID = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "license-navigator"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.App.MetricsAddr == "" {
		cfg.App.MetricsAddr = ":9102"
	}

	if cfg.Catalog.Source == "" {
		cfg.Catalog.Source = "file"
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "configs/catalog.json"
	}
	if cfg.Catalog.RegistryPath == "" {
		cfg.Catalog.RegistryPath = "configs/jurisdictions.json"
	}

	if cfg.Retrieval.Provider == "" {
		cfg.Retrieval.Provider = "vector"
	}
	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 5
	}
	if cfg.Retrieval.MinScore <= 0 {
		cfg.Retrieval.MinScore = 0.35
	}
	if cfg.Retrieval.IndexName == "" {
		cfg.Retrieval.IndexName = "licenses"
	}
	if cfg.Retrieval.HealthTimeout <= 0 {
		cfg.Retrieval.HealthTimeout = 2000
	}

	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.CacheSize <= 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout <= 0 {
		cfg.Embedding.Timeout = 10000
	}

	if cfg.LiveFetch.Timeout <= 0 {
		cfg.LiveFetch.Timeout = 15000
	}
	if cfg.LiveFetch.MaxResults <= 0 {
		cfg.LiveFetch.MaxResults = 5
	}
	if cfg.LiveFetch.MinRelevance <= 0 {
		cfg.LiveFetch.MinRelevance = 1.0
	}
	if cfg.LiveFetch.CacheTTL <= 0 {
		cfg.LiveFetch.CacheTTL = 3600
	}

	if cfg.GenAI.Timeout <= 0 {
		cfg.GenAI.Timeout = 30000
	}
	if cfg.GenAI.MaxRetries <= 0 {
		cfg.GenAI.MaxRetries = 2
	}
	if cfg.GenAI.MaxTokens <= 0 {
		cfg.GenAI.MaxTokens = 2048
	}
	if cfg.GenAI.Temperature <= 0 {
		cfg.GenAI.Temperature = 0.2
	}

	if cfg.Pipeline.FetchTimeout <= 0 {
		cfg.Pipeline.FetchTimeout = 15000
	}
	if cfg.Pipeline.PromptBudget <= 0 {
		cfg.Pipeline.PromptBudget = 6000
	}
	if cfg.Pipeline.ConfidenceThreshold <= 0 {
		cfg.Pipeline.ConfidenceThreshold = 0.15
	}
	if cfg.Pipeline.HistoryTurns <= 0 {
		cfg.Pipeline.HistoryTurns = 3
	}
	if cfg.Pipeline.MaxQueryLength <= 0 {
		cfg.Pipeline.MaxQueryLength = 2000
	}
	if len(cfg.Pipeline.PrecedencePolicy) == 0 {
		cfg.Pipeline.PrecedencePolicy = []string{"live", "catalog", "similarity"}
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Catalog.Source {
	case "file":
		if cfg.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required when catalog.source is file")
		}
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required when catalog.source is postgres")
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", cfg.Catalog.Source)
	}

	switch cfg.Retrieval.Provider {
	case "vector", "keyword":
	case "elasticsearch":
		if cfg.Database.Elasticsearch.GetURL() == "" {
			return fmt.Errorf("database.elasticsearch is required when retrieval.provider is elasticsearch")
		}
	default:
		return fmt.Errorf("unknown retrieval.provider %q", cfg.Retrieval.Provider)
	}

	if cfg.Pipeline.PromptBudget < 500 {
		return fmt.Errorf("pipeline.prompt_budget too small: %d", cfg.Pipeline.PromptBudget)
	}

	return nil
}
