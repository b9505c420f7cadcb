package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pricematch/backend/internal/domain"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Search    SearchConfig
	Embedding EmbeddingConfig
	Cache     CacheConfig
	Matching  MatchingConfig
	Funnel    FunnelConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the catalog database connection
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// SearchConfig selects the retrieval strategy
type SearchConfig struct {
	Mode                 string  `mapstructure:"mode"` // trigram, bm25, hybrid or semantic
	Limit                int     `mapstructure:"limit"`
	HybridBM25Weight     float64 `mapstructure:"hybrid_bm25_weight"`
	HybridSemanticWeight float64 `mapstructure:"hybrid_semantic_weight"`
}

// EmbeddingConfig holds the embedding service configuration
type EmbeddingConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Dimension      int           `mapstructure:"dimension"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
	Burst          int           `mapstructure:"burst"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type            string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL        string        `mapstructure:"redis_url"`
	Prefix          string        `mapstructure:"prefix"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MatchingConfig holds batch matching configuration
type MatchingConfig struct {
	BatchWorkers    int    `mapstructure:"batch_workers"`
	MaxBatchSize    int    `mapstructure:"max_batch_size"`
	TextScoreSource string `mapstructure:"text_score_source"` // retrieval or jarowinkler
}

// FunnelConfig holds funnel ranking configuration
type FunnelConfig struct {
	AttributeThreshold float64            `mapstructure:"attribute_threshold"`
	Tolerances         map[string]float64 `mapstructure:"tolerances"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pricematch/")

	// PRICEMATCH_SEARCH_MODE -> search.mode
	v.SetEnvPrefix("PRICEMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults cover everything
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory when one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// setDefaults sets default configuration values. Every key gets a default
// so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 2)

	v.SetDefault("search.mode", string(domain.SearchModeHybrid))
	v.SetDefault("search.limit", 20)
	v.SetDefault("search.hybrid_bm25_weight", 0.5)
	v.SetDefault("search.hybrid_semantic_weight", 0.5)

	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.api_key", "")
	v.SetDefault("embedding.model", "sentence-transformers/paraphrase-multilingual-MiniLM-L12-v2")
	v.SetDefault("embedding.dimension", 384)
	v.SetDefault("embedding.requests_per_sec", 10)
	v.SetDefault("embedding.burst", 10)
	v.SetDefault("embedding.timeout", "30s")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "pricematch:")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("matching.batch_workers", 8)
	v.SetDefault("matching.max_batch_size", 500)
	v.SetDefault("matching.text_score_source", "retrieval")

	v.SetDefault("funnel.attribute_threshold", 90)
	v.SetDefault("funnel.tolerances", map[string]float64{})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.URL == "" {
		return fmt.Errorf("database URL is required (set PRICEMATCH_DATABASE_URL)")
	}

	mode, err := domain.ParseSearchMode(config.Search.Mode)
	if err != nil {
		return err
	}
	if config.Search.Limit <= 0 {
		return fmt.Errorf("search limit must be positive, got: %d", config.Search.Limit)
	}
	if config.Search.HybridBM25Weight < 0 || config.Search.HybridSemanticWeight < 0 {
		return fmt.Errorf("hybrid weights must not be negative")
	}

	if mode == domain.SearchModeSemantic && config.Embedding.BaseURL == "" {
		return fmt.Errorf("embedding base URL is required for semantic search (set PRICEMATCH_EMBEDDING_BASE_URL)")
	}
	if config.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got: %d", config.Embedding.Dimension)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Matching.BatchWorkers <= 0 {
		return fmt.Errorf("batch workers must be positive, got: %d", config.Matching.BatchWorkers)
	}
	if config.Matching.MaxBatchSize <= 0 {
		return fmt.Errorf("max batch size must be positive, got: %d", config.Matching.MaxBatchSize)
	}
	switch config.Matching.TextScoreSource {
	case "retrieval", "jarowinkler":
	default:
		return fmt.Errorf("text score source must be 'retrieval' or 'jarowinkler', got: %s", config.Matching.TextScoreSource)
	}

	if config.Funnel.AttributeThreshold <= 0 || config.Funnel.AttributeThreshold > 100 {
		return fmt.Errorf("attribute threshold must be in (0, 100], got: %v", config.Funnel.AttributeThreshold)
	}
	for category, tol := range config.Funnel.Tolerances {
		if tol <= 0 || tol >= 100 {
			return fmt.Errorf("tolerance for %s must be in (0, 100), got: %v", category, tol)
		}
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}
