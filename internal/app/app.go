// Package app wires configuration into a ready-to-use matching service.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pricematch/backend/config"
	"github.com/pricematch/backend/internal/domain"
	"github.com/pricematch/backend/internal/infrastructure/cache"
	"github.com/pricematch/backend/internal/infrastructure/embedding"
	"github.com/pricematch/backend/internal/infrastructure/postgres"
	"github.com/pricematch/backend/internal/usecase"
)

// Cache is a cache repository that owns resources
type Cache interface {
	domain.CacheRepository
	io.Closer
}

// App holds the wired dependencies
type App struct {
	Matcher   *usecase.MatchingService
	Retriever *usecase.CandidateRetriever

	db    *postgres.DB
	cache Cache
}

// New connects to the catalog database and cache and builds the matching
// service for the configured search mode
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	c, err := NewCache(ctx, cfg.Cache)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("type", cfg.Cache.Type).Dur("ttl", cfg.Cache.TTL).Msg("cache ready")

	db, err := postgres.Connect(ctx, cfg.Database.URL, postgres.PoolConfig{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}, logger)
	if err != nil {
		c.Close()
		return nil, err
	}

	// Stays a nil interface unless configured; the retriever rejects semantic mode without one
	var embedder domain.Embedder
	if cfg.Embedding.BaseURL != "" {
		client, err := embedding.NewClient(embedding.Config{
			BaseURL:        cfg.Embedding.BaseURL,
			APIKey:         cfg.Embedding.APIKey,
			Model:          cfg.Embedding.Model,
			Dimension:      cfg.Embedding.Dimension,
			Timeout:        cfg.Embedding.Timeout,
			RequestsPerSec: cfg.Embedding.RequestsPerSec,
			Burst:          cfg.Embedding.Burst,
			CacheTTL:       cfg.Cache.TTL,
		}, c, logger)
		if err != nil {
			db.Close()
			c.Close()
			return nil, err
		}
		embedder = client
		logger.Info().Str("url", cfg.Embedding.BaseURL).Int("dimension", client.Dimension()).Msg("embedding service configured")
	}

	retriever, err := usecase.NewCandidateRetriever(
		postgres.NewSearchRepository(db, logger),
		embedder,
		usecase.RetrieverConfig{
			Mode:  domain.SearchMode(cfg.Search.Mode),
			Limit: cfg.Search.Limit,
			HybridWeights: domain.HybridWeights{
				BM25:     cfg.Search.HybridBM25Weight,
				Semantic: cfg.Search.HybridSemanticWeight,
			},
		},
		logger,
	)
	if err != nil {
		db.Close()
		c.Close()
		return nil, err
	}

	matcher := usecase.NewMatchingService(retriever, usecase.MatchingServiceConfig{
		BatchWorkers:    cfg.Matching.BatchWorkers,
		TextScoreSource: cfg.Matching.TextScoreSource,
		Funnel: usecase.FunnelConfig{
			AttributeThreshold: cfg.Funnel.AttributeThreshold,
			Tolerances:         cfg.Funnel.Tolerances,
		},
	}, logger)

	logger.Info().
		Str("search_mode", cfg.Search.Mode).
		Int("batch_workers", cfg.Matching.BatchWorkers).
		Str("text_score", cfg.Matching.TextScoreSource).
		Msg("matching service ready")

	return &App{Matcher: matcher, Retriever: retriever, db: db, cache: c}, nil
}

// NewCache builds the configured cache backend
func NewCache(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	switch cfg.Type {
	case "memory":
		return cache.NewMemoryCache(cfg.CleanupInterval), nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, err
		}
		return rc, nil
	default:
		return nil, fmt.Errorf("%w: unknown cache type %q", domain.ErrInvalidConfig, cfg.Type)
	}
}

// Close releases the database pool and cache
func (a *App) Close() error {
	a.db.Close()
	return a.cache.Close()
}
