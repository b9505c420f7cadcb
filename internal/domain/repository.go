package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SearchBackend is the opaque catalog search provider, one method per strategy.
// Every method returns hits ordered by descending score.
type SearchBackend interface {
	SearchTrigram(ctx context.Context, query string, limit int) ([]SearchHit, error)
	SearchBM25(ctx context.Context, query string, limit int) ([]SearchHit, error)
	SearchHybrid(ctx context.Context, keywordQuery, semanticQuery string, limit int, weights HybridWeights) ([]SearchHit, error)
	SearchVector(ctx context.Context, embedding []float32, limit int) ([]SearchHit, error)
}

// Embedder turns text into a fixed-size embedding vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
