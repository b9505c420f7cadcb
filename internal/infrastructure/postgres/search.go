package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pricematch/backend/internal/domain"
)

// Search function calls. The functions themselves live in the catalog
// database and are treated as opaque ranked-list providers.
const (
	trigramQuery = `SELECT * FROM search_products_trigram($1, $2)`
	bm25Query    = `SELECT * FROM search_products_bm25($1, $2)`
	hybridQuery  = `SELECT * FROM search_products_hybrid($1, $2, $3, $4, $5)`
	vectorQuery  = `SELECT * FROM search_products_vector($1::vector, $2)`
)

// querier is the subset of pgxpool.Pool the search backend needs
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SearchRepository implements domain.SearchBackend over the catalog's SQL search functions
type SearchRepository struct {
	db     querier
	logger zerolog.Logger
}

// NewSearchRepository creates a search backend on a connection pool
func NewSearchRepository(db *DB, logger zerolog.Logger) *SearchRepository {
	return newSearchRepository(db.Pool, logger)
}

func newSearchRepository(q querier, logger zerolog.Logger) *SearchRepository {
	return &SearchRepository{
		db:     q,
		logger: logger.With().Str("component", "postgres_search").Logger(),
	}
}

// SearchTrigram ranks products by pg_trgm similarity
func (r *SearchRepository) SearchTrigram(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return r.search(ctx, domain.SearchModeTrigram, trigramQuery, query, limit)
}

// SearchBM25 ranks products by keyword relevance
func (r *SearchRepository) SearchBM25(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	return r.search(ctx, domain.SearchModeBM25, bm25Query, query, limit)
}

// SearchHybrid fuses keyword and semantic rankings with the given weights
func (r *SearchRepository) SearchHybrid(ctx context.Context, keywordQuery, semanticQuery string, limit int, weights domain.HybridWeights) ([]domain.SearchHit, error) {
	return r.search(ctx, domain.SearchModeHybrid, hybridQuery, keywordQuery, semanticQuery, limit, weights.BM25, weights.Semantic)
}

// SearchVector ranks products by embedding distance
func (r *SearchRepository) SearchVector(ctx context.Context, embedding []float32, limit int) ([]domain.SearchHit, error) {
	return r.search(ctx, domain.SearchModeSemantic, vectorQuery, vectorLiteral(embedding), limit)
}

func (r *SearchRepository) search(ctx context.Context, mode domain.SearchMode, sql string, args ...any) ([]domain.SearchHit, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", mode, err)
	}

	products, err := pgx.CollectRows(rows, pgx.RowToStructByNameLax[productRow])
	if err != nil {
		return nil, fmt.Errorf("%s scan: %w", mode, err)
	}

	hits := make([]domain.SearchHit, 0, len(products))
	for _, p := range products {
		hits = append(hits, p.toHit(mode))
	}

	r.logger.Debug().Str("mode", string(mode)).Int("hits", len(hits)).Msg("catalog search")
	return hits, nil
}
