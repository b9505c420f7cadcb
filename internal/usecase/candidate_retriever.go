package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pricematch/backend/internal/domain"
)

// Retrieval defaults
const (
	DefaultSearchLimit          = 20
	DefaultHybridBM25Weight     = 0.5
	DefaultHybridSemanticWeight = 0.5
)

// RetrieverConfig holds configuration for the candidate retriever
type RetrieverConfig struct {
	Mode          domain.SearchMode
	Limit         int
	HybridWeights domain.HybridWeights
}

// CandidateRetriever prepares the query for the configured search mode and
// calls the matching backend. It does no scoring of its own.
type CandidateRetriever struct {
	mode     domain.SearchMode
	limit    int
	weights  domain.HybridWeights
	backend  domain.SearchBackend
	embedder domain.Embedder
	logger   zerolog.Logger
}

// NewCandidateRetriever creates a retriever bound to one search mode.
// Semantic mode requires an embedder.
func NewCandidateRetriever(
	backend domain.SearchBackend,
	embedder domain.Embedder,
	config RetrieverConfig,
	logger zerolog.Logger,
) (*CandidateRetriever, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: search backend is required", domain.ErrInvalidConfig)
	}

	mode, err := domain.ParseSearchMode(string(config.Mode))
	if err != nil {
		return nil, err
	}
	if mode == domain.SearchModeSemantic && embedder == nil {
		return nil, fmt.Errorf("%w: semantic search requires an embedder", domain.ErrInvalidConfig)
	}

	limit := config.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	weights := config.HybridWeights
	if weights.BM25 <= 0 && weights.Semantic <= 0 {
		weights = domain.HybridWeights{BM25: DefaultHybridBM25Weight, Semantic: DefaultHybridSemanticWeight}
	}

	return &CandidateRetriever{
		mode:     mode,
		limit:    limit,
		weights:  weights,
		backend:  backend,
		embedder: embedder,
		logger:   logger.With().Str("component", "retriever").Str("mode", string(mode)).Logger(),
	}, nil
}

// Mode returns the search mode the retriever was built with
func (r *CandidateRetriever) Mode() domain.SearchMode {
	return r.mode
}

// Retrieve returns catalog candidates for a raw item name, ordered by
// descending match score. A name that normalizes to nothing yields no candidates.
func (r *CandidateRetriever) Retrieve(ctx context.Context, itemName string) ([]domain.ScoredCandidate, error) {
	query := Normalize(itemName)

	var (
		hits []domain.SearchHit
		err  error
	)

	switch r.mode {
	case domain.SearchModeTrigram:
		if query.ForSemantic == "" {
			return []domain.ScoredCandidate{}, nil
		}
		hits, err = r.backend.SearchTrigram(ctx, query.ForSemantic, r.limit)
	case domain.SearchModeBM25:
		if query.ForKeyword == "" {
			return []domain.ScoredCandidate{}, nil
		}
		hits, err = r.backend.SearchBM25(ctx, query.ForKeyword, r.limit)
	case domain.SearchModeHybrid:
		if query.ForKeyword == "" && query.ForSemantic == "" {
			return []domain.ScoredCandidate{}, nil
		}
		hits, err = r.backend.SearchHybrid(ctx, query.ForKeyword, query.ForSemantic, r.limit, r.weights)
	case domain.SearchModeSemantic:
		if query.ForSemantic == "" {
			return []domain.ScoredCandidate{}, nil
		}
		hits, err = r.searchSemantic(ctx, query.ForSemantic)
	}

	if err != nil {
		r.logger.Warn().Err(err).Str("item", itemName).Msg("retrieval failed")
		if errors.Is(err, domain.ErrEmbeddingFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s search: %v", domain.ErrSearchFailure, r.mode, err)
	}

	candidates := r.toCandidates(hits)
	r.logger.Debug().
		Str("item", itemName).
		Str("keyword", query.ForKeyword).
		Str("semantic", query.ForSemantic).
		Int("hits", len(candidates)).
		Msg("retrieved candidates")

	return candidates, nil
}

// FindMatches retrieves candidates for an item name and classifies them
func (r *CandidateRetriever) FindMatches(ctx context.Context, itemName string) (domain.MatchResult, error) {
	candidates, err := r.Retrieve(ctx, itemName)
	if err != nil {
		return unmatchedResult(), err
	}
	return Classify(candidates), nil
}

func (r *CandidateRetriever) searchSemantic(ctx context.Context, text string) ([]domain.SearchHit, error) {
	embedding, err := r.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingFailure, err)
	}
	return r.backend.SearchVector(ctx, embedding, r.limit)
}

// toCandidates normalizes backend hits into one canonical shape at the boundary
func (r *CandidateRetriever) toCandidates(hits []domain.SearchHit) []domain.ScoredCandidate {
	candidates := make([]domain.ScoredCandidate, 0, len(hits))
	for _, hit := range hits {
		if hit.Mode == "" {
			hit.Mode = r.mode
		}
		score := clampUnit(hit.Score())
		candidates = append(candidates, domain.ScoredCandidate{
			Product:    hit.Product,
			MatchScore: score,
			TextScore:  score * 100,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
	return candidates
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
