package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pricematch/backend/internal/domain"
)

// DefaultBatchWorkers bounds concurrent retrieval calls in a batch
const DefaultBatchWorkers = 8

// CandidateSource retrieves ranked candidates for a raw item name
type CandidateSource interface {
	Retrieve(ctx context.Context, itemName string) ([]domain.ScoredCandidate, error)
}

// MatchingServiceConfig holds configuration for the matching service
type MatchingServiceConfig struct {
	BatchWorkers    int
	TextScoreSource string
	Funnel          FunnelConfig
}

// MatchingService matches invoice line items against the catalog:
// retrieve -> funnel refine -> classify
type MatchingService struct {
	source          CandidateSource
	funnel          *FunnelMatcher
	batchWorkers    int
	textScoreSource string
	logger          zerolog.Logger
}

// NewMatchingService creates a new matching service with dependencies
func NewMatchingService(source CandidateSource, config MatchingServiceConfig, logger zerolog.Logger) *MatchingService {
	workers := config.BatchWorkers
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	textSource := config.TextScoreSource
	if textSource == "" {
		textSource = TextScoreRetrieval
	}

	return &MatchingService{
		source:          source,
		funnel:          NewFunnelMatcher(config.Funnel, logger),
		batchWorkers:    workers,
		textScoreSource: textSource,
		logger:          logger.With().Str("component", "matcher").Logger(),
	}
}

// MatchItem matches a single line item. A retrieval failure is reported on
// the returned ItemMatch as an unmatched result, never retried.
func (s *MatchingService) MatchItem(ctx context.Context, item domain.InvoiceLineItem) domain.ItemMatch {
	match := domain.ItemMatch{Item: item, Result: unmatchedResult()}

	if strings.TrimSpace(item.ItemName) == "" {
		match.Error = domain.ErrInvalidRequest.Error()
		return match
	}

	candidates, err := s.search(ctx, item)
	if err != nil {
		s.logger.Warn().Err(err).Int("row", item.RowNumber).Str("item", item.ItemName).Msg("item left unmatched")
		match.Error = err.Error()
		return match
	}
	if len(candidates) == 0 {
		return match
	}

	funnel := s.funnel.MatchWithFunnel(item, candidates)
	match.Funnel = &funnel
	match.Result = Classify(enrichFromFunnel(candidates, funnel))

	s.logger.Debug().
		Int("row", item.RowNumber).
		Str("item", item.ItemName).
		Str("status", string(match.Result.Status)).
		Int("candidates", len(candidates)).
		Msg("item matched")

	return match
}

// MatchBatch matches every item concurrently and returns results in input
// order. One item's failure never blocks the rest of the batch.
func (s *MatchingService) MatchBatch(ctx context.Context, items []domain.InvoiceLineItem) []domain.ItemMatch {
	results := make([]domain.ItemMatch, len(items))

	var g errgroup.Group
	g.SetLimit(s.batchWorkers)
	for i, item := range items {
		g.Go(func() error {
			results[i] = s.MatchItem(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info().Int("items", len(items)).Interface("tiers", tierCounts(results)).Msg("batch matched")
	return results
}

// Recommend returns funnel recommendations for one item
func (s *MatchingService) Recommend(ctx context.Context, item domain.InvoiceLineItem) (*domain.FunnelResult, error) {
	if strings.TrimSpace(item.ItemName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	return s.funnel.GetFunnelRecommendations(ctx, item, func(ctx context.Context, _ string) ([]domain.ScoredCandidate, error) {
		return s.search(ctx, item)
	})
}

func (s *MatchingService) search(ctx context.Context, item domain.InvoiceLineItem) ([]domain.ScoredCandidate, error) {
	candidates, err := s.source.Retrieve(ctx, item.ItemName)
	if err != nil {
		return nil, err
	}
	applyTextScores(s.textScoreSource, item, candidates)
	return candidates, nil
}

// enrichFromFunnel carries the funnel's scores onto the retrieval candidates
// while keeping their retrieval order and match scores
func enrichFromFunnel(candidates []domain.ScoredCandidate, funnel domain.FunnelResult) []domain.ScoredCandidate {
	scored := make(map[string]domain.ScoredCandidate, len(candidates))
	for _, group := range [][]domain.ScoredCandidate{funnel.Primary, funnel.Secondary} {
		for _, c := range group {
			if _, seen := scored[c.Product.ID]; !seen {
				scored[c.Product.ID] = c
			}
		}
	}

	enriched := make([]domain.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		if f, ok := scored[c.Product.ID]; ok {
			f.MatchScore = c.MatchScore
			enriched[i] = f
			continue
		}
		enriched[i] = c
	}
	return enriched
}

func tierCounts(results []domain.ItemMatch) map[domain.MatchStatus]int {
	counts := make(map[domain.MatchStatus]int, 3)
	for _, r := range results {
		counts[r.Result.Status]++
	}
	return counts
}
