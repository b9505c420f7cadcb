package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/pricematch/backend/internal/domain"
)

// Funnel weights: price plausibility and attribute compatibility are equally
// decisive, text similarity only breaks ties.
const (
	funnelPriceWeight     = 0.4
	funnelAttributeWeight = 0.4
	funnelTextWeight      = 0.2

	priceScoreInRange  = 100.0
	priceScoreOutRange = 50.0

	// MaxPrimaryCandidates caps the primary recommendation list
	MaxPrimaryCandidates = 3
)

// SearchFunc retrieves candidates for a query
type SearchFunc func(ctx context.Context, query string) ([]domain.ScoredCandidate, error)

// FunnelConfig holds configuration for the funnel matcher
type FunnelConfig struct {
	AttributeThreshold float64
	Tolerances         map[string]float64
}

// FunnelMatcher re-ranks retrieved candidates by price plausibility and
// attribute compatibility. All methods except GetFunnelRecommendations are pure.
type FunnelMatcher struct {
	attributeThreshold float64
	tolerances         ToleranceTable
	logger             zerolog.Logger
}

// NewFunnelMatcher creates a funnel matcher with the given configuration
func NewFunnelMatcher(config FunnelConfig, logger zerolog.Logger) *FunnelMatcher {
	threshold := config.AttributeThreshold
	if threshold <= 0 {
		threshold = DefaultAttributeThreshold
	}

	return &FunnelMatcher{
		attributeThreshold: threshold,
		tolerances:         NewToleranceTable(config.Tolerances),
		logger:             logger.With().Str("component", "funnel").Logger(),
	}
}

// MatchWithFunnel runs price clustering, then the attribute filter on each
// price partition, then weighted scoring. Primary holds at most three
// in-range, attribute-compatible candidates; everything else is secondary.
func (f *FunnelMatcher) MatchWithFunnel(item domain.InvoiceLineItem, candidates []domain.ScoredCandidate) domain.FunnelResult {
	cluster := ClusterByPrice(item, candidates, f.tolerances)

	inPrimary, inSecondary := FilterByAttributes(item, cluster.InRange, f.attributeThreshold)
	outPrimary, outSecondary := FilterByAttributes(item, cluster.OutRange, f.attributeThreshold)

	var eligible, rest []domain.ScoredCandidate
	for _, c := range inPrimary {
		eligible = append(eligible, f.score(c, cluster.PriceRange))
	}
	for _, group := range [][]domain.ScoredCandidate{inSecondary, outPrimary, outSecondary} {
		for _, c := range group {
			rest = append(rest, f.score(c, cluster.PriceRange))
		}
	}

	sortByFinalScore(eligible)
	if len(eligible) > MaxPrimaryCandidates {
		rest = append(rest, eligible[MaxPrimaryCandidates:]...)
		eligible = eligible[:MaxPrimaryCandidates]
	}
	sortByFinalScore(rest)

	result := domain.FunnelResult{
		Primary:    nonNil(eligible),
		Secondary:  nonNil(rest),
		PriceRange: cluster.PriceRange,
		Scores:     make(map[string]float64, len(candidates)),
		Reasons:    make(map[string][]string, len(candidates)),
	}
	for _, group := range [][]domain.ScoredCandidate{result.Primary, result.Secondary} {
		for _, c := range group {
			result.Scores[c.Product.ID] = c.FinalScore
			result.Reasons[c.Product.ID] = c.MismatchReasons
		}
	}

	f.logger.Debug().
		Str("item", item.ItemName).
		Str("category", cluster.PriceRange.Category).
		Float64("base", cluster.PriceRange.Base).
		Int("in_range", len(cluster.InRange)).
		Int("primary", len(result.Primary)).
		Int("secondary", len(result.Secondary)).
		Msg("funnel ranking complete")

	return result
}

// GetFunnelRecommendations retrieves candidates with search and ranks them
// through the funnel. Zero candidates yields ErrNoCandidates; a search error is
// returned unchanged and never retried.
func (f *FunnelMatcher) GetFunnelRecommendations(ctx context.Context, item domain.InvoiceLineItem, search SearchFunc) (*domain.FunnelResult, error) {
	candidates, err := search(ctx, item.ItemName)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNoCandidates
	}

	result := f.MatchWithFunnel(item, candidates)
	return &result, nil
}

// score applies the weighted final score and records the price reason
func (f *FunnelMatcher) score(c domain.ScoredCandidate, priceRange domain.PriceRange) domain.ScoredCandidate {
	priceScore := priceScoreOutRange
	if c.PriceInRange {
		priceScore = priceScoreInRange
	} else if reason := priceReason(c, priceRange); reason != "" {
		c.MismatchReasons = append(append([]string(nil), c.MismatchReasons...), reason)
	}

	c.FinalScore = funnelPriceWeight*priceScore +
		funnelAttributeWeight*c.AttributeScore +
		funnelTextWeight*c.TextScore
	return c
}

func priceReason(c domain.ScoredCandidate, priceRange domain.PriceRange) string {
	switch {
	case priceRange.IsZero():
		return "가격 비교 불가: 품목 단가를 산출할 수 없음"
	case c.PricePerUnit == nil:
		return "가격 비교 불가: 후보 규격을 해석할 수 없음"
	case c.PricePerUnit.Unit != priceRange.Unit:
		return fmt.Sprintf("단위 불일치: 품목 %s, 후보 %s", priceRange.Unit, c.PricePerUnit.Unit)
	default:
		return fmt.Sprintf("가격 범위 밖: %.2f원/%s (허용 %.2f~%.2f원/%s)",
			c.PricePerUnit.Value, c.PricePerUnit.Unit, priceRange.Min, priceRange.Max, priceRange.Unit)
	}
}

func sortByFinalScore(candidates []domain.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].FinalScore != candidates[j].FinalScore {
			return candidates[i].FinalScore > candidates[j].FinalScore
		}
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
}

func nonNil(candidates []domain.ScoredCandidate) []domain.ScoredCandidate {
	if candidates == nil {
		return []domain.ScoredCandidate{}
	}
	return candidates
}
