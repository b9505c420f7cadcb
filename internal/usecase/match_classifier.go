package usecase

import (
	"sort"

	"github.com/pricematch/backend/internal/domain"
)

// Tier thresholds on the top retrieval score. A false auto-match silently
// corrupts a price comparison, so the ambiguous band routes to pending.
const (
	AutoMatchThreshold = 0.8
	PendingThreshold   = 0.3
)

// Classify assigns a confidence tier from the top match score:
// above 0.8 auto_matched, 0.3 to 0.8 pending, below 0.3 (or empty) unmatched.
func Classify(ranked []domain.ScoredCandidate) domain.MatchResult {
	if len(ranked) == 0 {
		return unmatchedResult()
	}

	sorted := make([]domain.ScoredCandidate, len(ranked))
	copy(sorted, ranked)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MatchScore > sorted[j].MatchScore
	})

	top := sorted[0].MatchScore
	switch {
	case top > AutoMatchThreshold:
		best := sorted[0]
		return domain.MatchResult{
			Status:     domain.StatusAutoMatched,
			BestMatch:  &best,
			Candidates: sorted[1:],
		}
	case top >= PendingThreshold:
		return domain.MatchResult{
			Status:     domain.StatusPending,
			Candidates: sorted,
		}
	default:
		return unmatchedResult()
	}
}

func unmatchedResult() domain.MatchResult {
	return domain.MatchResult{
		Status:     domain.StatusUnmatched,
		Candidates: []domain.ScoredCandidate{},
	}
}
