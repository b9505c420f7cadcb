package usecase

import (
	"github.com/hbollon/go-edlib"

	"github.com/pricematch/backend/internal/domain"
)

// Text score sources for the funnel's tie-breaking component
const (
	TextScoreRetrieval   = "retrieval"
	TextScoreJaroWinkler = "jarowinkler"
)

// TextSimilarity compares the keyword-normalized forms of two product names
// with Jaro-Winkler and returns a 0-100 score
func TextSimilarity(a, b string) float64 {
	na, nb := Normalize(a).ForKeyword, Normalize(b).ForKeyword
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	score, err := edlib.StringsSimilarity(na, nb, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score) * 100
}

// applyTextScores replaces retrieval-derived text scores when the configured
// source asks for string similarity instead
func applyTextScores(source string, item domain.InvoiceLineItem, candidates []domain.ScoredCandidate) {
	if source != TextScoreJaroWinkler {
		return
	}
	for i := range candidates {
		candidates[i].TextScore = TextSimilarity(item.ItemName, candidates[i].Product.Name)
	}
}
