package domain

import "fmt"

// SearchMode selects one of the four retrieval strategies
type SearchMode string

const (
	SearchModeTrigram  SearchMode = "trigram"
	SearchModeBM25     SearchMode = "bm25"
	SearchModeHybrid   SearchMode = "hybrid"
	SearchModeSemantic SearchMode = "semantic"
)

// ParseSearchMode validates a configured mode string
func ParseSearchMode(s string) (SearchMode, error) {
	switch m := SearchMode(s); m {
	case SearchModeTrigram, SearchModeBM25, SearchModeHybrid, SearchModeSemantic:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown search mode %q", ErrInvalidConfig, s)
}

// NormalizedQuery holds the two normalized forms of an item name.
// ForKeyword also has trailing particles stripped for lexical search.
type NormalizedQuery struct {
	ForKeyword  string `json:"forKeyword"`
	ForSemantic string `json:"forSemantic"`
}

// HybridWeights are the rank-fusion weights passed to the hybrid backend
type HybridWeights struct {
	BM25     float64 `json:"bm25"`
	Semantic float64 `json:"semantic"`
}

// SearchHit is one row returned by a search backend. Backends disagree on the
// score column: trigram search reports Similarity, the other modes report
// MatchScore. Mode records which one is populated.
type SearchHit struct {
	Mode       SearchMode
	Product    CatalogProduct
	Similarity float64
	MatchScore float64
}

// Score returns the score column that is meaningful for the hit's mode
func (h SearchHit) Score() float64 {
	if h.Mode == SearchModeTrigram {
		return h.Similarity
	}
	return h.MatchScore
}

// ScoredCandidate is a catalog product with every score the pipeline computed for it.
// Created per call and never persisted.
type ScoredCandidate struct {
	Product         CatalogProduct `json:"product"`
	MatchScore      float64        `json:"matchScore"` // retrieval score 0-1
	TextScore       float64        `json:"textScore"`  // 0-100
	AttributeScore  float64        `json:"attributeScore"`
	PriceInRange    bool           `json:"priceInRange"`
	PricePerUnit    *PricePerUnit  `json:"pricePerUnit,omitempty"`
	FinalScore      float64        `json:"finalScore"`
	MismatchReasons []string       `json:"mismatchReasons,omitempty"`
}

// MatchStatus is the confidence tier of a match
type MatchStatus string

const (
	StatusAutoMatched MatchStatus = "auto_matched"
	StatusPending     MatchStatus = "pending"
	StatusUnmatched   MatchStatus = "unmatched"
)

// MatchResult is the classified outcome for one invoice item.
// Unmatched results always carry an empty candidate list.
type MatchResult struct {
	Status     MatchStatus       `json:"status"`
	BestMatch  *ScoredCandidate  `json:"bestMatch,omitempty"`
	Candidates []ScoredCandidate `json:"candidates"`
}

// FunnelResult is the price/attribute refined ranking for one invoice item
type FunnelResult struct {
	Primary    []ScoredCandidate   `json:"primary"`
	Secondary  []ScoredCandidate   `json:"secondary"`
	PriceRange PriceRange          `json:"priceRange"`
	Scores     map[string]float64  `json:"scores"`
	Reasons    map[string][]string `json:"reasons"`
}

// ItemMatch bundles everything computed for one line item of a batch
type ItemMatch struct {
	Item   InvoiceLineItem `json:"item"`
	Result MatchResult     `json:"result"`
	Funnel *FunnelResult   `json:"funnel,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ItemAnalysis is how the pipeline reads one line item before retrieval
type ItemAnalysis struct {
	Query        NormalizedQuery `json:"query"`
	Spec         ParsedSpec      `json:"spec"`
	PricePerUnit *PricePerUnit   `json:"pricePerUnit,omitempty"`
	Attributes   []AttributeTag  `json:"attributes"`
}
