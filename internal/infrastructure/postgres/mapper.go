package postgres

import (
	"strconv"
	"strings"

	"github.com/pricematch/backend/internal/domain"
)

// productRow is one row of any search_products_* function. Trigram search
// returns a similarity column, the other strategies return match_score.
type productRow struct {
	ID             string   `db:"id"`
	ProductName    string   `db:"product_name"`
	StandardPrice  *float64 `db:"standard_price"`
	SpecQuantity   *float64 `db:"spec_quantity"`
	SpecUnit       *string  `db:"spec_unit"`
	UnitNormalized *string  `db:"unit_normalized"`
	Supplier       *string  `db:"supplier"`
	Category       *string  `db:"category"`
	TaxType        *string  `db:"tax_type"`
	Similarity     *float64 `db:"similarity"`
	MatchScore     *float64 `db:"match_score"`
}

// toHit maps a row into the domain hit for the given mode
func (r productRow) toHit(mode domain.SearchMode) domain.SearchHit {
	return domain.SearchHit{
		Mode: mode,
		Product: domain.CatalogProduct{
			ID:             r.ID,
			Name:           r.ProductName,
			StandardPrice:  deref(r.StandardPrice),
			SpecQuantity:   r.SpecQuantity,
			SpecUnit:       deref(r.SpecUnit),
			UnitNormalized: deref(r.UnitNormalized),
			Supplier:       deref(r.Supplier),
			Category:       deref(r.Category),
			TaxType:        deref(r.TaxType),
		},
		Similarity: deref(r.Similarity),
		MatchScore: deref(r.MatchScore),
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

// vectorLiteral renders an embedding in pgvector's text input format
func vectorLiteral(embedding []float32) string {
	var b strings.Builder
	b.Grow(len(embedding)*10 + 2)
	b.WriteByte('[')
	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}
