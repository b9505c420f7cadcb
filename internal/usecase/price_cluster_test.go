package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricematch/backend/internal/domain"
)

func candidate(id, name, category string, price float64, matchScore float64) domain.ScoredCandidate {
	return domain.ScoredCandidate{
		Product: domain.CatalogProduct{
			ID:            id,
			Name:          name,
			StandardPrice: price,
			Category:      category,
		},
		MatchScore: matchScore,
		TextScore:  matchScore * 100,
	}
}

func ids(candidates []domain.ScoredCandidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Product.ID)
	}
	return out
}

func TestBuildPriceRange_Invariant(t *testing.T) {
	for _, tol := range []float64{5, 20, 25, 30, 35, 40, 75} {
		for _, base := range []float64{0.5, 2, 10, 1234.5} {
			r := BuildPriceRange(&domain.PricePerUnit{Value: base, Unit: domain.BaseUnitGram}, tol, CategoryOther)

			assert.LessOrEqual(t, r.Min, r.Base)
			assert.LessOrEqual(t, r.Base, r.Max)
			assert.InDelta(t, (1+tol/100)/(1-tol/100), r.Max/r.Min, 1e-9)
			assert.Equal(t, tol, r.TolerancePercent)
			assert.Equal(t, domain.BaseUnitGram, r.Unit)
		}
	}
}

func TestClusterByPrice(t *testing.T) {
	item := domain.InvoiceLineItem{ItemName: "삼겹살", Spec: "1kg", UnitPrice: 20000}
	candidates := []domain.ScoredCandidate{
		candidate("in", "삼겹살 1kg", "축산물", 22000, 0.9),
		candidate("pricey", "삼겹살 500g", "축산물", 20000, 0.8),
		candidate("unparseable", "삼겹살", "축산물", 20000, 0.7),
		candidate("other-unit", "삼겹살 10개", "축산물", 200, 0.6),
		candidate("no-price", "삼겹살 1kg", "축산물", 0, 0.5),
	}

	cluster := ClusterByPrice(item, candidates, nil)

	assert.Equal(t, []string{"in"}, ids(cluster.InRange))
	assert.Equal(t, []string{"pricey", "unparseable", "other-unit", "no-price"}, ids(cluster.OutRange))

	assert.Equal(t, CategoryMeat, cluster.PriceRange.Category)
	assert.Equal(t, 25.0, cluster.PriceRange.TolerancePercent)
	assert.InDelta(t, 20.0, cluster.PriceRange.Base, 1e-9)
	assert.InDelta(t, 15.0, cluster.PriceRange.Min, 1e-9)
	assert.InDelta(t, 25.0, cluster.PriceRange.Max, 1e-9)

	require.NotNil(t, cluster.InRange[0].PricePerUnit)
	assert.True(t, cluster.InRange[0].PriceInRange)
	assert.InDelta(t, 22.0, cluster.InRange[0].PricePerUnit.Value, 1e-9)
}

func TestClusterByPrice_UnparseableCandidateAlwaysOutOfRange(t *testing.T) {
	items := []domain.InvoiceLineItem{
		{ItemName: "대파", Spec: "1kg", UnitPrice: 3000},
		{ItemName: "대파", UnitPrice: 3000},
		{ItemName: "대파 1kg"},
	}

	for _, item := range items {
		cluster := ClusterByPrice(item, []domain.ScoredCandidate{
			candidate("unparseable", "대파 특품", "농산물", 3000, 0.9),
		}, nil)

		assert.Empty(t, cluster.InRange)
		assert.Equal(t, []string{"unparseable"}, ids(cluster.OutRange))
		assert.Nil(t, cluster.OutRange[0].PricePerUnit)
	}
}

func TestClusterByPrice_ItemWithoutPricePerUnit(t *testing.T) {
	item := domain.InvoiceLineItem{ItemName: "대파", Spec: "한단"}
	cluster := ClusterByPrice(item, []domain.ScoredCandidate{
		candidate("a", "대파 1kg", "농산물", 3000, 0.9),
	}, nil)

	assert.Empty(t, cluster.InRange)
	assert.Len(t, cluster.OutRange, 1)
	assert.True(t, cluster.PriceRange.IsZero())
	assert.Equal(t, CategoryProduce, cluster.PriceRange.Category)
	assert.Equal(t, 40.0, cluster.PriceRange.TolerancePercent)
}

func TestClusterByPrice_BoundsAreInclusive(t *testing.T) {
	item := domain.InvoiceLineItem{ItemName: "목살", Spec: "1kg", UnitPrice: 10000}
	cluster := ClusterByPrice(item, []domain.ScoredCandidate{
		candidate("low", "목살 1kg", "축산물", 7500, 0.9),
		candidate("high", "목살 1kg", "축산물", 12500, 0.9),
		candidate("over", "목살 1kg", "축산물", 12600, 0.9),
	}, nil)

	assert.Equal(t, []string{"low", "high"}, ids(cluster.InRange))
	assert.Equal(t, []string{"over"}, ids(cluster.OutRange))
}

func TestRepresentativeCategory(t *testing.T) {
	testCases := []struct {
		name       string
		categories []string
		want       string
	}{
		{"empty", nil, CategoryOther},
		{"no categories", []string{"", " "}, CategoryOther},
		{"mode wins", []string{"수산물", "축산물", "축산"}, CategoryMeat},
		{"first seen breaks tie", []string{"농산물", "수산물"}, CategoryProduce},
		{"unknown label counts", []string{"Frozen", "frozen", "가공식품"}, "frozen"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var candidates []domain.ScoredCandidate
			for i, category := range tc.categories {
				candidates = append(candidates, candidate(string(rune('a'+i)), "x", category, 0, 0))
			}
			assert.Equal(t, tc.want, RepresentativeCategory(candidates))
		})
	}
}

func TestCanonicalCategory(t *testing.T) {
	assert.Equal(t, CategoryProduce, CanonicalCategory("농산물"))
	assert.Equal(t, CategoryProduce, CanonicalCategory("채소류"))
	assert.Equal(t, CategoryMeat, CanonicalCategory("축산물"))
	assert.Equal(t, CategoryProcessed, CanonicalCategory("가공식품"))
	assert.Equal(t, CategorySeafood, CanonicalCategory("수산물"))
	assert.Equal(t, CategorySeafood, CanonicalCategory("Seafood"))
	assert.Equal(t, "", CanonicalCategory(""))
}

func TestToleranceTable(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		table := NewToleranceTable(nil)
		assert.Equal(t, 40.0, table.For(CategoryProduce))
		assert.Equal(t, 25.0, table.For(CategoryMeat))
		assert.Equal(t, 20.0, table.For(CategoryProcessed))
		assert.Equal(t, 35.0, table.For(CategorySeafood))
		assert.Equal(t, DefaultTolerancePercent, table.For(CategoryOther))
	})

	t.Run("overrides", func(t *testing.T) {
		table := NewToleranceTable(map[string]float64{"Produce": 50, "meat": 150, "default": 10})
		assert.Equal(t, 50.0, table.For(CategoryProduce))
		assert.Equal(t, 25.0, table.For(CategoryMeat))
		assert.Equal(t, 10.0, table.For("frozen"))
	})

	t.Run("does not mutate defaults", func(t *testing.T) {
		NewToleranceTable(map[string]float64{CategorySeafood: 5})
		assert.Equal(t, 35.0, DefaultCategoryTolerances[CategorySeafood])
	})
}
