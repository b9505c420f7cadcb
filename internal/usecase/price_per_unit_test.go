package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricematch/backend/internal/domain"
)

func TestPricePerUnitOf(t *testing.T) {
	testCases := []struct {
		name      string
		price     float64
		spec      string
		wantValue float64
		wantUnit  string
		wantQty   float64
	}{
		{"kilograms to grams", 10000, "1kg", 10, domain.BaseUnitGram, 1000},
		{"grams pass through", 3000, "500g", 6, domain.BaseUnitGram, 500},
		{"liters to milliliters", 3000, "1.5L", 2, domain.BaseUnitML, 1500},
		{"each", 9000, "30구", 300, domain.BaseUnitCount, 30},
		{"box with count inner pack", 20000, "1박스(20개)", 1000, domain.BaseUnitCount, 20},
		{"boxes with weight inner pack", 40000, "2박스(10kg)", 2, domain.BaseUnitGram, 20000},
		{"pack without inner counts as each", 6000, "3팩", 2000, domain.BaseUnitCount, 3},
		{"composite", 54000, "45G*20개*6팩", 10, domain.BaseUnitGram, 5400},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := PricePerUnitFromText(tc.price, tc.spec)
			require.NotNil(t, got)
			assert.InDelta(t, tc.wantValue, got.Value, 1e-9)
			assert.Equal(t, tc.wantUnit, got.Unit)
			assert.InDelta(t, tc.wantQty, got.NormalizedQuantity, 1e-9)
		})
	}
}

func TestPricePerUnitOf_Unusable(t *testing.T) {
	assert.Nil(t, PricePerUnitFromText(1000, "국내산"))
	assert.Nil(t, PricePerUnitOf(1000, domain.ParsedSpec{IsValid: true}))
	assert.Nil(t, PricePerUnitOf(1000, domain.ParsedSpec{}))
}

func TestItemPricePerUnit(t *testing.T) {
	t.Run("uses unit price", func(t *testing.T) {
		got := ItemPricePerUnit(domain.InvoiceLineItem{ItemName: "양파", Spec: "1kg", UnitPrice: 2000})
		require.NotNil(t, got)
		assert.InDelta(t, 2.0, got.Value, 1e-9)
	})

	t.Run("derives unit price from total", func(t *testing.T) {
		got := ItemPricePerUnit(domain.InvoiceLineItem{ItemName: "양파", Spec: "1kg", Quantity: 2, TotalPrice: 20000})
		require.NotNil(t, got)
		assert.InDelta(t, 10.0, got.Value, 1e-9)
	})

	t.Run("no price", func(t *testing.T) {
		assert.Nil(t, ItemPricePerUnit(domain.InvoiceLineItem{ItemName: "양파", Spec: "1kg"}))
	})

	t.Run("no spec", func(t *testing.T) {
		assert.Nil(t, ItemPricePerUnit(domain.InvoiceLineItem{ItemName: "양파", UnitPrice: 2000}))
	})
}

func TestProductPricePerUnit(t *testing.T) {
	qty := 2.0
	got := ProductPricePerUnit(domain.CatalogProduct{Name: "양파", StandardPrice: 5000, SpecQuantity: &qty, SpecUnit: "kg"})
	require.NotNil(t, got)
	assert.InDelta(t, 2.5, got.Value, 1e-9)
	assert.Equal(t, domain.BaseUnitGram, got.Unit)

	assert.Nil(t, ProductPricePerUnit(domain.CatalogProduct{Name: "양파 1kg"}))
}
