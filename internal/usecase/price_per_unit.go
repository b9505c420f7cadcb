package usecase

import "github.com/pricematch/backend/internal/domain"

// PricePerUnitOf converts a price and parsed spec into a price per base unit
// (won per g, ml or ea). Returns nil when the spec is unusable; callers skip
// price-range filtering in that case.
func PricePerUnitOf(price float64, spec domain.ParsedSpec) *domain.PricePerUnit {
	if !spec.IsValid || spec.Quantity <= 0 {
		return nil
	}

	quantity, unit := baseQuantity(spec)
	if quantity <= 0 {
		return nil
	}

	return &domain.PricePerUnit{
		Value:              price / quantity,
		Unit:               unit,
		NormalizedQuantity: quantity,
	}
}

// PricePerUnitFromText parses a spec string and converts the price in one step
func PricePerUnitFromText(price float64, text string) *domain.PricePerUnit {
	return PricePerUnitOf(price, ParseSpec(text))
}

// ItemPricePerUnit computes the invoice item's price per base unit.
// The unit price is used when present, otherwise total / quantity.
func ItemPricePerUnit(item domain.InvoiceLineItem) *domain.PricePerUnit {
	price := item.UnitPrice
	if price <= 0 && item.Quantity > 0 {
		price = item.TotalPrice / item.Quantity
	}
	if price <= 0 {
		return nil
	}
	return PricePerUnitOf(price, ParseItemSpec(item))
}

// ProductPricePerUnit computes a catalog product's price per base unit
func ProductPricePerUnit(product domain.CatalogProduct) *domain.PricePerUnit {
	if product.StandardPrice <= 0 {
		return nil
	}
	return PricePerUnitOf(product.StandardPrice, ParseCatalogSpec(product))
}

// baseQuantity converts a parsed spec to a quantity in g, ml or ea.
// Package units use their inner pack when one was given.
func baseQuantity(spec domain.ParsedSpec) (float64, string) {
	switch spec.Unit {
	case domain.UnitBox, domain.UnitPack, domain.UnitBag:
		if spec.Inner != nil && spec.Inner.Value > 0 {
			unit, factor := unitDimension(spec.Inner.Unit)
			return spec.Quantity * spec.Inner.Value * factor, unit
		}
		return spec.Quantity, domain.BaseUnitCount
	default:
		unit, factor := unitDimension(spec.Unit)
		return spec.Quantity * factor, unit
	}
}
