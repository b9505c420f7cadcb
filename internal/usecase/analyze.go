package usecase

import "github.com/pricematch/backend/internal/domain"

// Analyze runs the catalog-free stages of the pipeline on one line item:
// name normalization, spec parsing, price per unit and attribute tagging
func Analyze(item domain.InvoiceLineItem) domain.ItemAnalysis {
	attributes := ExtractAttributes(itemAttributeText(item))
	if attributes == nil {
		attributes = []domain.AttributeTag{}
	}

	return domain.ItemAnalysis{
		Query:        Normalize(item.ItemName),
		Spec:         ParseItemSpec(item),
		PricePerUnit: ItemPricePerUnit(item),
		Attributes:   attributes,
	}
}
