package usecase

import (
	"strings"

	"github.com/pricematch/backend/internal/domain"
)

// Representative categories used for tolerance lookup
const (
	CategoryProduce   = "produce"
	CategoryMeat      = "meat"
	CategoryProcessed = "processed"
	CategorySeafood   = "seafood"
	CategoryOther     = "other"

	// DefaultTolerancePercent applies to any category without its own entry
	DefaultTolerancePercent = 30.0
)

// DefaultCategoryTolerances are wider for categories with high seasonal price variance
var DefaultCategoryTolerances = map[string]float64{
	CategoryProduce:   40,
	CategoryMeat:      25,
	CategoryProcessed: 20,
	CategorySeafood:   35,
}

// categoryAliases folds catalog category labels into representative categories
var categoryAliases = []struct {
	keyword  string
	category string
}{
	{"농산", CategoryProduce}, {"채소", CategoryProduce}, {"야채", CategoryProduce},
	{"과일", CategoryProduce}, {"청과", CategoryProduce}, {"produce", CategoryProduce},
	{"축산", CategoryMeat}, {"육류", CategoryMeat}, {"정육", CategoryMeat}, {"meat", CategoryMeat},
	{"수산", CategorySeafood}, {"해산", CategorySeafood}, {"생선", CategorySeafood},
	{"seafood", CategorySeafood},
	{"가공", CategoryProcessed}, {"processed", CategoryProcessed},
}

// ToleranceTable maps representative categories to a tolerance percentage
type ToleranceTable map[string]float64

// NewToleranceTable merges overrides onto the default table
func NewToleranceTable(overrides map[string]float64) ToleranceTable {
	table := make(ToleranceTable, len(DefaultCategoryTolerances)+len(overrides))
	for category, tol := range DefaultCategoryTolerances {
		table[category] = tol
	}
	for category, tol := range overrides {
		if tol > 0 && tol < 100 {
			table[strings.ToLower(category)] = tol
		}
	}
	return table
}

// For returns the tolerance for a category, falling back to the default
func (t ToleranceTable) For(category string) float64 {
	if tol, ok := t[category]; ok {
		return tol
	}
	if tol, ok := t["default"]; ok {
		return tol
	}
	return DefaultTolerancePercent
}

// PriceCluster splits candidates by whether their price per unit falls in the item's window
type PriceCluster struct {
	InRange    []domain.ScoredCandidate
	OutRange   []domain.ScoredCandidate
	PriceRange domain.PriceRange
}

// ClusterByPrice splits candidates into in-range and out-of-range price bands.
// Candidates with unparseable specs, or a base unit different from the item's,
// always land in OutRange. When the item itself has no price per unit every
// candidate is out of range and the range is the zero range.
func ClusterByPrice(item domain.InvoiceLineItem, candidates []domain.ScoredCandidate, tolerances ToleranceTable) PriceCluster {
	if tolerances == nil {
		tolerances = NewToleranceTable(nil)
	}

	category := RepresentativeCategory(candidates)
	tolerance := tolerances.For(category)

	cluster := PriceCluster{
		InRange:  []domain.ScoredCandidate{},
		OutRange: []domain.ScoredCandidate{},
	}

	itemPPU := ItemPricePerUnit(item)
	if itemPPU != nil && itemPPU.Value > 0 {
		cluster.PriceRange = BuildPriceRange(itemPPU, tolerance, category)
	} else {
		cluster.PriceRange = domain.PriceRange{TolerancePercent: tolerance, Category: category}
	}

	for _, c := range candidates {
		c.PricePerUnit = ProductPricePerUnit(c.Product)
		c.PriceInRange = cluster.PriceRange.Contains(c.PricePerUnit)
		if c.PriceInRange {
			cluster.InRange = append(cluster.InRange, c)
		} else {
			cluster.OutRange = append(cluster.OutRange, c)
		}
	}

	return cluster
}

// BuildPriceRange derives the acceptance window [base(1-t), base(1+t)]
func BuildPriceRange(base *domain.PricePerUnit, tolerancePercent float64, category string) domain.PriceRange {
	tol := tolerancePercent / 100
	return domain.PriceRange{
		Min:              base.Value * (1 - tol),
		Max:              base.Value * (1 + tol),
		Base:             base.Value,
		TolerancePercent: tolerancePercent,
		Unit:             base.Unit,
		Category:         category,
	}
}

// RepresentativeCategory returns the most common candidate category (first seen
// wins ties), or "other" when no candidate has one
func RepresentativeCategory(candidates []domain.ScoredCandidate) string {
	counts := make(map[string]int)
	var order []string

	for _, c := range candidates {
		category := CanonicalCategory(c.Product.Category)
		if category == "" {
			continue
		}
		if counts[category] == 0 {
			order = append(order, category)
		}
		counts[category]++
	}

	best, bestCount := CategoryOther, 0
	for _, category := range order {
		if counts[category] > bestCount {
			best, bestCount = category, counts[category]
		}
	}
	return best
}

// CanonicalCategory folds a raw catalog category into a representative category.
// Unknown labels are returned lowercased so they still count toward the mode.
func CanonicalCategory(raw string) string {
	category := strings.ToLower(strings.TrimSpace(raw))
	if category == "" {
		return ""
	}
	for _, alias := range categoryAliases {
		if strings.Contains(category, alias.keyword) {
			return alias.category
		}
	}
	return category
}
