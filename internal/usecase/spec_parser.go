package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pricematch/backend/internal/domain"
)

// unitAliases maps raw unit tokens (lowercased) to one canonical unit per category
var unitAliases = map[string]string{
	// Weight
	"g": domain.UnitG, "gr": domain.UnitG, "그램": domain.UnitG, "그람": domain.UnitG,
	"kg": domain.UnitKG, "㎏": domain.UnitKG, "키로": domain.UnitKG, "킬로": domain.UnitKG,
	"킬로그램": domain.UnitKG, "키로그램": domain.UnitKG,

	// Volume
	"ml": domain.UnitML, "㎖": domain.UnitML, "cc": domain.UnitML, "미리": domain.UnitML,
	"밀리": domain.UnitML, "미리리터": domain.UnitML, "밀리리터": domain.UnitML,
	"l": domain.UnitL, "ℓ": domain.UnitL, "lt": domain.UnitL, "ltr": domain.UnitL, "리터": domain.UnitL,

	// Count
	"ea": domain.UnitEA, "pcs": domain.UnitEA, "pc": domain.UnitEA, "개": domain.UnitEA,
	"개입": domain.UnitEA, "입": domain.UnitEA, "알": domain.UnitEA, "구": domain.UnitEA,
	"마리": domain.UnitEA, "매": domain.UnitEA, "포": domain.UnitEA, "캔": domain.UnitEA,
	"병": domain.UnitEA, "통": domain.UnitEA, "판": domain.UnitEA,

	// Packaging
	"박스": domain.UnitBox, "box": domain.UnitBox, "bx": domain.UnitBox, "상자": domain.UnitBox,
	"팩": domain.UnitPack, "pack": domain.UnitPack, "pk": domain.UnitPack,
	"봉": domain.UnitBag, "봉지": domain.UnitBag, "bag": domain.UnitBag,
}

// unitAlternation is a longest-first regex alternation of every unit alias.
// ASCII aliases require a word boundary so "l" never matches the start of "large".
var unitAlternation = buildUnitAlternation()

func buildUnitAlternation() string {
	aliases := make([]string, 0, len(unitAliases))
	for alias := range unitAliases {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(aliases[i]), utf8.RuneCountInString(aliases[j])
		if li != lj {
			return li > lj
		}
		return aliases[i] < aliases[j]
	})

	parts := make([]string, len(aliases))
	for i, alias := range aliases {
		parts[i] = regexp.QuoteMeta(alias)
		if isASCII(alias) {
			parts[i] += `\b`
		}
	}
	return strings.Join(parts, "|")
}

const numberPattern = `(\d+(?:\.\d+)?)`

var (
	thousandsSeparatorPattern = regexp.MustCompile(`(\d),(\d{3})`)
	unitTimesPattern          = regexp.MustCompile(`(?i)(\d\s*(?:kg|g|ml|l|ea))\s*[x×]\s*(\d)`)

	exactSpecPattern      = regexp.MustCompile(`(?i)^\s*` + numberPattern + `\s*(` + unitAlternation + `)\s*$`)
	compositeSpecPattern  = regexp.MustCompile(`(?i)` + numberPattern + `\s*(` + unitAlternation + `)((?:\s*[*xX×]\s*\d+(?:\.\d+)?\s*(?:` + unitAlternation + `)?)+)`)
	compositeFactor       = regexp.MustCompile(`[*xX×]\s*(\d+(?:\.\d+)?)`)
	rangeSpecPattern      = regexp.MustCompile(`(?i)` + numberPattern + `\s*(` + unitAlternation + `)?\s*[~～\-]\s*` + numberPattern + `\s*(` + unitAlternation + `)`)
	innerPackSpecPattern  = regexp.MustCompile(`(?i)` + numberPattern + `\s*(` + unitAlternation + `)\s*[(\[（]\s*` + numberPattern + `\s*(` + unitAlternation + `)\s*[)\]）]`)
	countSuffixPattern    = regexp.MustCompile(`(?:` + numberPattern + `\s*)?[xX×]\s*(\d+)\s*$`)
	embeddedSpecPattern   = regexp.MustCompile(`(?i)` + numberPattern + `\s*(` + unitAlternation + `)`)
	bareNumberSpecPattern = regexp.MustCompile(`^\s*` + numberPattern + `\s*$`)
)

// specPattern is one parsing strategy; the first that matches wins
type specPattern struct {
	name  string
	parse func(s string) (domain.ParsedSpec, bool)
}

// specPatterns is ordered most specific first
var specPatterns = []specPattern{
	{"exact", parseExactSpec},
	{"composite", parseCompositeSpec},
	{"range", parseRangeSpec},
	{"inner_pack", parseInnerPackSpec},
	{"count_suffix", parseCountSuffixSpec},
	{"embedded", parseEmbeddedSpec},
	{"bare_number", parseBareNumberSpec},
}

// CanonicalUnit maps a raw unit token to its canonical form
func CanonicalUnit(raw string) (string, bool) {
	unit, ok := unitAliases[strings.ToLower(strings.TrimSpace(raw))]
	return unit, ok
}

// ParseSpec extracts a quantity and canonical unit from a spec or product name.
// It never guesses: when no pattern matches the result is invalid with a ParseError.
func ParseSpec(text string) domain.ParsedSpec {
	s := strings.TrimSpace(text)
	if s == "" {
		return invalidSpec(text, "empty spec")
	}

	s = thousandsSeparatorPattern.ReplaceAllString(s, "${1}${2}")
	s = unitTimesPattern.ReplaceAllString(s, "${1}*${2}")

	for _, p := range specPatterns {
		spec, ok := p.parse(s)
		if !ok {
			continue
		}
		spec.Raw = text
		spec.Pattern = p.name
		if spec.Quantity <= 0 {
			return invalidSpec(text, fmt.Sprintf("non-positive quantity from %s pattern", p.name))
		}
		spec.IsValid = true
		return spec
	}

	return invalidSpec(text, "no quantity pattern matched")
}

// ParseItemSpec parses an invoice item's spec, falling back to its name
func ParseItemSpec(item domain.InvoiceLineItem) domain.ParsedSpec {
	if strings.TrimSpace(item.Spec) == "" {
		return ParseSpec(item.ItemName)
	}

	spec := ParseSpec(item.Spec)
	if spec.IsValid {
		return spec
	}
	if fromName := ParseSpec(item.ItemName); fromName.IsValid {
		return fromName
	}
	return spec
}

// ParseCatalogSpec prefers the catalog's structured quantity/unit columns
// and falls back to parsing the product name
func ParseCatalogSpec(product domain.CatalogProduct) domain.ParsedSpec {
	if product.SpecQuantity != nil && *product.SpecQuantity > 0 {
		if unit, ok := CanonicalUnit(product.SpecUnit); ok {
			return domain.ParsedSpec{
				Raw:      fmt.Sprintf("%g%s", *product.SpecQuantity, product.SpecUnit),
				Quantity: *product.SpecQuantity,
				Unit:     unit,
				Pattern:  "structured",
				IsValid:  true,
			}
		}
	}

	if strings.TrimSpace(product.SpecUnit) != "" {
		if spec := ParseSpec(product.SpecUnit); spec.IsValid {
			return spec
		}
	}

	return ParseSpec(product.Name)
}

func parseExactSpec(s string) (domain.ParsedSpec, bool) {
	m := exactSpecPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}
	return quantitySpec(m[1], m[2]), true
}

func parseCompositeSpec(s string) (domain.ParsedSpec, bool) {
	m := compositeSpecPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}

	spec := quantitySpec(m[1], m[2])
	for _, factor := range compositeFactor.FindAllStringSubmatch(m[3], -1) {
		spec.Quantity *= parseNumber(factor[1])
	}
	return spec, true
}

func parseRangeSpec(s string) (domain.ParsedSpec, bool) {
	m := rangeSpecPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}

	low, high := parseNumber(m[1]), parseNumber(m[3])
	highUnit, _ := CanonicalUnit(m[4])
	lowUnit := highUnit
	if m[2] != "" {
		lowUnit, _ = CanonicalUnit(m[2])
	}

	if lowUnit != highUnit {
		lowDim, lowFactor := unitDimension(lowUnit)
		highDim, highFactor := unitDimension(highUnit)
		if lowDim != highDim {
			return domain.ParsedSpec{}, false
		}
		low = low * lowFactor / highFactor
	}

	return domain.ParsedSpec{Quantity: (low + high) / 2, Unit: highUnit}, true
}

func parseInnerPackSpec(s string) (domain.ParsedSpec, bool) {
	m := innerPackSpecPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}

	spec := quantitySpec(m[1], m[2])
	innerUnit, _ := CanonicalUnit(m[4])
	spec.Inner = &domain.SpecQuantity{Value: parseNumber(m[3]), Unit: innerUnit}
	return spec, true
}

func parseCountSuffixSpec(s string) (domain.ParsedSpec, bool) {
	m := countSuffixPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}

	// "12x10" is twelve packs of ten
	quantity := parseNumber(m[2])
	if m[1] != "" {
		quantity *= parseNumber(m[1])
	}
	return domain.ParsedSpec{Quantity: quantity, Unit: domain.UnitEA}, true
}

func parseEmbeddedSpec(s string) (domain.ParsedSpec, bool) {
	m := embeddedSpecPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}
	return quantitySpec(m[1], m[2]), true
}

func parseBareNumberSpec(s string) (domain.ParsedSpec, bool) {
	m := bareNumberSpecPattern.FindStringSubmatch(s)
	if m == nil {
		return domain.ParsedSpec{}, false
	}
	return domain.ParsedSpec{Quantity: parseNumber(m[1]), Unit: domain.UnitEA}, true
}

func quantitySpec(number, unit string) domain.ParsedSpec {
	canonical, _ := CanonicalUnit(unit)
	return domain.ParsedSpec{Quantity: parseNumber(number), Unit: canonical}
}

func invalidSpec(raw, reason string) domain.ParsedSpec {
	return domain.ParsedSpec{Raw: raw, IsValid: false, ParseError: reason}
}

// unitDimension returns the measurement dimension of a canonical unit and its
// factor relative to that dimension's base unit
func unitDimension(unit string) (string, float64) {
	switch unit {
	case domain.UnitG:
		return domain.BaseUnitGram, 1
	case domain.UnitKG:
		return domain.BaseUnitGram, 1000
	case domain.UnitML:
		return domain.BaseUnitML, 1
	case domain.UnitL:
		return domain.BaseUnitML, 1000
	default:
		return domain.BaseUnitCount, 1
	}
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
