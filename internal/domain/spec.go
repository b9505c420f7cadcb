package domain

// Canonical units produced by the spec parser
const (
	UnitG    = "G"
	UnitKG   = "KG"
	UnitML   = "ML"
	UnitL    = "L"
	UnitEA   = "EA"
	UnitBox  = "박스"
	UnitPack = "팩"
	UnitBag  = "봉"
)

// Base units used for price-per-unit comparison
const (
	BaseUnitGram  = "g"
	BaseUnitML    = "ml"
	BaseUnitCount = "ea"
)

// SpecQuantity is a single quantity with its canonical unit
type SpecQuantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ParsedSpec is the outcome of parsing a product spec string.
// When IsValid is false, ParseError explains why and Quantity is zero.
type ParsedSpec struct {
	Raw        string        `json:"raw"`
	Quantity   float64       `json:"quantity"`
	Unit       string        `json:"unit"`
	Inner      *SpecQuantity `json:"inner,omitempty"`
	Pattern    string        `json:"pattern,omitempty"`
	IsValid    bool          `json:"isValid"`
	ParseError string        `json:"parseError,omitempty"`
}

// PricePerUnit is a price expressed per base unit (won per g, ml or ea)
type PricePerUnit struct {
	Value              float64 `json:"value"`
	Unit               string  `json:"unit"`
	NormalizedQuantity float64 `json:"normalizedQuantity"`
}

// PriceRange is the acceptance window derived for one match attempt.
// Min <= Base <= Max always holds; the zero value is the degenerate range
// used when the invoice item has no usable price per unit.
type PriceRange struct {
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	Base             float64 `json:"base"`
	TolerancePercent float64 `json:"tolerancePercent"`
	Unit             string  `json:"unit,omitempty"`
	Category         string  `json:"category"`
}

// IsZero reports whether the range is the degenerate zero range
func (r PriceRange) IsZero() bool {
	return r.Base == 0 && r.Min == 0 && r.Max == 0
}

// Contains reports whether a price per unit falls inside the window (inclusive)
func (r PriceRange) Contains(ppu *PricePerUnit) bool {
	if r.IsZero() || ppu == nil || ppu.Unit != r.Unit {
		return false
	}
	return ppu.Value >= r.Min && ppu.Value <= r.Max
}
