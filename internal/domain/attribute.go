package domain

// AttributeTag is a controlled-vocabulary origin or premium marker
type AttributeTag string

// Origin tags (mutually exclusive)
const (
	TagDomestic AttributeTag = "국내산"
	TagImported AttributeTag = "수입산"
)

// Premium tags
const (
	TagEcoFriendly    AttributeTag = "친환경"
	TagOrganic        AttributeTag = "유기농"
	TagPesticideFree  AttributeTag = "무농약"
	TagAntibioticFree AttributeTag = "무항생제"
	TagGAP            AttributeTag = "GAP"
	TagHACCP          AttributeTag = "HACCP"
	TagHanwoo         AttributeTag = "한우"
	TagGrade1PP       AttributeTag = "1++"
	TagGrade1P        AttributeTag = "1+"
	TagPremium        AttributeTag = "프리미엄"
)

// PremiumTags lists every premium tag in vocabulary order
var PremiumTags = []AttributeTag{
	TagEcoFriendly, TagOrganic, TagPesticideFree, TagAntibioticFree,
	TagGAP, TagHACCP, TagHanwoo, TagGrade1PP, TagGrade1P, TagPremium,
}

// IsOrigin reports whether the tag describes product origin
func (t AttributeTag) IsOrigin() bool {
	return t == TagDomestic || t == TagImported
}

// AttributeComparison is the penalty-based compatibility between two tag sets.
// Mismatches is a human-readable reason list, one entry per penalty applied.
type AttributeComparison struct {
	Score      float64  `json:"score"`
	Mismatches []string `json:"mismatches"`
}
