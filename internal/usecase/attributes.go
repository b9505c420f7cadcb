package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pricematch/backend/internal/domain"
)

// DefaultAttributeThreshold splits attribute-compatible candidates from the rest
const DefaultAttributeThreshold = 90.0

// Attribute penalties, applied additively
const (
	attributeBaseScore     = 100.0
	originConflictPenalty  = 20.0
	originOneSidedPenalty  = 15.0
	premiumOneSidedPenalty = 15.0
)

// foreignOrigins are country names whose "<country>산" form marks an import.
// Several of them end in 국, so they must be matched before the bare "국산".
var foreignOrigins = []string{
	"미국", "중국", "태국", "영국", "호주", "뉴질랜드", "캐나다", "칠레", "브라질",
	"아르헨티나", "멕시코", "페루", "스페인", "프랑스", "독일", "이탈리아", "네덜란드",
	"덴마크", "노르웨이", "러시아", "베트남", "인도네시아", "필리핀", "인도", "일본",
}

// originPattern lists origin keywords longest first so "한국산" is never read as "국산"
var originPattern = regexp.MustCompile(`(?:` + strings.Join(foreignOrigins, "|") + `)산|대한민국산|국내산|한국산|외국산|수입산|국산|수입`)

var originTags = map[string]domain.AttributeTag{
	"국내산":   domain.TagDomestic,
	"대한민국산": domain.TagDomestic,
	"한국산":   domain.TagDomestic,
	"국산":    domain.TagDomestic,
	"외국산":   domain.TagImported,
	"수입산":   domain.TagImported,
	"수입":    domain.TagImported,
}

// premiumPatterns are evaluated in order; "1++" precedes "1+"
var premiumPatterns = []struct {
	pattern string
	tag     domain.AttributeTag
	grade   bool
}{
	{"무항생제", domain.TagAntibioticFree, false},
	{"프리미엄", domain.TagPremium, false},
	{"친환경", domain.TagEcoFriendly, false},
	{"유기농", domain.TagOrganic, false},
	{"무농약", domain.TagPesticideFree, false},
	{"HACCP", domain.TagHACCP, false},
	{"GAP", domain.TagGAP, false},
	{"한우", domain.TagHanwoo, false},
	{"1++", domain.TagGrade1PP, true},
	{"1+", domain.TagGrade1P, true},
}

// ExtractAttributes returns the origin and premium tags found in a product name,
// origin first then premium tags in vocabulary order. Every matched span is
// blanked before later patterns run, so overlapping tokens never double-count.
func ExtractAttributes(name string) []domain.AttributeTag {
	if name == "" {
		return []domain.AttributeTag{}
	}

	var tags []domain.AttributeTag

	for _, loc := range originPattern.FindAllStringIndex(name, -1) {
		if tag, ok := originTag(name, loc); ok {
			tags = append(tags, tag)
			break
		}
	}
	remaining := originPattern.ReplaceAllString(name, " ")

	// ASCII-only uppercasing keeps byte offsets aligned with the original
	upper := asciiUpper(remaining)
	found := make(map[domain.AttributeTag]bool)
	for _, p := range premiumPatterns {
		for {
			idx := indexFrom(upper, p.pattern, 0)
			for idx >= 0 && p.grade && !isStandaloneGrade(upper, idx, len(p.pattern)) {
				idx = indexFrom(upper, p.pattern, idx+len(p.pattern))
			}
			if idx < 0 {
				break
			}
			found[p.tag] = true
			upper = upper[:idx] + strings.Repeat(" ", len(p.pattern)) + upper[idx+len(p.pattern):]
		}
	}

	for _, tag := range domain.PremiumTags {
		if found[tag] {
			tags = append(tags, tag)
		}
	}
	if tags == nil {
		return []domain.AttributeTag{}
	}
	return tags
}

// originTag resolves one origin match. A bare "국산" glued to a preceding
// Hangul syllable is the tail of an unlisted country name and is skipped.
func originTag(name string, loc []int) (domain.AttributeTag, bool) {
	token := name[loc[0]:loc[1]]
	if tag, ok := originTags[token]; ok {
		if token == "국산" {
			if prev, _ := utf8.DecodeLastRuneInString(name[:loc[0]]); unicode.Is(unicode.Hangul, prev) {
				return "", false
			}
		}
		return tag, true
	}
	return domain.TagImported, true
}

// CompareAttributes scores candidate tags against query tags, starting at 100:
// conflicting origins -20, origin on one side only -15, each premium tag on
// one side only -15. The score is not clamped and can drop below zero.
func CompareAttributes(query, candidate []domain.AttributeTag) domain.AttributeComparison {
	result := domain.AttributeComparison{Score: attributeBaseScore, Mismatches: []string{}}

	queryOrigin, querySet := splitTags(query)
	candOrigin, candSet := splitTags(candidate)

	switch {
	case queryOrigin != "" && candOrigin != "" && queryOrigin != candOrigin:
		result.Score -= originConflictPenalty
		result.Mismatches = append(result.Mismatches,
			fmt.Sprintf("원산지 불일치: 검색어 %s, 후보 %s", queryOrigin, candOrigin))
	case queryOrigin != "" && candOrigin == "":
		result.Score -= originOneSidedPenalty
		result.Mismatches = append(result.Mismatches,
			fmt.Sprintf("원산지 표기 차이: 후보에 %s 표기 없음", queryOrigin))
	case queryOrigin == "" && candOrigin != "":
		result.Score -= originOneSidedPenalty
		result.Mismatches = append(result.Mismatches,
			fmt.Sprintf("원산지 표기 차이: 검색어에 %s 표기 없음", candOrigin))
	}

	for _, tag := range domain.PremiumTags {
		inQuery, inCand := querySet[tag], candSet[tag]
		switch {
		case inQuery && !inCand:
			result.Score -= premiumOneSidedPenalty
			result.Mismatches = append(result.Mismatches, fmt.Sprintf("%s 속성 불일치: 후보에 없음", tag))
		case !inQuery && inCand:
			result.Score -= premiumOneSidedPenalty
			result.Mismatches = append(result.Mismatches, fmt.Sprintf("%s 속성 불일치: 검색어에 없음", tag))
		}
	}

	return result
}

// FilterByAttributes scores every candidate against the item's attributes and
// splits them at threshold. Both partitions are sorted by attribute score, descending.
func FilterByAttributes(item domain.InvoiceLineItem, candidates []domain.ScoredCandidate, threshold float64) (primary, secondary []domain.ScoredCandidate) {
	primary = []domain.ScoredCandidate{}
	secondary = []domain.ScoredCandidate{}

	queryTags := ExtractAttributes(itemAttributeText(item))
	for _, c := range candidates {
		cmp := CompareAttributes(queryTags, ExtractAttributes(c.Product.Name))
		c.AttributeScore = cmp.Score
		c.MismatchReasons = append(append([]string(nil), c.MismatchReasons...), cmp.Mismatches...)

		if c.AttributeScore >= threshold {
			primary = append(primary, c)
		} else {
			secondary = append(secondary, c)
		}
	}

	sortByAttributeScore(primary)
	sortByAttributeScore(secondary)
	return primary, secondary
}

func itemAttributeText(item domain.InvoiceLineItem) string {
	if item.Spec == "" {
		return item.ItemName
	}
	return item.ItemName + " " + item.Spec
}

func splitTags(tags []domain.AttributeTag) (domain.AttributeTag, map[domain.AttributeTag]bool) {
	var origin domain.AttributeTag
	premium := make(map[domain.AttributeTag]bool, len(tags))
	for _, tag := range tags {
		if tag.IsOrigin() {
			if origin == "" {
				origin = tag
			}
			continue
		}
		premium[tag] = true
	}
	return origin, premium
}

func sortByAttributeScore(candidates []domain.ScoredCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].AttributeScore > candidates[j].AttributeScore
	})
}

// isStandaloneGrade rejects grades glued to other digits, e.g. the "1+1" promotion
func isStandaloneGrade(s string, idx, length int) bool {
	if idx > 0 && isDigit(s[idx-1]) {
		return false
	}
	end := idx + length
	return end >= len(s) || !isDigit(s[end])
}

func indexFrom(s, substr string, from int) int {
	if from > len(s) {
		return -1
	}
	idx := strings.Index(s[from:], substr)
	if idx < 0 {
		return -1
	}
	return from + idx
}

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
