package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricematch/backend/internal/domain"
)

func TestExtractAttributes(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  []domain.AttributeTag
	}{
		{"origin and premium", "국내산 친환경 양파", []domain.AttributeTag{domain.TagDomestic, domain.TagEcoFriendly}},
		{"origin alias and grade", "한국산 한우 1++ 등심", []domain.AttributeTag{domain.TagDomestic, domain.TagHanwoo, domain.TagGrade1PP}},
		{"short import origin", "수입 냉동 삼겹살", []domain.AttributeTag{domain.TagImported}},
		{"first origin wins", "국산 대신 수입산", []domain.AttributeTag{domain.TagDomestic}},
		{"us origin is imported", "미국산 척롤", []domain.AttributeTag{domain.TagImported}},
		{"china origin is imported", "중국산 마늘", []domain.AttributeTag{domain.TagImported}},
		{"country origin ahead of domestic mention", "태국산 새우 (국산 아님)", []domain.AttributeTag{domain.TagImported}},
		{"unlisted country tail is not domestic", "몰도바국산 와인", []domain.AttributeTag{}},
		{"full country name", "대한민국산 쌀", []domain.AttributeTag{domain.TagDomestic}},
		{"promotion is not a grade", "콜라 1+1 행사", []domain.AttributeTag{}},
		{"single plus grade", "1+ 등급 한우", []domain.AttributeTag{domain.TagHanwoo, domain.TagGrade1P}},
		{"ascii case insensitive", "haccp 인증 어묵", []domain.AttributeTag{domain.TagHACCP}},
		{"vocabulary order", "프리미엄 유기농 무항생제 계란", []domain.AttributeTag{domain.TagOrganic, domain.TagAntibioticFree, domain.TagPremium}},
		{"repeated tag counted once", "친환경 친환경 상추", []domain.AttributeTag{domain.TagEcoFriendly}},
		{"no attributes", "양파", []domain.AttributeTag{}},
		{"empty", "", []domain.AttributeTag{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractAttributes(tc.input)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompareAttributes(t *testing.T) {
	t.Run("premium tag only on candidate", func(t *testing.T) {
		got := CompareAttributes(
			[]domain.AttributeTag{domain.TagDomestic},
			[]domain.AttributeTag{domain.TagEcoFriendly, domain.TagDomestic},
		)
		assert.Equal(t, 85.0, got.Score)
		require.Len(t, got.Mismatches, 1)
		assert.Contains(t, got.Mismatches[0], "친환경")
	})

	t.Run("origin conflict", func(t *testing.T) {
		got := CompareAttributes(
			[]domain.AttributeTag{domain.TagDomestic},
			[]domain.AttributeTag{domain.TagImported},
		)
		assert.Equal(t, 80.0, got.Score)
		require.Len(t, got.Mismatches, 1)
		assert.Contains(t, got.Mismatches[0], "원산지 불일치")
	})

	t.Run("origin on one side", func(t *testing.T) {
		got := CompareAttributes([]domain.AttributeTag{domain.TagDomestic}, nil)
		assert.Equal(t, 85.0, got.Score)
		assert.Contains(t, got.Mismatches[0], "원산지 표기 차이")

		got = CompareAttributes(nil, []domain.AttributeTag{domain.TagImported})
		assert.Equal(t, 85.0, got.Score)
	})

	t.Run("domestic query against chinese candidate", func(t *testing.T) {
		got := CompareAttributes(ExtractAttributes("국내산 깐마늘"), ExtractAttributes("중국산 깐마늘"))
		assert.Equal(t, 80.0, got.Score)
		require.Len(t, got.Mismatches, 1)
		assert.Contains(t, got.Mismatches[0], "원산지 불일치")
	})

	t.Run("identical tags", func(t *testing.T) {
		tags := []domain.AttributeTag{domain.TagDomestic, domain.TagHanwoo, domain.TagGrade1PP}
		got := CompareAttributes(tags, tags)
		assert.Equal(t, 100.0, got.Score)
		assert.NotNil(t, got.Mismatches)
		assert.Empty(t, got.Mismatches)
	})
}

func TestCompareAttributes_Monotonic(t *testing.T) {
	query := []domain.AttributeTag{domain.TagDomestic}
	var cand []domain.AttributeTag

	prev := CompareAttributes(query, cand).Score
	for _, tag := range domain.PremiumTags {
		cand = append(cand, tag)
		score := CompareAttributes(query, cand).Score
		assert.Less(t, score, prev, "adding %s should lower the score", tag)
		prev = score
	}

	// one-sided origin plus every premium tag stacks below zero
	assert.Less(t, prev, 0.0)
}

func TestFilterByAttributes(t *testing.T) {
	item := domain.InvoiceLineItem{ItemName: "양파", Spec: "국내산 1kg"}
	candidates := []domain.ScoredCandidate{
		candidate("imported", "수입 양파", "농산물", 1000, 0.9),
		candidate("exact", "국내산 양파", "농산물", 1000, 0.8),
		candidate("eco", "국내산 친환경 양파", "농산물", 1000, 0.7),
		candidate("bare", "양파", "농산물", 1000, 0.6),
	}

	primary, secondary := FilterByAttributes(item, candidates, DefaultAttributeThreshold)

	assert.Equal(t, []string{"exact"}, ids(primary))
	assert.Equal(t, []string{"eco", "bare", "imported"}, ids(secondary))
	assert.Equal(t, 100.0, primary[0].AttributeScore)
	assert.Equal(t, 80.0, secondary[2].AttributeScore)
	assert.Contains(t, secondary[2].MismatchReasons[0], "원산지 불일치")

	// inputs are left untouched
	assert.Zero(t, candidates[0].AttributeScore)
	assert.Empty(t, candidates[0].MismatchReasons)
}

func TestFilterByAttributes_Empty(t *testing.T) {
	primary, secondary := FilterByAttributes(domain.InvoiceLineItem{ItemName: "양파"}, []domain.ScoredCandidate{}, DefaultAttributeThreshold)
	assert.NotNil(t, primary)
	assert.NotNil(t, secondary)
	assert.Empty(t, primary)
	assert.Empty(t, secondary)

	primary, secondary = FilterByAttributes(domain.InvoiceLineItem{}, nil, DefaultAttributeThreshold)
	assert.Empty(t, primary)
	assert.Empty(t, secondary)
}
