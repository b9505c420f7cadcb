package usecase

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pricematch/backend/internal/domain"
)

// Compiled regex patterns for query normalization
var (
	// Matches innermost parenthetical or bracketed content like "(국내산)", "[행사]", "【냉동】"
	bracketPattern = regexp.MustCompile(`\([^()]*\)|\[[^\[\]]*\]|\{[^{}]*\}|<[^<>]*>|【[^【】]*】|（[^（）]*）`)

	// Matches number+unit tokens like "1kg", "500 ml", "20개입", "6팩"
	quantityTokenPattern = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:` + unitAlternation + `)`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// spellingCorrections fixes common phonetic misspellings found in supplier
// product names. Applied in order; no replacement contains another key.
var spellingCorrections = []struct {
	from string
	to   string
}{
	{"떡볶기", "떡볶이"},
	{"돈까스", "돈가스"},
	{"쥬스", "주스"},
	{"케찹", "케첩"},
	{"케챱", "케첩"},
	{"쏘세지", "소시지"},
	{"소세지", "소시지"},
	{"후랑크", "프랑크"},
	{"바베큐", "바비큐"},
	{"마요네스", "마요네즈"},
	{"육계장", "육개장"},
	{"찌게", "찌개"},
	{"깍뚜기", "깍두기"},
	{"오뎅", "어묵"},
	{"도마도", "토마토"},
	{"초코렛", "초콜릿"},
	{"쵸콜렛", "초콜릿"},
	{"부로콜리", "브로콜리"},
	{"브로컬리", "브로콜리"},
	{"카라멜", "캐러멜"},
	{"쨈", "잼"},
}

// particleSuffixes are trailing grammatical particles, multi-rune first
var particleSuffixes = []string{
	"에서", "으로",
	"은", "는", "이", "가", "을", "를", "의", "도", "만",
}

// protectedNouns end in a particle character but are product names in their own right
var protectedNouns = []string{
	"떡볶이", "새송이", "양송이", "골뱅이", "달팽이", "김말이", "무말랭이",
	"청포도", "적포도",
	"오이", "구이", "차돌박이",
}

// minStemRunes is the shortest stem left after removing a particle
const minStemRunes = 2

// Normalize produces the keyword- and semantic-oriented variants of a raw
// product name. It never fails; empty input yields empty variants.
func Normalize(raw string) domain.NormalizedQuery {
	if strings.TrimSpace(raw) == "" {
		return domain.NormalizedQuery{}
	}

	cleaned := stripBrackets(raw)
	cleaned = quantityTokenPattern.ReplaceAllString(cleaned, " ")
	cleaned = correctSpelling(cleaned)
	cleaned = keepNameCharacters(cleaned)
	semantic := collapseSpaces(cleaned)

	tokens := strings.Fields(semantic)
	for i, token := range tokens {
		tokens[i] = stripParticles(token)
	}

	return domain.NormalizedQuery{
		ForKeyword:  strings.Join(tokens, " "),
		ForSemantic: semantic,
	}
}

// stripBrackets removes bracketed spans, innermost first, until none remain
func stripBrackets(s string) string {
	for {
		next := bracketPattern.ReplaceAllString(s, " ")
		if next == s {
			return s
		}
		s = next
	}
}

func correctSpelling(s string) string {
	for _, c := range spellingCorrections {
		s = strings.ReplaceAll(s, c.from, c.to)
	}
	return s
}

// keepNameCharacters replaces digits and anything outside Hangul, ASCII
// letters and whitespace with a space
func keepNameCharacters(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.Hangul, r):
			return r
		case r < utf8.RuneSelf && unicode.IsLetter(r):
			return r
		default:
			return ' '
		}
	}, s)
}

func collapseSpaces(s string) string {
	return strings.TrimSpace(multiSpacePattern.ReplaceAllString(s, " "))
}

// stripParticles removes trailing particles until the token is stable,
// which keeps keyword normalization idempotent
func stripParticles(token string) string {
	for {
		if isProtectedNoun(token) {
			return token
		}

		stripped := false
		for _, p := range particleSuffixes {
			if !strings.HasSuffix(token, p) {
				continue
			}
			if utf8.RuneCountInString(token)-utf8.RuneCountInString(p) < minStemRunes {
				continue
			}
			token = strings.TrimSuffix(token, p)
			stripped = true
			break
		}

		if !stripped {
			return token
		}
	}
}

func isProtectedNoun(token string) bool {
	for _, noun := range protectedNouns {
		if strings.HasSuffix(token, noun) {
			return true
		}
	}
	return false
}
