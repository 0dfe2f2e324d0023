package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/junhee/namecard-go/internal/domain"
)

// Patterns compiled once at package init.
var (
	koreanNamePattern  = regexp.MustCompile(`^[가-힣]{2,4}$`)
	englishNamePattern = regexp.MustCompile(`^[A-Za-z]{2,}\s+[A-Za-z]{2,}$`)

	// Priority order: mobile prefixes, then landline area codes, then a
	// generic shape. First pattern that matches anywhere wins.
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:010|011|016|017|018|019)[-\s]?\d{3,4}[-\s]?\d{4}`),
		regexp.MustCompile(`(?:02|0[3-6][1-4])[-\s]?\d{3,4}[-\s]?\d{4}`),
		regexp.MustCompile(`\d{2,3}[-\s]?\d{3,4}[-\s]?\d{4}`),
	}

	emailPattern      = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneShapePattern = regexp.MustCompile(`\d{2,3}-\d{3,4}-\d{4}`)
)

var titleKeywords = []string{
	"대표", "사장", "부사장", "전무", "상무", "이사", "부장", "차장", "과장", "팀장",
	"매니저", "주임", "대리", "사원", "연구원", "개발자", "엔지니어", "디자이너",
	"CEO", "CTO", "CIO", "CFO", "COO", "President", "Director", "Manager",
	"Lead", "Senior", "Junior", "Developer", "Engineer", "Designer",
}

var companyKeywords = []string{
	"주식회사", "(주)", "㈜", "유한회사", "(유)", "법인", "기업", "그룹", "컴퍼니",
	"Company", "Corp", "Corporation", "Inc", "Ltd", "Limited", "LLC",
}

var addressKeywords = []string{
	"시", "구", "군", "동", "로", "길", "번지", "층", "호", "대로",
}

// RegexExtractor is the deterministic rule-based field extractor. It is both
// the single-sided primary strategy when no structuring service is available
// and the last-resort fallback when structured extraction exhausts its
// retries.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract runs the six field rules independently over the token list. An
// empty token list yields an all-empty record, never an error. Tokens are
// not consumed: one token may satisfy several rules.
func (e *RegexExtractor) Extract(tokens []string) domain.ContactFields {
	trimmed := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if t := strings.TrimSpace(tok); t != "" {
			trimmed = append(trimmed, t)
		}
	}

	fullText := strings.Join(trimmed, " ")

	return domain.ContactFields{
		Name:    extractName(trimmed),
		Title:   extractByKeyword(trimmed, titleKeywords),
		Company: extractCompany(trimmed),
		Phone:   extractPhone(fullText),
		Email:   extractEmail(fullText),
		Address: extractAddress(trimmed),
	}
}

// ExtractText is the full-text variant used by the agents' fallback path,
// where only the joined OCR text survives.
func (e *RegexExtractor) ExtractText(rawText string) domain.ContactFields {
	return e.Extract(strings.Fields(rawText))
}

func extractName(tokens []string) string {
	for _, tok := range tokens {
		if koreanNamePattern.MatchString(tok) || englishNamePattern.MatchString(tok) {
			return tok
		}
	}
	// Cards usually lead with the name; better a guess than nothing.
	if len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

func extractByKeyword(tokens []string, keywords []string) string {
	for _, tok := range tokens {
		for _, kw := range keywords {
			if strings.Contains(tok, kw) {
				return tok
			}
		}
	}
	return ""
}

func extractCompany(tokens []string) string {
	if match := extractByKeyword(tokens, companyKeywords); match != "" {
		return match
	}

	// No keyword hit: the longest token that is neither an email nor a
	// phone number is the best company guess. Length is counted in runes,
	// not bytes, so Korean tokens compete fairly. Ties keep the first.
	best := ""
	bestLen := 0
	for _, tok := range tokens {
		if strings.Contains(tok, "@") || phoneShapePattern.MatchString(tok) {
			continue
		}
		if n := utf8.RuneCountInString(tok); n > bestLen {
			best = tok
			bestLen = n
		}
	}
	return best
}

func extractPhone(fullText string) string {
	for _, pattern := range phonePatterns {
		if match := pattern.FindString(fullText); match != "" {
			return NormalizePhone(match)
		}
	}
	return ""
}

func extractEmail(fullText string) string {
	if match := emailPattern.FindString(fullText); match != "" {
		return strings.ToLower(match)
	}
	return ""
}

func extractAddress(tokens []string) string {
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) <= 10 {
			continue
		}
		for _, kw := range addressKeywords {
			if strings.Contains(tok, kw) {
				return tok
			}
		}
	}
	return ""
}
