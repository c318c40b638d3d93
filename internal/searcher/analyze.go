package searcher

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dshills/recipesearch/pkg/types"
)

const maxSuggestions = 10

// commonKeywords seeds keyword suggestions. The first entries double as
// the default suggestions for an empty prefix.
var commonKeywords = []string{
	"egg", "rice", "fish", "meat", "tofu", "vegetable", "noodle", "soup", "miso", "soy sauce",
	"dashi", "sugar", "salt", "vinegar", "oil", "chicken", "pork", "beef", "shrimp", "seafood",
	"mushroom", "radish", "seaweed", "sweet", "dessert", "grilled", "simmered", "steamed", "fried",
	"stir-fried", "spring", "summer", "autumn", "winter", "seasonal",
	"だし", "醤油", "味噌", "砂糖", "塩", "酢", "油", "魚", "肉", "野菜", "豆腐", "米", "麺",
	"煮る", "焼く", "蒸す", "揚げる", "炒める", "春", "夏", "秋", "冬", "季節",
}

// analysisVocabulary holds the ingredient and technique words AnalyzeQuery
// extracts.
var analysisVocabulary = []string{
	"egg", "rice", "fish", "meat", "tofu", "vegetable", "noodle", "chicken", "pork", "beef",
	"shrimp", "seafood", "mushroom", "radish", "seaweed", "dashi", "miso", "sugar", "oil",
	"grilled", "simmered", "steamed", "fried",
	"だし", "魚", "肉", "野菜", "豆腐", "油", "砂糖", "煮る", "焼く", "蒸す", "揚げる",
}

var negationWords = map[string]bool{
	"without": true, "no": true, "not": true, "non": true, "minus": true, "exclude": true, "excluding": true,
}

// Words that end the reach of a preceding negation.
var negationBreaks = map[string]bool{
	"with": true, "but": true, "using": true, "has": true, "have": true, "including": true,
}

// Japanese negation follows the noun: 肉抜き, 肉なし, 肉を使わない.
var negationSuffixes = []string{"抜き", "ぬき", "なし", "無し", "を使わない", "を含まない", "を除く", "は除く", "以外"}

// SuggestKeywords returns up to ten common keywords containing partial,
// ignoring case. With no match, or an empty partial, it returns the most
// common keywords.
func (s *Searcher) SuggestKeywords(partial string) []string {
	return SuggestKeywords(partial)
}

// SuggestKeywords is the stateless form of Searcher.SuggestKeywords.
func SuggestKeywords(partial string) []string {
	partial = strings.ToLower(strings.TrimSpace(partial))
	var out []string
	if partial != "" {
		for _, kw := range commonKeywords {
			if strings.Contains(kw, partial) {
				out = append(out, kw)
				if len(out) == maxSuggestions {
					break
				}
			}
		}
	}
	if len(out) == 0 {
		out = append(out, commonKeywords[:maxSuggestions]...)
	}
	return out
}

// AnalyzeQuery extracts suggested required and excluded keywords from free
// text. A keyword is excluded when a negation precedes it ("without meat")
// or a Japanese negating suffix follows it ("肉抜き").
func (s *Searcher) AnalyzeQuery(text string) types.QueryAnalysis {
	return AnalyzeQuery(text)
}

// AnalyzeQuery is the stateless form of Searcher.AnalyzeQuery.
func AnalyzeQuery(text string) types.QueryAnalysis {
	query := strings.TrimSpace(text)
	lower := strings.ToLower(query)

	analysis := types.QueryAnalysis{
		OriginalQuery:    text,
		RequiredKeywords: []string{},
		ExcludedKeywords: []string{},
		SemanticQuery:    query,
	}

	for _, kw := range analysisVocabulary {
		idx, ok := findKeyword(lower, kw)
		if !ok {
			continue
		}
		if negated(lower, idx, idx+len(kw)) {
			analysis.ExcludedKeywords = append(analysis.ExcludedKeywords, kw)
		} else {
			analysis.RequiredKeywords = append(analysis.RequiredKeywords, kw)
		}
	}

	n := len(analysis.RequiredKeywords) + len(analysis.ExcludedKeywords)
	analysis.Confidence = min(0.8, 0.2*float64(n))
	switch {
	case n > 3:
		analysis.Complexity = "complex"
	case n > 1:
		analysis.Complexity = "moderate"
	default:
		analysis.Complexity = "simple"
	}
	if n == 0 {
		analysis.SuggestedMode = types.ModeVectorOnly
	} else {
		analysis.SuggestedMode = types.ModeCascade
	}
	return analysis
}

// findKeyword locates kw in text. ASCII keywords must sit on word
// boundaries so "egg" does not match "eggplant"; other scripts have no
// spaces and match anywhere.
func findKeyword(text, kw string) (int, bool) {
	ascii := isASCII(kw)
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], kw)
		if i < 0 {
			return 0, false
		}
		start, end := from+i, from+i+len(kw)
		if !ascii || (boundary(text, start-1, true) && boundary(text, end, false)) {
			return start, true
		}
		from = start + 1
	}
	return 0, false
}

func boundary(text string, i int, before bool) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	var r rune
	if before {
		r, _ = utf8.DecodeLastRuneInString(text[:i+1])
	} else {
		r, _ = utf8.DecodeRuneInString(text[i:])
	}
	// A plural "s" still counts as the keyword.
	if !before && r == 's' {
		return boundary(text, i+1, false)
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func negated(text string, start, end int) bool {
	rest := text[end:]
	for _, suffix := range negationSuffixes {
		if strings.HasPrefix(rest, suffix) {
			return true
		}
	}

	words := strings.FieldsFunc(text[:start], func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
	for i := len(words) - 1; i >= 0 && i >= len(words)-3; i-- {
		w := strings.Trim(words[i], ".;:!?\"'()")
		if negationWords[w] {
			return true
		}
		if negationBreaks[w] {
			return false
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
