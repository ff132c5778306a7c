package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dmarceau/cartwise/internal/models"
)

// The AI extraction is heuristically parsed text and occasionally
// empty, so every extractor here accepts the structured field when
// present and otherwise re-derives the value from the raw query. The
// regex path is a required safety net, not a pure fallback.

var (
	budgetQueryRegex = regexp.MustCompile(`(?i)under\s*\$?(\d+(?:\.\d+)?)`)
	budgetDataRegex  = regexp.MustCompile(`\$?(\d+(?:\.\d+)?)`)
	ageRegex         = regexp.MustCompile(`(?i)(\d+)[\s-]*(?:year|yr)s?[\s-]*old`)
	ageDataRegex     = regexp.MustCompile(`(?i)(\d+)[\s-]*(?:year|yr)`)
	femaleRegex      = regexp.MustCompile(`(?i)\b(female|girl|girls|women|woman|her|wife|girlfriend|mom|mother|daughter|sister)\b`)
	maleRegex        = regexp.MustCompile(`(?i)\b(male|boy|boys|men|man|him|husband|boyfriend|dad|father|son|brother)\b`)
	vsRegex          = regexp.MustCompile(`(?i)^(.+?)\s+(?:vs\.?|versus)\s+(.+)$`)
	compareRegex     = regexp.MustCompile(`(?i)compare\s+(.+?)\s+(?:and|with|to)\s+(.+)$`)
)

// Budget returns the price ceiling, preferring the AI-extracted value.
func Budget(query string, extracted Extracted) *float64 {
	if extracted.Budget != nil && *extracted.Budget > 0 {
		return extracted.Budget
	}

	if m := budgetQueryRegex.FindStringSubmatch(query); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	return nil
}

// Age returns the shopping-target age, preferring the AI-extracted
// value.
func Age(query string, extracted Extracted) *int {
	if extracted.Age != nil && *extracted.Age > 0 {
		return extracted.Age
	}

	if m := ageRegex.FindStringSubmatch(query); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return &v
		}
	}
	return nil
}

// Category returns the first recognized category mentioned in the
// query, preferring the AI-extracted value.
func Category(query string, extracted Extracted) string {
	if extracted.Category != "" {
		return strings.ToLower(extracted.Category)
	}
	return matchVocabulary(query, models.Categories)
}

// Occasion returns the first recognized occasion keyword, preferring
// the AI-extracted value.
func Occasion(query string, extracted Extracted) string {
	if extracted.Occasion != "" {
		return strings.ToLower(extracted.Occasion)
	}
	return matchVocabulary(query, models.Occasions)
}

// Gender returns "female", "male", or "". Female synonyms are checked
// first so words like "woman" are not shadowed by the "man" substring.
func Gender(query string, extracted Extracted) string {
	if extracted.Gender != "" {
		return strings.ToLower(extracted.Gender)
	}

	if femaleRegex.MatchString(query) {
		return "female"
	}
	if maleRegex.MatchString(query) {
		return "male"
	}
	return ""
}

// CompareTargets returns the product names to compare, preferring the
// AI-extracted list. Fewer than two targets means the query was not a
// usable comparison.
func CompareTargets(query string, extracted Extracted) []string {
	if len(extracted.Products) >= 2 {
		return extracted.Products
	}

	if m := vsRegex.FindStringSubmatch(query); m != nil {
		return []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
	}
	if m := compareRegex.FindStringSubmatch(query); m != nil {
		return []string{strings.TrimSpace(m[1]), strings.TrimSpace(m[2])}
	}
	return nil
}

var specStopwords = map[string]bool{
	"what": true, "tell": true, "about": true, "specs": true,
	"specifications": true, "features": true, "details": true,
}

var searchStopwords = map[string]bool{
	"show": true, "find": true, "get": true, "give": true,
	"want": true, "need": true, "looking": true, "search": true,
}

// SpecKeywords extracts the content-bearing tokens of a specification
// question: longer than three characters and not instruction words.
func SpecKeywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(query) {
		cleaned := strings.Trim(strings.ToLower(word), ".,!?\"'")
		if len(cleaned) > 3 && !specStopwords[cleaned] {
			keywords = append(keywords, cleaned)
		}
	}
	return keywords
}

// SearchTerms strips short tokens and instruction words for the general
// search path.
func SearchTerms(query string) string {
	var terms []string
	for _, word := range strings.Fields(query) {
		cleaned := strings.Trim(strings.ToLower(word), ".,!?\"'")
		if len(cleaned) > 2 && !searchStopwords[cleaned] {
			terms = append(terms, cleaned)
		}
	}
	return strings.Join(terms, " ")
}

func matchVocabulary(text string, vocabulary []string) string {
	lower := strings.ToLower(text)
	for _, word := range vocabulary {
		if strings.Contains(lower, word) {
			return word
		}
	}
	return ""
}

// parseDataLine pulls structured parameters out of the free-form Data
// line the model is asked to emit.
func parseDataLine(data string) Extracted {
	var extracted Extracted

	if m := budgetDataRegex.FindStringSubmatch(data); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			extracted.Budget = &v
		}
	}

	if m := ageDataRegex.FindStringSubmatch(data); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			extracted.Age = &v
			// A bare number followed by "year" is an age, not a budget.
			extracted.Budget = nil
		}
	}

	extracted.Category = matchVocabulary(data, models.Categories)
	extracted.Occasion = matchVocabulary(data, models.Occasions)
	extracted.Gender = Gender(data, Extracted{})

	lower := strings.ToLower(data)
	if strings.Contains(lower, " vs ") || strings.Contains(lower, "compare") {
		parts := regexp.MustCompile(`(?i)\s+vs\.?\s+|\s+and\s+|\s+or\s+|\s*compare\s+`).Split(data, -1)
		var products []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				products = append(products, p)
			}
		}
		if len(products) >= 2 {
			extracted.Products = products
		}
	}

	return extracted
}
