package intent

import (
	"context"
	"strings"

	"github.com/dmarceau/cartwise/internal/models"
)

// KeywordClassifier is the deterministic fallback: plain keyword checks
// against the raw query. It never fails; unmatched text defaults to
// "search". Parameter extraction is left to the extractors, which
// operate on the raw query anyway.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

func (c *KeywordClassifier) Classify(ctx context.Context, query string) (string, Extracted, error) {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "compare") || strings.Contains(q, " vs ") || strings.Contains(q, "versus"):
		return models.IntentCompare, Extracted{}, nil
	case strings.Contains(q, "gift") || strings.Contains(q, "present"):
		return models.IntentGift, Extracted{}, nil
	case strings.Contains(q, "under") && (strings.Contains(q, "$") || strings.Contains(q, "dollar")):
		return models.IntentBudget, Extracted{}, nil
	case strings.Contains(q, "category") || strings.Contains(q, "show me"):
		return models.IntentCategory, Extracted{}, nil
	case strings.Contains(q, "year") || strings.Contains(q, "age") || strings.Contains(q, "old"):
		return models.IntentAge, Extracted{}, nil
	case hasOccasionKeyword(q):
		return models.IntentOccasion, Extracted{}, nil
	case strings.Contains(q, "spec") || strings.Contains(q, "feature") || strings.Contains(q, "detail"):
		return models.IntentSpecs, Extracted{}, nil
	default:
		return models.IntentSearch, Extracted{}, nil
	}
}

func hasOccasionKeyword(q string) bool {
	for _, occasion := range models.Occasions {
		if strings.Contains(q, occasion) {
			return true
		}
	}
	return false
}

// Compile-time interface check
var _ Classifier = (*KeywordClassifier)(nil)
