package generate

import (
	"context"
	"strings"

	"github.com/dmarceau/cartwise/internal/types"
)

// MockGenerator answers classification prompts without a network call.
// It inspects the quoted query inside the prompt and produces the same
// "Intent: / Data:" shape a real model is asked for, which keeps local
// development and tests deterministic.
type MockGenerator struct {
	model string
}

func NewMockGenerator(model string) *MockGenerator {
	return &MockGenerator{model: model}
}

func (g *MockGenerator) Complete(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	// Only the quoted query matters; the surrounding prompt text
	// mentions every intent name and would match everything.
	query := quotedQuery(prompt)
	lower := strings.ToLower(query)

	switch {
	case strings.Contains(lower, " vs ") || strings.Contains(lower, "compare"):
		return "Intent: compare\nData: " + query, nil
	case strings.Contains(lower, "birthday") || strings.Contains(lower, "wedding") ||
		strings.Contains(lower, "anniversary") || strings.Contains(lower, "christmas") ||
		strings.Contains(lower, "graduation") || strings.Contains(lower, "valentine"):
		return "Intent: occasion\nData: " + query, nil
	case strings.Contains(lower, "gift") || strings.Contains(lower, "present"):
		return "Intent: gift\nData: " + query, nil
	case strings.Contains(lower, "under $") || strings.Contains(lower, "budget"):
		return "Intent: budget\nData: " + query, nil
	case strings.Contains(lower, "year") || strings.Contains(lower, " old"):
		return "Intent: age\nData: " + query, nil
	case strings.Contains(lower, "spec") || strings.Contains(lower, "feature"):
		return "Intent: specs\nData: " + query, nil
	case strings.Contains(lower, "show me") || strings.Contains(lower, "category"):
		return "Intent: category\nData: " + query, nil
	default:
		return "Intent: search\nData: " + query, nil
	}
}

// quotedQuery pulls the user query back out of the prompt so the Data
// line carries the same text the extractors would see.
func quotedQuery(prompt string) string {
	start := strings.Index(prompt, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(prompt[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return prompt[start+1 : start+1+end]
}

func (g *MockGenerator) Model() string {
	return g.model + "-mock"
}

// Compile-time interface check
var _ types.Generator = (*MockGenerator)(nil)
