package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/types"
)

var (
	intentLineRegex = regexp.MustCompile(`(?i)Intent:\s*(\w+)`)
	dataLineRegex   = regexp.MustCompile(`(?i)Data:\s*(.*?)(?:\n|$)`)
)

// AIClassifier asks a text-generation model to classify the query. The
// model's reply is instructed text, not an API contract: an
// unrecognized intent degrades to "search" and a missing Data line
// yields an empty extraction.
type AIClassifier struct {
	generator types.Generator
	timeout   time.Duration
}

func NewAIClassifier(generator types.Generator, timeout time.Duration) *AIClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AIClassifier{generator: generator, timeout: timeout}
}

func (c *AIClassifier) Classify(ctx context.Context, query string) (string, Extracted, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	response, err := c.generator.Complete(ctx, buildClassifyPrompt(query), map[string]any{
		"max_tokens":  100,
		"temperature": 0.2,
	})
	if err != nil {
		return "", Extracted{}, fmt.Errorf("classification call failed: %w", err)
	}

	intent := models.IntentSearch
	if m := intentLineRegex.FindStringSubmatch(response); m != nil {
		if candidate := strings.ToLower(m[1]); knownIntent(candidate) {
			intent = candidate
		}
	}

	var extracted Extracted
	if m := dataLineRegex.FindStringSubmatch(response); m != nil {
		extracted = parseDataLine(m[1])
	}

	return intent, extracted, nil
}

func knownIntent(candidate string) bool {
	for _, intent := range models.Intents {
		if intent == candidate {
			return true
		}
	}
	return false
}

func buildClassifyPrompt(query string) string {
	var prompt strings.Builder

	prompt.WriteString("Analyze this shopping query and extract the intent and data.\n")
	prompt.WriteString(fmt.Sprintf("Query: %q\n\n", query))

	prompt.WriteString("Possible intents:\n")
	prompt.WriteString("- compare: User wants to compare products\n")
	prompt.WriteString("- gift: User is looking for a gift\n")
	prompt.WriteString("- budget: User has a specific budget\n")
	prompt.WriteString("- category: User is browsing a category\n")
	prompt.WriteString("- age: User is shopping for a specific age group\n")
	prompt.WriteString("- occasion: User is shopping for a specific occasion\n")
	prompt.WriteString("- specs: User is asking about product specifications\n")
	prompt.WriteString("- search: General product search\n\n")

	prompt.WriteString("Format your response as:\n")
	prompt.WriteString("Intent: [intent]\n")
	prompt.WriteString("Data: [extracted data like budget amount, category, age, etc.]\n")

	return prompt.String()
}

// Compile-time interface check
var _ Classifier = (*AIClassifier)(nil)
