package llm

import (
	"fmt"

	"github.com/dmarceau/cartwise/internal/config"
	"github.com/dmarceau/cartwise/internal/llm/generate"
	"github.com/dmarceau/cartwise/internal/types"
)

// NewGenerator creates a generator based on configuration
func NewGenerator(cfg *config.LLMConfig) (types.Generator, error) {
	switch cfg.Classifier.Provider {
	case "huggingface":
		return generate.NewHuggingFaceGenerator(cfg.Classifier.Model, cfg.Classifier.APIKeyEnv, cfg.Classifier.APIKey)
	case "openai":
		return generate.NewOpenAIGenerator(cfg.Classifier.Model, cfg.Classifier.APIKeyEnv, cfg.Classifier.APIKey)
	case "mock":
		return generate.NewMockGenerator(cfg.Classifier.Model), nil
	default:
		return nil, fmt.Errorf("unsupported generator provider: %s", cfg.Classifier.Provider)
	}
}
