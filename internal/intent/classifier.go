// Package intent turns free-text shopping queries into a classified
// intent plus the structured parameters the resolver needs. The primary
// classifier asks a text-generation model; a deterministic keyword
// classifier backs it so classification never fails.
package intent

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Extracted carries the structured parameters pulled from a query.
// Fields are best-effort: the resolver re-derives anything missing from
// the raw query, so an empty Extracted is never an error.
type Extracted struct {
	Budget   *float64 `json:"budget,omitempty"`
	Age      *int     `json:"age,omitempty"`
	Category string   `json:"category,omitempty"`
	Occasion string   `json:"occasion,omitempty"`
	Gender   string   `json:"gender,omitempty"`
	Products []string `json:"products,omitempty"`
}

// Classifier maps a query to an intent and extracted parameters.
type Classifier interface {
	Classify(ctx context.Context, query string) (string, Extracted, error)
}

// fallbackClassifier tries the primary classifier and falls back on any
// error. With a KeywordClassifier fallback the combined classifier
// never fails.
type fallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	log      *logrus.Entry
}

// WithFallback wraps primary so that any classification error is
// recovered through fallback.
func WithFallback(primary, fallback Classifier) Classifier {
	return &fallbackClassifier{
		primary:  primary,
		fallback: fallback,
		log:      logrus.WithField("component", "classifier"),
	}
}

func (c *fallbackClassifier) Classify(ctx context.Context, query string) (string, Extracted, error) {
	intent, extracted, err := c.primary.Classify(ctx, query)
	if err == nil {
		return intent, extracted, nil
	}

	c.log.WithError(err).Warn("primary classifier failed, using fallback")
	return c.fallback.Classify(ctx, query)
}
