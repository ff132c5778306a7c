// Package recommend executes retrieval strategies against the catalog
// and order history: the chatbot resolver, trending statistics, and the
// recommendation kinds. Zero-result branches fall back once and then
// answer with text; an empty recommendation is a valid response.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/intent"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

// Reply is the uniform chatbot response envelope.
type Reply struct {
	Intent            string            `json:"intent"`
	Message           string            `json:"message"`
	Products          []models.Product  `json:"products,omitempty"`
	Type              string            `json:"type"`
	SpecificationKeys []string          `json:"specificationKeys,omitempty"`
	Specifications    map[string]string `json:"specifications,omitempty"`
}

// Resolver turns a classified query into a reply. One strategy per
// intent; every invocation writes one audit record regardless of
// outcome.
type Resolver struct {
	classifier   intent.Classifier
	products     repository.Products
	chatQueries  repository.ChatQueries
	resultLimit  int
	compareLimit int
	log          *logrus.Entry
}

func NewResolver(classifier intent.Classifier, products repository.Products, chatQueries repository.ChatQueries, resultLimit, compareLimit int) *Resolver {
	if resultLimit <= 0 {
		resultLimit = 6
	}
	if compareLimit <= 0 {
		compareLimit = 4
	}
	return &Resolver{
		classifier:   classifier,
		products:     products,
		chatQueries:  chatQueries,
		resultLimit:  resultLimit,
		compareLimit: compareLimit,
		log:          logrus.WithField("component", "resolver"),
	}
}

// Respond classifies the query, runs the matching strategy, and records
// the audit entry. The audit write is best-effort: the reply is
// returned even if it fails.
func (r *Resolver) Respond(ctx context.Context, query string, user *primitive.ObjectID) (*Reply, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	detected, extracted, err := r.classifier.Classify(ctx, query)
	if err != nil {
		// Only possible without a fallback classifier wired in.
		return nil, fmt.Errorf("failed to classify query: %w", err)
	}

	var reply *Reply
	switch detected {
	case models.IntentCompare:
		reply, err = r.resolveCompare(ctx, query, extracted)
	case models.IntentBudget:
		reply, err = r.resolveBudget(ctx, query, extracted)
	case models.IntentCategory:
		reply, err = r.resolveCategory(ctx, query, extracted)
	case models.IntentAge:
		reply, err = r.resolveAge(ctx, query, extracted)
	case models.IntentOccasion:
		reply, err = r.resolveOccasion(ctx, query, extracted)
	case models.IntentGift:
		reply, err = r.resolveGift(ctx, query, extracted)
	case models.IntentSpecs:
		reply, err = r.resolveSpecs(ctx, query)
	default:
		reply, err = r.resolveSearch(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	reply.Intent = detected

	r.audit(ctx, user, query, reply)
	return reply, nil
}

func (r *Resolver) audit(ctx context.Context, user *primitive.ObjectID, query string, reply *Reply) {
	record := &models.ChatQuery{
		User:         user,
		Query:        query,
		Intent:       reply.Intent,
		ResponseType: reply.Type,
	}
	for _, p := range reply.Products {
		record.MatchedProducts = append(record.MatchedProducts, p.ID)
	}

	// Outlive the request: a client disconnect must not lose the record.
	if err := r.chatQueries.Insert(context.WithoutCancel(ctx), record); err != nil {
		r.log.WithError(err).Warn("failed to persist chat query audit record")
	}
}

func (r *Resolver) resolveCompare(ctx context.Context, query string, extracted intent.Extracted) (*Reply, error) {
	targets := intent.CompareTargets(query, extracted)
	if len(targets) < 2 {
		return &Reply{
			Message: "I'd be happy to compare products for you. Could you specify which products you'd like to compare?",
			Type:    models.ResponseText,
		}, nil
	}

	matches, err := r.products.SearchNames(ctx, targets, r.compareLimit)
	if err != nil {
		return nil, fmt.Errorf("comparison search failed: %w", err)
	}

	if len(matches) < 2 {
		return &Reply{
			Message: fmt.Sprintf("I couldn't find enough products to compare based on %q. Could you try with different product names?", strings.Join(targets, " and ")),
			Type:    models.ResponseText,
		}, nil
	}

	// Union of every specification key across the matched products.
	// Keys missing from some products simply render without a value.
	keySet := map[string]bool{}
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, p.Name)
		for key := range p.Specifications {
			keySet[key] = true
		}
	}
	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return &Reply{
		Message:           fmt.Sprintf("Here's a comparison of %s:", strings.Join(names, " and ")),
		Products:          matches,
		SpecificationKeys: keys,
		Type:              models.ResponseComparison,
	}, nil
}

func (r *Resolver) resolveBudget(ctx context.Context, query string, extracted intent.Extracted) (*Reply, error) {
	budget := intent.Budget(query, extracted)
	if budget == nil {
		return &Reply{
			Message: "I'd be happy to help you find products within your budget. Could you specify your budget, like 'under $100'?",
			Type:    models.ResponseText,
		}, nil
	}

	products, err := r.products.Find(ctx, repository.ProductFilter{MaxPrice: budget}, repository.SortByRating, r.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("budget search failed: %w", err)
	}

	if len(products) == 0 {
		return &Reply{
			Message: fmt.Sprintf("I couldn't find any products under $%.0f. Would you like to try a higher budget?", *budget),
			Type:    models.ResponseText,
		}, nil
	}

	return &Reply{
		Message:  fmt.Sprintf("Here are some great products under $%.0f:", *budget),
		Products: products,
		Type:     models.ResponseProductList,
	}, nil
}

func (r *Resolver) resolveCategory(ctx context.Context, query string, extracted intent.Extracted) (*Reply, error) {
	category := intent.Category(query, extracted)
	if category == "" {
		return &Reply{
			Message: "I'd be happy to show you products from a specific category. Which category are you interested in? For example: electronics, clothing, furniture, etc.",
			Type:    models.ResponseText,
		}, nil
	}

	products, err := r.products.Find(ctx, repository.ProductFilter{Category: category}, repository.SortByRating, r.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("category search failed: %w", err)
	}

	if len(products) == 0 {
		return &Reply{
			Message: fmt.Sprintf("I couldn't find any products in the %s category. Would you like to browse a different category?", category),
			Type:    models.ResponseText,
		}, nil
	}

	return &Reply{
		Message:  fmt.Sprintf("Here are some top %s products:", category),
		Products: products,
		Type:     models.ResponseProductList,
	}, nil
}

// ageFilter maps an age and optional gender to the catalog filter the
// age strategy starts from.
func ageFilter(age int, gender string) repository.ProductFilter {
	switch {
	case age <= 3:
		return repository.ProductFilter{Category: models.CategoryToys, Tags: []string{"toddler", "baby", "infant"}}
	case age <= 12:
		return repository.ProductFilter{Category: models.CategoryToys, Tags: []string{"kids", "children"}}
	case age <= 18:
		if gender == "female" {
			return repository.ProductFilter{Categories: []string{models.CategoryBeauty, models.CategoryClothing}, Tags: []string{"teen", "youth"}}
		}
		return repository.ProductFilter{Categories: []string{models.CategoryElectronics, models.CategorySports}, Tags: []string{"teen", "youth"}}
	default:
		switch gender {
		case "female":
			return repository.ProductFilter{Categories: []string{models.CategoryBeauty, models.CategoryClothing}}
		case "male":
			return repository.ProductFilter{Categories: []string{models.CategoryElectronics, models.CategorySports}}
		default:
			return repository.ProductFilter{Categories: []string{models.CategoryElectronics, models.CategoryClothing, models.CategoryBeauty}}
		}
	}
}

func (r *Resolver) resolveAge(ctx context.Context, query string, extracted intent.Extracted) (*Reply, error) {
	age := intent.Age(query, extracted)
	gender := intent.Gender(query, extracted)

	if age == nil {
		return &Reply{
			Message: "I'd be happy to recommend age-appropriate products. Could you specify the age you're shopping for?",
			Type:    models.ResponseText,
		}, nil
	}

	filter := ageFilter(*age, gender)
	products, err := r.products.Find(ctx, filter, repository.SortByRating, r.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("age search failed: %w", err)
	}

	fellBack := false
	if len(products) == 0 {
		// Retry once with the tag constraint dropped; the category stays
		// for children.
		fallback := filter
		fallback.Tags = nil
		if *age > 12 {
			fallback.Category = ""
		}

		products, err = r.products.Find(ctx, fallback, repository.SortByRating, r.resultLimit)
		if err != nil {
			return nil, fmt.Errorf("age fallback search failed: %w", err)
		}

		if len(products) == 0 {
			return &Reply{
				Message: fmt.Sprintf("I couldn't find specific products for a %d-year-old. Would you like recommendations for a different age group?", *age),
				Type:    models.ResponseText,
			}, nil
		}
		fellBack = true
	}

	// The fallback wording signals a looser match than a direct hit.
	message := fmt.Sprintf("Here are some great products for a %d-year-old%s:", *age, genderSuffix(gender))
	if fellBack {
		message = fmt.Sprintf("Here are some products that might be suitable for a %d-year-old%s:", *age, genderSuffix(gender))
	}
	return &Reply{
		Message:  message,
		Products: products,
		Type:     models.ResponseProductList,
	}, nil
}

// occasionFilter maps occasion, optional age, and optional gender to
// the fixed occasion filter table.
func occasionFilter(occasion string, age *int, gender string) repository.ProductFilter {
	switch occasion {
	case models.OccasionBirthday:
		if age != nil && *age <= 12 {
			tags := []string{"kids", "children"}
			if *age <= 3 {
				tags = []string{"toddler", "baby"}
			}
			return repository.ProductFilter{Category: models.CategoryToys, Tags: tags}
		}
		switch gender {
		case "female":
			return repository.ProductFilter{Categories: []string{models.CategoryBeauty, models.CategoryClothing}}
		case "male":
			return repository.ProductFilter{Categories: []string{models.CategoryElectronics, models.CategorySports}}
		default:
			return repository.ProductFilter{Featured: true}
		}
	case models.OccasionWedding, models.OccasionAnniversary:
		return repository.ProductFilter{
			Categories: []string{models.CategoryFurniture, models.CategoryElectronics},
			Tags:       []string{"gift", "premium", "luxury"},
		}
	case models.OccasionChristmas, models.OccasionHoliday:
		return repository.ProductFilter{Featured: true, Tags: []string{"gift", "holiday"}}
	case models.OccasionGraduation:
		return repository.ProductFilter{
			Categories: []string{models.CategoryElectronics, models.CategoryBooks},
			Tags:       []string{"gift", "premium"},
		}
	case models.OccasionValentine:
		switch gender {
		case "female":
			return repository.ProductFilter{Categories: []string{models.CategoryBeauty, models.CategoryClothing}}
		case "male":
			return repository.ProductFilter{Categories: []string{models.CategoryElectronics, models.CategoryClothing}}
		default:
			return repository.ProductFilter{Tags: []string{"gift", "romantic"}}
		}
	default:
		return repository.ProductFilter{Featured: true, Tags: []string{"gift"}}
	}
}

func (r *Resolver) resolveOccasion(ctx context.Context, query string, extracted intent.Extracted) (*Reply, error) {
	occasion := intent.Occasion(query, extracted)
	gender := intent.Gender(query, extracted)
	age := intent.Age(query, extracted)

	if occasion == "" {
		return &Reply{
			Message: "I'd be happy to suggest gifts for a special occasion. Could you specify which occasion you're shopping for?",
			Type:    models.ResponseText,
		}, nil
	}

	products, err := r.products.Find(ctx, occasionFilter(occasion, age, gender), repository.SortByRating, r.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("occasion search failed: %w", err)
	}

	if len(products) == 0 {
		products, err = r.products.Find(ctx, repository.ProductFilter{Featured: true}, repository.SortNone, r.resultLimit)
		if err != nil {
			return nil, fmt.Errorf("occasion fallback search failed: %w", err)
		}

		if len(products) == 0 {
			return &Reply{
				Message: fmt.Sprintf("I couldn't find specific products for %s. Would you like recommendations for a different occasion?", occasion),
				Type:    models.ResponseText,
			}, nil
		}

		return &Reply{
			Message:  fmt.Sprintf("I couldn't find specific products for %s, but here are some featured items that might work:", occasion),
			Products: products,
			Type:     models.ResponseProductList,
		}, nil
	}

	message := fmt.Sprintf("Here are some great gifts for %s", occasion)
	if age != nil {
		message += fmt.Sprintf(" for a %d-year-old", *age)
	}
	message += genderSuffix(gender)

	return &Reply{
		Message:  message + ":",
		Products: products,
		Type:     models.ResponseProductList,
	}, nil
}

func (r *Resolver) resolveGift(ctx context.Context, query string, extracted intent.Extracted) (*Reply, error) {
	gender := intent.Gender(query, extracted)
	age := intent.Age(query, extracted)
	occasion := intent.Occasion(query, extracted)

	minRating := 4.0
	filter := repository.ProductFilter{
		MinRating: &minRating,
		Tags:      []string{"gift"},
	}

	switch gender {
	case "female":
		filter.Categories = []string{models.CategoryBeauty, models.CategoryClothing}
	case "male":
		filter.Categories = []string{models.CategoryElectronics, models.CategorySports}
	}

	if age != nil && *age <= 12 {
		filter.Categories = nil
		filter.Category = models.CategoryToys
		if *age <= 3 {
			filter.Tags = []string{"toddler", "baby", "gift"}
		} else {
			filter.Tags = []string{"kids", "children", "gift"}
		}
	}

	if occasion != "" {
		filter.Tags = []string{occasion, "gift"}
	}

	products, err := r.products.Find(ctx, filter, repository.SortByRating, r.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("gift search failed: %w", err)
	}

	if len(products) == 0 {
		products, err = r.products.Find(ctx, repository.ProductFilter{Featured: true}, repository.SortNone, r.resultLimit)
		if err != nil {
			return nil, fmt.Errorf("gift fallback search failed: %w", err)
		}

		return &Reply{
			Message:  "Here are some featured products that would make great gifts:",
			Products: products,
			Type:     models.ResponseProductList,
		}, nil
	}

	message := "Here are some gift ideas"
	if age != nil {
		message += fmt.Sprintf(" for a %d-year-old", *age)
	}
	message += genderSuffix(gender)
	if occasion != "" {
		message += " for " + occasion
	}

	return &Reply{
		Message:  message + ":",
		Products: products,
		Type:     models.ResponseProductList,
	}, nil
}

func (r *Resolver) resolveSpecs(ctx context.Context, query string) (*Reply, error) {
	keywords := intent.SpecKeywords(query)
	if len(keywords) == 0 {
		return &Reply{
			Message: "I couldn't find a specific product matching your query. Could you provide more details about the product you're interested in?",
			Type:    models.ResponseText,
		}, nil
	}

	matches, err := r.products.TextSearch(ctx, strings.Join(keywords, " "), 1)
	if err != nil {
		return nil, fmt.Errorf("specs search failed: %w", err)
	}

	if len(matches) == 0 {
		return &Reply{
			Message: "I couldn't find a specific product matching your query. Could you provide more details about the product you're interested in?",
			Type:    models.ResponseText,
		}, nil
	}

	product := matches[0]
	return &Reply{
		Message:        fmt.Sprintf("Here are the specifications for %s:", product.Name),
		Products:       []models.Product{product},
		Specifications: product.Specifications,
		Type:           models.ResponseSpecs,
	}, nil
}

func (r *Resolver) resolveSearch(ctx context.Context, query string) (*Reply, error) {
	terms := intent.SearchTerms(query)
	if terms == "" {
		return &Reply{
			Message: "I'd be happy to help you find products. Could you provide more details about what you're looking for?",
			Type:    models.ResponseText,
		}, nil
	}

	products, err := r.products.TextSearch(ctx, terms, r.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("text search failed: %w", err)
	}

	if len(products) == 0 {
		products, err = r.products.FuzzySearch(ctx, terms, r.resultLimit)
		if err != nil {
			return nil, fmt.Errorf("fuzzy search failed: %w", err)
		}

		if len(products) == 0 {
			return &Reply{
				Message: "I couldn't find specific products matching your query. Try asking about specific categories, products, or features you're interested in.",
				Type:    models.ResponseText,
			}, nil
		}
	}

	return &Reply{
		Message:  "Here are some products related to your search:",
		Products: products,
		Type:     models.ResponseProductList,
	}, nil
}

func genderSuffix(gender string) string {
	if gender == "" {
		return ""
	}
	return " " + gender
}
