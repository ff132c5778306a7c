package recommend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/intent"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

// stubProducts serves a fixed catalog and records the filters it was
// queried with.
type stubProducts struct {
	catalog     []models.Product
	lastFilter  repository.ProductFilter
	findFilters []repository.ProductFilter
}

func (s *stubProducts) matches(p models.Product, f repository.ProductFilter) bool {
	if !f.IncludeUnpublished && !p.IsPublished {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.ExcludeCategory != "" && p.Category == f.ExcludeCategory {
		return false
	}
	if len(f.Categories) > 0 {
		ok := false
		for _, c := range f.Categories {
			if p.Category == c {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	if len(f.Tags) > 0 {
		ok := false
		for _, want := range f.Tags {
			for _, tag := range p.Tags {
				if tag == want {
					ok = true
				}
			}
		}
		if !ok {
			return false
		}
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.Featured && !p.IsFeatured {
		return false
	}
	if f.InStock && p.Stock <= 0 {
		return false
	}
	if f.HasReviews && p.ReviewCount == 0 {
		return false
	}
	if len(f.IDs) > 0 {
		ok := false
		for _, id := range f.IDs {
			if p.ID == id {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	for _, id := range f.ExcludeIDs {
		if p.ID == id {
			return false
		}
	}
	return true
}

func (s *stubProducts) Find(ctx context.Context, filter repository.ProductFilter, sort repository.Sort, limit int) ([]models.Product, error) {
	s.lastFilter = filter
	s.findFilters = append(s.findFilters, filter)
	var out []models.Product
	for _, p := range s.catalog {
		if s.matches(p, filter) {
			out = append(out, p)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (s *stubProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	for _, p := range s.catalog {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubProducts) FindRanked(ctx context.Context, ids []primitive.ObjectID, filter repository.ProductFilter, limit int) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		for _, p := range s.catalog {
			if p.ID == id && s.matches(p, filter) {
				out = append(out, p)
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubProducts) TextSearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.catalog {
		if !p.IsPublished {
			continue
		}
		for _, term := range strings.Fields(terms) {
			if strings.Contains(strings.ToLower(p.Name+" "+p.Description), term) {
				out = append(out, p)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubProducts) FuzzySearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	return s.TextSearch(ctx, terms, limit)
}

func (s *stubProducts) SearchNames(ctx context.Context, names []string, limit int) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.catalog {
		for _, name := range names {
			if strings.Contains(strings.ToLower(p.Name), strings.ToLower(name)) {
				out = append(out, p)
				break
			}
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *stubProducts) Count(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	found, _ := s.Find(ctx, filter, repository.SortNone, 0)
	return int64(len(found)), nil
}

func (s *stubProducts) Insert(ctx context.Context, products ...models.Product) error {
	s.catalog = append(s.catalog, products...)
	return nil
}

// stubOrders serves a fixed order history.
type stubOrders struct {
	orders []models.Order
}

func (s *stubOrders) FindSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrders) FindByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.User == user {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrders) FindByUsers(ctx context.Context, users []primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		for _, u := range users {
			if o.User == u {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (s *stubOrders) FindContainingProduct(ctx context.Context, product primitive.ObjectID, excludeUser *primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if excludeUser != nil && o.User == *excludeUser {
			continue
		}
		for _, item := range o.Items {
			if item.Product == product {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (s *stubOrders) FindContainingAny(ctx context.Context, products []primitive.ObjectID, excludeUser primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.User == excludeUser {
			continue
		}
	items:
		for _, item := range o.Items {
			for _, p := range products {
				if item.Product == p {
					out = append(out, o)
					break items
				}
			}
		}
	}
	return out, nil
}

func (s *stubOrders) Insert(ctx context.Context, orders ...models.Order) error {
	s.orders = append(s.orders, orders...)
	return nil
}

// stubChatQueries records audit writes.
type stubChatQueries struct {
	records []*models.ChatQuery
}

func (s *stubChatQueries) Insert(ctx context.Context, query *models.ChatQuery) error {
	s.records = append(s.records, query)
	return nil
}

func (s *stubChatQueries) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return int64(len(s.records)), nil
}

func (s *stubChatQueries) CountByIntent(ctx context.Context, since time.Time) ([]repository.IntentCount, error) {
	counts := map[string]int64{}
	for _, r := range s.records {
		counts[r.Intent]++
	}
	var out []repository.IntentCount
	for intentName, count := range counts {
		out = append(out, repository.IntentCount{Intent: intentName, Count: count})
	}
	return out, nil
}

func (s *stubChatQueries) CountByResponseType(ctx context.Context, since time.Time) ([]repository.ResponseTypeCount, error) {
	return nil, nil
}

func (s *stubChatQueries) TopQueries(ctx context.Context, since time.Time, limit int) ([]repository.QueryCount, error) {
	return nil, nil
}

func (s *stubChatQueries) TopProducts(ctx context.Context, since time.Time, limit int) ([]repository.ProductCount, error) {
	return nil, nil
}

func (s *stubChatQueries) QueriesByHour(ctx context.Context, since time.Time) ([]repository.HourCount, error) {
	return nil, nil
}

// fixedClassifier returns a canned classification.
type fixedClassifier struct {
	intent    string
	extracted intent.Extracted
}

func (c *fixedClassifier) Classify(ctx context.Context, query string) (string, intent.Extracted, error) {
	return c.intent, c.extracted, nil
}

func testProduct(name, category string, price, rating float64, tags ...string) models.Product {
	return models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Category:    category,
		Price:       price,
		Rating:      rating,
		ReviewCount: 10,
		Stock:       5,
		Tags:        tags,
		IsPublished: true,
	}
}

func TestRespondRejectsEmptyQuery(t *testing.T) {
	resolver := NewResolver(&fixedClassifier{intent: models.IntentSearch}, &stubProducts{}, &stubChatQueries{}, 6, 4)

	_, err := resolver.Respond(context.Background(), "   ", nil)
	assert.Error(t, err)
}

func TestRespondGiftForYoungChild(t *testing.T) {
	blocks := testProduct("Building Blocks", models.CategoryToys, 39.99, 4.8, "kids", "gift")
	plush := testProduct("Plush Dinosaur", models.CategoryToys, 19.99, 4.9, "toddler", "gift")
	headphones := testProduct("Headphones", models.CategoryElectronics, 149.99, 4.6, "gift")
	products := &stubProducts{catalog: []models.Product{blocks, plush, headphones}}

	age := 5
	audit := &stubChatQueries{}
	resolver := NewResolver(&fixedClassifier{
		intent:    models.IntentGift,
		extracted: intent.Extracted{Age: &age, Gender: "male"},
	}, products, audit, 6, 4)

	reply, err := resolver.Respond(context.Background(), "birthday gift for a 5 year old boy", nil)
	require.NoError(t, err)

	assert.Equal(t, models.IntentGift, reply.Intent)
	assert.Equal(t, models.ResponseProductList, reply.Type)

	// Only the toys qualify; the headphones are outside the child filter.
	require.Len(t, reply.Products, 2)
	names := []string{reply.Products[0].Name, reply.Products[1].Name}
	assert.Contains(t, names, "Building Blocks")
	assert.Contains(t, names, "Plush Dinosaur")
	assert.Contains(t, reply.Message, "5-year-old")
	assert.Contains(t, reply.Message, "male")

	// Exactly one audit record with the matched products.
	require.Len(t, audit.records, 1)
	assert.Equal(t, models.IntentGift, audit.records[0].Intent)
	assert.Len(t, audit.records[0].MatchedProducts, 2)
}

func TestRespondCompare(t *testing.T) {
	phoneA := testProduct("iPhone 15", models.CategoryElectronics, 999, 4.7)
	phoneA.Specifications = map[string]string{"Display": "6.1 in", "Chip": "A17"}
	phoneB := testProduct("Galaxy S24", models.CategoryElectronics, 899, 4.6)
	phoneB.Specifications = map[string]string{"Display": "6.2 in", "Battery": "4000 mAh"}
	products := &stubProducts{catalog: []models.Product{phoneA, phoneB}}

	resolver := NewResolver(&fixedClassifier{intent: models.IntentCompare}, products, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "iPhone 15 vs Galaxy S24", nil)
	require.NoError(t, err)

	assert.Equal(t, models.ResponseComparison, reply.Type)
	assert.Len(t, reply.Products, 2)
	// Union of spec keys across both products, sorted.
	assert.Equal(t, []string{"Battery", "Chip", "Display"}, reply.SpecificationKeys)
}

func TestRespondCompareTooFewTargets(t *testing.T) {
	resolver := NewResolver(&fixedClassifier{intent: models.IntentCompare}, &stubProducts{}, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "compare prices", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseText, reply.Type)
	assert.Empty(t, reply.Products)
}

func TestRespondBudgetNoResults(t *testing.T) {
	expensive := testProduct("Standing Desk", models.CategoryFurniture, 349.99, 4.6)
	products := &stubProducts{catalog: []models.Product{expensive}}

	resolver := NewResolver(&fixedClassifier{intent: models.IntentBudget}, products, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "furniture under $50", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseText, reply.Type)
	assert.Contains(t, reply.Message, "$50")
	assert.Empty(t, reply.Products)
}

func TestRespondBudgetFindsProducts(t *testing.T) {
	cheap := testProduct("Yoga Mat", models.CategorySports, 34.99, 4.7)
	pricey := testProduct("Standing Desk", models.CategoryFurniture, 349.99, 4.6)
	products := &stubProducts{catalog: []models.Product{cheap, pricey}}

	resolver := NewResolver(&fixedClassifier{intent: models.IntentBudget}, products, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "something under $50", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseProductList, reply.Type)
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "Yoga Mat", reply.Products[0].Name)
}

func TestRespondAgeFallbackDropsTags(t *testing.T) {
	// Toys exist but carry no age tags, so only the fallback pass hits.
	blocks := testProduct("Building Blocks", models.CategoryToys, 39.99, 4.8)
	products := &stubProducts{catalog: []models.Product{blocks}}

	age := 7
	resolver := NewResolver(&fixedClassifier{
		intent:    models.IntentAge,
		extracted: intent.Extracted{Age: &age},
	}, products, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "toys for a 7 year old", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseProductList, reply.Type)
	require.Len(t, reply.Products, 1)

	// Fallback keeps the toys category for children and softens the
	// wording so a looser match reads as one.
	require.Len(t, products.findFilters, 2)
	assert.Equal(t, models.CategoryToys, products.findFilters[1].Category)
	assert.Nil(t, products.findFilters[1].Tags)
	assert.Contains(t, reply.Message, "might be suitable for a 7-year-old")
}

func TestRespondAgeDirectMatch(t *testing.T) {
	blocks := testProduct("Building Blocks", models.CategoryToys, 39.99, 4.8, "kids")
	products := &stubProducts{catalog: []models.Product{blocks}}

	age := 7
	resolver := NewResolver(&fixedClassifier{
		intent:    models.IntentAge,
		extracted: intent.Extracted{Age: &age},
	}, products, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "toys for a 7 year old", nil)
	require.NoError(t, err)
	require.Len(t, reply.Products, 1)
	assert.Contains(t, reply.Message, "great products for a 7-year-old")
}

func TestRespondSpecs(t *testing.T) {
	headphones := testProduct("Aurora Wireless Headphones", models.CategoryElectronics, 149.99, 4.6)
	headphones.Specifications = map[string]string{"Battery Life": "30 hours"}
	products := &stubProducts{catalog: []models.Product{headphones}}

	resolver := NewResolver(&fixedClassifier{intent: models.IntentSpecs}, products, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "what are the specs of the aurora headphones", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseSpecs, reply.Type)
	require.Len(t, reply.Products, 1)
	assert.Equal(t, "30 hours", reply.Specifications["Battery Life"])
}

func TestRespondSearchNoMatches(t *testing.T) {
	resolver := NewResolver(&fixedClassifier{intent: models.IntentSearch}, &stubProducts{}, &stubChatQueries{}, 6, 4)

	reply, err := resolver.Respond(context.Background(), "quantum flux capacitor", nil)
	require.NoError(t, err)
	assert.Equal(t, models.ResponseText, reply.Type)
	assert.Empty(t, reply.Products)
}
