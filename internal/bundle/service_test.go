package bundle

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/config"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

// stubBundles holds curated bundles in memory.
type stubBundles struct {
	bundles []models.Bundle
}

func (s *stubBundles) FindActiveByMainProduct(ctx context.Context, product primitive.ObjectID, limit int) ([]models.Bundle, error) {
	var out []models.Bundle
	for _, b := range s.bundles {
		if b.IsActive && b.MainProduct.Product == product {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubBundles) FindActiveByCategory(ctx context.Context, category string, limit int) ([]models.Bundle, error) {
	var out []models.Bundle
	for _, b := range s.bundles {
		if b.IsActive && b.MainProduct.Category == category {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubBundles) FindActive(ctx context.Context, limit int) ([]models.Bundle, error) {
	var out []models.Bundle
	for _, b := range s.bundles {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubBundles) Insert(ctx context.Context, bundle *models.Bundle) error {
	s.bundles = append(s.bundles, *bundle)
	return nil
}

// stubProducts is a minimal in-memory catalog.
type stubProducts struct {
	catalog []models.Product
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
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Featured && !p.IsFeatured {
		return false
	}
	if f.InStock && p.Stock <= 0 {
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
	return nil, nil
}

func (s *stubProducts) TextSearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProducts) FuzzySearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProducts) SearchNames(ctx context.Context, names []string, limit int) ([]models.Product, error) {
	return nil, nil
}

func (s *stubProducts) Count(ctx context.Context, filter repository.ProductFilter) (int64, error) {
	return int64(len(s.catalog)), nil
}

func (s *stubProducts) Insert(ctx context.Context, products ...models.Product) error {
	s.catalog = append(s.catalog, products...)
	return nil
}

type memBackend struct {
	data map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]string)}
}

func (b *memBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := b.data[key]
	return v, ok, nil
}

func (b *memBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	b.data[key] = value
	return nil
}

func (b *memBackend) Keys(ctx context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (b *memBackend) Delete(ctx context.Context, keys ...string) (int64, error) {
	var removed int64
	for _, k := range keys {
		if _, ok := b.data[k]; ok {
			delete(b.data, k)
			removed++
		}
	}
	return removed, nil
}

func (b *memBackend) Incr(ctx context.Context, key string) (int64, error) {
	n, _ := strconv.ParseInt(b.data[key], 10, 64)
	n++
	b.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (b *memBackend) Expire(ctx context.Context, key string, ttl time.Duration) error { return nil }

func (b *memBackend) ZIncrBy(ctx context.Context, key, member string, delta float64) error {
	return nil
}

func (b *memBackend) ZTop(ctx context.Context, key string, count int64) ([]string, error) {
	return nil, nil
}

func (b *memBackend) Ping(ctx context.Context) error { return nil }

func product(name, category string, price float64, featured bool) models.Product {
	return models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Category:    category,
		Price:       price,
		Rating:      4.5,
		Stock:       5,
		IsFeatured:  featured,
		IsPublished: true,
	}
}

func defaultConfig() *config.BundleConfig {
	return &config.BundleConfig{Discount: 0.1, CacheTTL: 30 * time.Minute}
}

func TestSynthesizedBundlePriceMath(t *testing.T) {
	main := product("Camera", models.CategoryElectronics, 100, false)
	complement := product("Camera Bag", models.CategoryOther, 80, false)
	products := &stubProducts{catalog: []models.Product{main, complement}}

	svc := NewService(products, &stubBundles{}, cache.NewStore(newMemBackend()), defaultConfig())

	bundles, err := svc.List(context.Background(), Query{Product: &main.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, bundles, 1)

	b := bundles[0]
	assert.Equal(t, 180.0, b.IndividualTotal)
	assert.Equal(t, 162.0, b.BundlePrice)
	assert.Equal(t, 18.0, b.Savings)
	assert.Equal(t, 10.0, b.SavingsPercentage)
	assert.True(t, b.Synthetic())
	assert.Equal(t, models.SyntheticBundlePrefix+main.ID.Hex(), b.ID)
	assert.Equal(t, "Camera Bundle", b.Name)
}

func TestSynthesisExcludesSameCategoryAndFarPrices(t *testing.T) {
	main := product("Camera", models.CategoryElectronics, 100, false)
	sameCategory := product("Other Camera", models.CategoryElectronics, 90, false)
	tooCheap := product("Sticker", models.CategoryOther, 2, false)
	tooExpensive := product("Sofa", models.CategoryFurniture, 900, false)
	fits := product("Camera Bag", models.CategoryOther, 60, false)
	products := &stubProducts{catalog: []models.Product{main, sameCategory, tooCheap, tooExpensive, fits}}

	svc := NewService(products, &stubBundles{}, cache.NewStore(newMemBackend()), defaultConfig())

	bundles, err := svc.List(context.Background(), Query{Product: &main.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	require.Len(t, bundles[0].RelatedProducts, 1)
	assert.Equal(t, "Camera Bag", bundles[0].RelatedProducts[0].Name)
}

func TestCuratedBundlesWinOverSynthesis(t *testing.T) {
	main := product("Camera", models.CategoryElectronics, 100, false)
	products := &stubProducts{catalog: []models.Product{main}}

	curated := models.Bundle{
		ID:          primitive.NewObjectID().Hex(),
		Name:        "Staff Pick",
		MainProduct: models.BundleProduct{Product: main.ID, Category: main.Category},
		IsActive:    true,
	}
	bundleRepo := &stubBundles{bundles: []models.Bundle{curated}}

	svc := NewService(products, bundleRepo, cache.NewStore(newMemBackend()), defaultConfig())

	bundles, err := svc.List(context.Background(), Query{Product: &main.ID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, bundles, 1)
	assert.Equal(t, "Staff Pick", bundles[0].Name)
	assert.False(t, bundles[0].Synthetic())
}

func TestListUnknownProductReturnsEmpty(t *testing.T) {
	svc := NewService(&stubProducts{}, &stubBundles{}, cache.NewStore(newMemBackend()), defaultConfig())

	missing := primitive.NewObjectID()
	bundles, err := svc.List(context.Background(), Query{Product: &missing, Limit: 3})
	require.NoError(t, err)
	assert.Empty(t, bundles)
}

func TestCreatePersistsAndInvalidates(t *testing.T) {
	main := product("Camera", models.CategoryElectronics, 100, false)
	related := product("Camera Bag", models.CategoryOther, 50, false)
	products := &stubProducts{catalog: []models.Product{main, related}}
	bundleRepo := &stubBundles{}
	backend := newMemBackend()
	backend.data["products:bundles:x:_:3"] = "[]"

	svc := NewService(products, bundleRepo, cache.NewStore(backend), defaultConfig())

	created, err := svc.Create(context.Background(), CreateRequest{
		Name:               "Photo Starter",
		MainProduct:        main.ID,
		RelatedProducts:    []primitive.ObjectID{related.ID},
		DiscountPercentage: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, "Photo Starter", created.Name)
	assert.Equal(t, 150.0, created.IndividualTotal)
	assert.Equal(t, 120.0, created.BundlePrice)
	assert.Equal(t, 30.0, created.Savings)
	assert.Equal(t, 20.0, created.SavingsPercentage)
	assert.True(t, created.IsActive)
	assert.False(t, created.Synthetic())

	require.Len(t, bundleRepo.bundles, 1)
	assert.NotContains(t, backend.data, "products:bundles:x:_:3", "bundle cache must be invalidated")
}

func TestCreateRejectsUnknownProducts(t *testing.T) {
	main := product("Camera", models.CategoryElectronics, 100, false)
	products := &stubProducts{catalog: []models.Product{main}}

	svc := NewService(products, &stubBundles{}, cache.NewStore(newMemBackend()), defaultConfig())

	_, err := svc.Create(context.Background(), CreateRequest{
		Name:            "Broken",
		MainProduct:     primitive.NewObjectID(),
		RelatedProducts: []primitive.ObjectID{primitive.NewObjectID()},
	})
	assert.ErrorIs(t, err, ErrMainProductNotFound)

	_, err = svc.Create(context.Background(), CreateRequest{
		Name:            "Broken",
		MainProduct:     main.ID,
		RelatedProducts: []primitive.ObjectID{primitive.NewObjectID()},
	})
	assert.ErrorIs(t, err, ErrRelatedProductNotFound)
}
