// Package bundle serves product bundles: admin-curated ones from the
// document store when present, synthesized ones otherwise.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/config"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

var (
	ErrMainProductNotFound    = errors.New("main product not found")
	ErrRelatedProductNotFound = errors.New("one or more related products not found")
)

// Query scopes a bundle lookup. Product wins over Category; with
// neither set, featured products seed the synthesis.
type Query struct {
	Product  *primitive.ObjectID
	Category string
	Limit    int
}

// CreateRequest is an admin-curated bundle. DiscountPercentage of 0
// falls back to the configured default.
type CreateRequest struct {
	Name               string
	Description        string
	MainProduct        primitive.ObjectID
	RelatedProducts    []primitive.ObjectID
	DiscountPercentage float64
}

type Service struct {
	products repository.Products
	bundles  repository.Bundles
	store    *cache.Store
	discount float64
	cacheTTL time.Duration
	log      *logrus.Entry
}

func NewService(products repository.Products, bundles repository.Bundles, store *cache.Store, cfg *config.BundleConfig) *Service {
	discount := cfg.Discount
	if discount <= 0 || discount >= 1 {
		discount = 0.1
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Service{
		products: products,
		bundles:  bundles,
		store:    store,
		discount: discount,
		cacheTTL: ttl,
		log:      logrus.WithField("component", "bundles"),
	}
}

// List returns bundles for the query scope. Curated active bundles
// take precedence; synthesis runs only when none exist. An empty
// result is valid and cached like any other.
func (s *Service) List(ctx context.Context, q Query) ([]models.Bundle, error) {
	if q.Limit <= 0 {
		q.Limit = 3
	}

	productKey := ""
	if q.Product != nil {
		productKey = q.Product.Hex()
	}
	key := fmt.Sprintf("products:bundles:%s:%s:%d", productKey, q.Category, q.Limit)

	return cache.GetOrCompute(ctx, s.store, key, s.cacheTTL, func(ctx context.Context) ([]models.Bundle, error) {
		curated, err := s.curated(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(curated) > 0 {
			return curated, nil
		}
		return s.synthesize(ctx, q)
	})
}

func (s *Service) curated(ctx context.Context, q Query) ([]models.Bundle, error) {
	switch {
	case q.Product != nil:
		return s.bundles.FindActiveByMainProduct(ctx, *q.Product, q.Limit)
	case q.Category != "":
		return s.bundles.FindActiveByCategory(ctx, q.Category, q.Limit)
	default:
		return s.bundles.FindActive(ctx, q.Limit)
	}
}

// synthesize builds one ephemeral bundle around a main product:
// the anchor when given, the top-rated product of the category when
// scoped by category, the best featured product otherwise.
func (s *Service) synthesize(ctx context.Context, q Query) ([]models.Bundle, error) {
	var (
		main    *models.Product
		related []models.Product
		err     error
	)

	switch {
	case q.Product != nil:
		main, err = s.products.FindByID(ctx, *q.Product)
		if err != nil {
			return nil, err
		}
		if main == nil {
			return []models.Bundle{}, nil
		}

		// Complementary goods: different category, comparable price.
		minPrice := main.Price * 0.5
		maxPrice := main.Price * 1.5
		related, err = s.products.Find(ctx, repository.ProductFilter{
			ExcludeIDs:      []primitive.ObjectID{main.ID},
			ExcludeCategory: main.Category,
			MinPrice:        &minPrice,
			MaxPrice:        &maxPrice,
			InStock:         true,
		}, repository.SortByRating, q.Limit)
		if err != nil {
			return nil, err
		}

	case q.Category != "":
		top, err := s.products.Find(ctx, repository.ProductFilter{Category: q.Category, InStock: true}, repository.SortByRating, 1)
		if err != nil {
			return nil, err
		}
		if len(top) == 0 {
			return []models.Bundle{}, nil
		}
		main = &top[0]

		related, err = s.products.Find(ctx, repository.ProductFilter{
			ExcludeIDs:      []primitive.ObjectID{main.ID},
			ExcludeCategory: q.Category,
			InStock:         true,
		}, repository.SortByRating, q.Limit)
		if err != nil {
			return nil, err
		}

	default:
		featured, err := s.products.Find(ctx, repository.ProductFilter{Featured: true, InStock: true}, repository.SortByRating, q.Limit+1)
		if err != nil {
			return nil, err
		}
		if len(featured) == 0 {
			return []models.Bundle{}, nil
		}
		main = &featured[0]
		related = featured[1:]
	}

	b := s.build(main, related, s.discount)
	b.ID = models.SyntheticBundlePrefix + main.ID.Hex()
	return []models.Bundle{b}, nil
}

// Create persists an admin-curated bundle and invalidates every cached
// bundle listing so the new bundle is immediately visible.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Bundle, error) {
	main, err := s.products.FindByID(ctx, req.MainProduct)
	if err != nil {
		return nil, err
	}
	if main == nil {
		return nil, ErrMainProductNotFound
	}

	related, err := s.products.Find(ctx, repository.ProductFilter{IDs: req.RelatedProducts, IncludeUnpublished: true}, repository.SortNone, 0)
	if err != nil {
		return nil, err
	}
	if len(related) != len(req.RelatedProducts) {
		return nil, ErrRelatedProductNotFound
	}

	discount := s.discount
	if req.DiscountPercentage > 0 {
		discount = req.DiscountPercentage / 100
	}

	now := time.Now().UTC()
	b := s.build(main, related, discount)
	b.ID = primitive.NewObjectID().Hex()
	b.Name = req.Name
	b.Description = req.Description
	b.IsActive = true
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := s.bundles.Insert(ctx, &b); err != nil {
		return nil, fmt.Errorf("failed to save bundle: %w", err)
	}

	if _, err := s.store.Invalidate(ctx, "products:bundles:*"); err != nil {
		s.log.WithError(err).Warn("failed to invalidate bundle cache")
	}

	s.log.WithField("name", b.Name).Info("created product bundle")
	return &b, nil
}

// build computes the price math shared by curated and synthetic
// bundles, snapshotting product fields as of now.
func (s *Service) build(main *models.Product, related []models.Product, discount float64) models.Bundle {
	individualTotal := main.Price
	for _, p := range related {
		individualTotal += p.Price
	}
	bundlePrice := math.Round(individualTotal * (1 - discount))

	relatedSnapshots := make([]models.BundleProduct, 0, len(related))
	for _, p := range related {
		relatedSnapshots = append(relatedSnapshots, snapshot(&p))
	}

	return models.Bundle{
		Name:              main.Name + " Bundle",
		MainProduct:       snapshot(main),
		RelatedProducts:   relatedSnapshots,
		IndividualTotal:   individualTotal,
		BundlePrice:       bundlePrice,
		Savings:           individualTotal - bundlePrice,
		SavingsPercentage: discount * 100,
	}
}

func snapshot(p *models.Product) models.BundleProduct {
	return models.BundleProduct{
		Product:  p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Category: p.Category,
		Images:   p.Images,
	}
}
