package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

// Recommendation kinds.
const (
	KindRecommended        = "recommended"
	KindRecentlyViewed     = "recently-viewed"
	KindBoughtTogether     = "frequently-bought-together"
	KindSmartCollaborative = "smart-collaborative"
	KindSmartItemBased     = "smart-item-based"
	KindSmartTrending      = "smart-trending"
)

// ErrInvalidKind reports an unrecognized recommendation kind; the only
// client-visible error this service produces.
var ErrInvalidKind = fmt.Errorf("invalid recommendation kind")

// Params select what a recommendation is anchored on.
type Params struct {
	User           *primitive.ObjectID
	Product        *primitive.ObjectID
	RecentlyViewed []primitive.ObjectID
	Limit          int
}

// RecommendationService serves every recommendation kind over the
// catalog and order history, cached per kind.
type RecommendationService struct {
	products repository.Products
	orders   repository.Orders
	store    *cache.Store
}

func NewRecommendationService(products repository.Products, orders repository.Orders, store *cache.Store) *RecommendationService {
	return &RecommendationService{products: products, orders: orders, store: store}
}

// Recommend dispatches on kind. Zero results are a valid response;
// every kind has at least one fallback before returning empty.
func (s *RecommendationService) Recommend(ctx context.Context, kind string, params Params) ([]models.Product, error) {
	if params.Limit <= 0 {
		params.Limit = 8
	}

	s.store.IncrementCounter(ctx, "analytics:recommendations:requests", 24*time.Hour)

	switch kind {
	case KindRecommended:
		return s.recommended(ctx, params)
	case KindRecentlyViewed:
		return s.recentlyViewed(ctx, params)
	case KindBoughtTogether:
		return s.boughtTogether(ctx, params)
	case KindSmartCollaborative:
		return s.collaborative(ctx, params)
	case KindSmartItemBased:
		return s.itemBased(ctx, params)
	case KindSmartTrending:
		return s.smartTrending(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, kind)
	}
}

func (s *RecommendationService) featured(ctx context.Context, limit int) ([]models.Product, error) {
	return s.products.Find(ctx, repository.ProductFilter{Featured: true, InStock: true}, repository.SortByRating, limit)
}

func (s *RecommendationService) popular(ctx context.Context, limit int) ([]models.Product, error) {
	return s.products.Find(ctx, repository.ProductFilter{InStock: true}, repository.SortByPopularity, limit)
}

func (s *RecommendationService) recommended(ctx context.Context, params Params) ([]models.Product, error) {
	if params.User == nil {
		key := fmt.Sprintf("recommendations:featured:%d", params.Limit)
		return cache.GetOrCompute(ctx, s.store, key, time.Hour, func(ctx context.Context) ([]models.Product, error) {
			return s.featured(ctx, params.Limit)
		})
	}

	key := fmt.Sprintf("recommendations:user:%s:%d", params.User.Hex(), params.Limit)
	return cache.GetOrCompute(ctx, s.store, key, 30*time.Minute, func(ctx context.Context) ([]models.Product, error) {
		userOrders, err := s.orders.FindByUser(ctx, *params.User)
		if err != nil {
			return nil, err
		}

		purchased := purchasedProducts(userOrders)
		if len(purchased) == 0 {
			return s.featured(ctx, params.Limit)
		}

		// Recommend from the categories the user already buys in,
		// excluding what they own.
		owned, err := s.products.Find(ctx, repository.ProductFilter{IDs: purchased, IncludeUnpublished: true}, repository.SortNone, 0)
		if err != nil {
			return nil, err
		}

		categories := distinctCategories(owned)
		return s.products.Find(ctx, repository.ProductFilter{
			Categories: categories,
			ExcludeIDs: purchased,
			InStock:    true,
		}, repository.SortByRating, params.Limit)
	})
}

func (s *RecommendationService) recentlyViewed(ctx context.Context, params Params) ([]models.Product, error) {
	if len(params.RecentlyViewed) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(params.RecentlyViewed))
	for _, id := range params.RecentlyViewed {
		ids = append(ids, id.Hex())
	}
	key := fmt.Sprintf("recommendations:recently-viewed:%s:%d", strings.Join(ids, ","), params.Limit)

	return cache.GetOrCompute(ctx, s.store, key, 15*time.Minute, func(ctx context.Context) ([]models.Product, error) {
		return s.products.FindRanked(ctx, params.RecentlyViewed, repository.ProductFilter{}, params.Limit)
	})
}

func (s *RecommendationService) boughtTogether(ctx context.Context, params Params) ([]models.Product, error) {
	if params.Product == nil {
		return nil, nil
	}

	key := fmt.Sprintf("recommendations:frequently-bought:%s:%d", params.Product.Hex(), params.Limit)
	return cache.GetOrCompute(ctx, s.store, key, time.Hour, func(ctx context.Context) ([]models.Product, error) {
		ranked, err := coOccurring(ctx, s.orders, *params.Product, params.Limit)
		if err != nil {
			return nil, err
		}

		if len(ranked) > 0 {
			return s.products.FindRanked(ctx, ranked, repository.ProductFilter{InStock: true}, params.Limit)
		}

		// Nothing co-purchased yet: fall back to the anchor's category.
		anchor, err := s.products.FindByID(ctx, *params.Product)
		if err != nil || anchor == nil {
			return nil, err
		}
		return s.products.Find(ctx, repository.ProductFilter{
			Category:   anchor.Category,
			ExcludeIDs: []primitive.ObjectID{*params.Product},
			InStock:    true,
		}, repository.SortByRating, params.Limit)
	})
}

func (s *RecommendationService) collaborative(ctx context.Context, params Params) ([]models.Product, error) {
	if params.User == nil {
		return s.smartTrending(ctx, params)
	}

	key := fmt.Sprintf("recommendations:smart:user:%s:%d", params.User.Hex(), params.Limit)
	return cache.GetOrCompute(ctx, s.store, key, 30*time.Minute, func(ctx context.Context) ([]models.Product, error) {
		userOrders, err := s.orders.FindByUser(ctx, *params.User)
		if err != nil {
			return nil, err
		}

		purchased := purchasedProducts(userOrders)
		if len(purchased) == 0 {
			return s.popular(ctx, params.Limit)
		}

		// Users who bought any of the same products.
		similarOrders, err := s.orders.FindContainingAny(ctx, purchased, *params.User)
		if err != nil {
			return nil, err
		}

		similarUsers := distinctUsers(similarOrders)
		if len(similarUsers) == 0 {
			// No overlap with anyone: recommend within the user's
			// categories instead.
			owned, err := s.products.Find(ctx, repository.ProductFilter{IDs: purchased, IncludeUnpublished: true}, repository.SortNone, 0)
			if err != nil {
				return nil, err
			}
			return s.products.Find(ctx, repository.ProductFilter{
				Categories: distinctCategories(owned),
				ExcludeIDs: purchased,
				InStock:    true,
			}, repository.SortByRating, params.Limit)
		}

		// Count what similar users bought that this user has not.
		peerOrders, err := s.orders.FindByUsers(ctx, similarUsers)
		if err != nil {
			return nil, err
		}

		ownedSet := map[primitive.ObjectID]bool{}
		for _, id := range purchased {
			ownedSet[id] = true
		}

		counts := map[primitive.ObjectID]int{}
		encounter := map[primitive.ObjectID]int{}
		for _, order := range peerOrders {
			for _, item := range order.Items {
				if ownedSet[item.Product] {
					continue
				}
				if _, ok := counts[item.Product]; !ok {
					encounter[item.Product] = len(encounter)
				}
				counts[item.Product]++
			}
		}

		ranked := rankByCount(counts, encounter, params.Limit)
		if len(ranked) > 0 {
			return s.products.FindRanked(ctx, ranked, repository.ProductFilter{InStock: true}, params.Limit)
		}

		return s.popular(ctx, params.Limit)
	})
}

func (s *RecommendationService) itemBased(ctx context.Context, params Params) ([]models.Product, error) {
	if params.Product == nil {
		return s.smartTrending(ctx, params)
	}

	s.store.AddToSortedSet(ctx, "analytics:recommendations:products", params.Product.Hex(), 1, 30*24*time.Hour)

	key := fmt.Sprintf("recommendations:smart:item:%s:%d", params.Product.Hex(), params.Limit)
	return cache.GetOrCompute(ctx, s.store, key, time.Hour, func(ctx context.Context) ([]models.Product, error) {
		anchor, err := s.products.FindByID(ctx, *params.Product)
		if err != nil {
			return nil, err
		}
		if anchor == nil {
			return nil, nil
		}

		ranked, err := coOccurring(ctx, s.orders, *params.Product, params.Limit)
		if err != nil {
			return nil, err
		}

		if len(ranked) > 0 {
			return s.products.FindRanked(ctx, ranked, repository.ProductFilter{InStock: true}, params.Limit)
		}

		return s.products.Find(ctx, repository.ProductFilter{
			Category:   anchor.Category,
			ExcludeIDs: []primitive.ObjectID{*params.Product},
			InStock:    true,
		}, repository.SortByRating, params.Limit)
	})
}

func (s *RecommendationService) smartTrending(ctx context.Context, params Params) ([]models.Product, error) {
	key := fmt.Sprintf("recommendations:smart:trending:%d", params.Limit)
	return cache.GetOrCompute(ctx, s.store, key, 15*time.Minute, func(ctx context.Context) ([]models.Product, error) {
		return s.products.Find(ctx, repository.ProductFilter{
			InStock:    true,
			HasReviews: true,
		}, repository.SortByPopularity, params.Limit)
	})
}

func distinctCategories(products []models.Product) []string {
	seen := map[string]bool{}
	var categories []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}

func distinctUsers(orders []models.Order) []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{}
	var users []primitive.ObjectID
	for _, o := range orders {
		if !seen[o.User] {
			seen[o.User] = true
			users = append(users, o.User)
		}
	}
	return users
}
