package recommend

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

// Lookback windows for trending statistics.
const (
	TimeframeDay   = "day"
	TimeframeWeek  = "week"
	TimeframeMonth = "month"
)

const trendingTTL = 15 * time.Minute

func lookback(timeframe string) time.Duration {
	switch timeframe {
	case TimeframeDay:
		return 24 * time.Hour
	case TimeframeMonth:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// TrendingService ranks products by recent order volume.
type TrendingService struct {
	products repository.Products
	orders   repository.Orders
	store    *cache.Store
}

func NewTrendingService(products repository.Products, orders repository.Orders, store *cache.Store) *TrendingService {
	return &TrendingService{products: products, orders: orders, store: store}
}

// Trending returns the most-ordered published, in-stock products inside
// the timeframe's lookback window, in rank order. With no orders in the
// window it falls back to reviewCount/rating ordering; it never errors
// on an empty window.
func (s *TrendingService) Trending(ctx context.Context, category, timeframe string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 10
	}

	key := fmt.Sprintf("products:trending:%s:%s:%d", category, timeframe, limit)
	return cache.GetOrCompute(ctx, s.store, key, trendingTTL, func(ctx context.Context) ([]models.Product, error) {
		return s.computeTrending(ctx, category, timeframe, limit)
	})
}

func (s *TrendingService) computeTrending(ctx context.Context, category, timeframe string, limit int) ([]models.Product, error) {
	since := time.Now().Add(-lookback(timeframe))
	recent, err := s.orders.FindSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent orders: %w", err)
	}

	filter := repository.ProductFilter{Category: category, InStock: true}

	// Sum quantities per product across the window.
	counts := map[primitive.ObjectID]int{}
	encounter := map[primitive.ObjectID]int{}
	for _, order := range recent {
		for _, item := range order.Items {
			if _, ok := counts[item.Product]; !ok {
				encounter[item.Product] = len(encounter)
			}
			counts[item.Product] += item.Quantity
		}
	}

	if len(counts) > 0 {
		ranked := rankByCount(counts, encounter, 0)
		products, err := s.products.FindRanked(ctx, ranked, filter, limit)
		if err != nil {
			return nil, err
		}
		if len(products) > 0 {
			return products, nil
		}
	}

	// No qualifying orders: fall back to review volume and rating.
	return s.products.Find(ctx, filter, repository.SortByPopularity, limit)
}
