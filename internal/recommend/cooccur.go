package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

// rankedCount is one product's tally with its first-encounter position,
// used to keep the descending sort deterministic on ties.
type rankedCount struct {
	id    primitive.ObjectID
	count int
	seen  int
}

// rankByCount orders ids by count descending, first-encounter order on
// ties, and returns at most limit ids.
func rankByCount(counts map[primitive.ObjectID]int, encounter map[primitive.ObjectID]int, limit int) []primitive.ObjectID {
	ranked := make([]rankedCount, 0, len(counts))
	for id, count := range counts {
		ranked = append(ranked, rankedCount{id: id, count: count, seen: encounter[id]})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].seen < ranked[j].seen
	})

	ids := make([]primitive.ObjectID, 0, len(ranked))
	for _, rc := range ranked {
		ids = append(ids, rc.id)
		if limit > 0 && len(ids) == limit {
			break
		}
	}
	return ids
}

// coOccurring returns product ids that appear in past orders alongside
// the anchor product, ranked by how often they co-occur. This one
// routine backs both "frequently bought together" and item-based smart
// recommendations.
func coOccurring(ctx context.Context, orders repository.Orders, anchor primitive.ObjectID, limit int) ([]primitive.ObjectID, error) {
	containing, err := orders.FindContainingProduct(ctx, anchor, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders for co-occurrence: %w", err)
	}

	counts := map[primitive.ObjectID]int{}
	encounter := map[primitive.ObjectID]int{}
	for _, order := range containing {
		for _, item := range order.Items {
			if item.Product == anchor {
				continue
			}
			if _, ok := counts[item.Product]; !ok {
				encounter[item.Product] = len(encounter)
			}
			counts[item.Product]++
		}
	}

	return rankByCount(counts, encounter, limit), nil
}

// purchasedProducts flattens the distinct product ids across orders.
func purchasedProducts(orders []models.Order) []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, order := range orders {
		for _, item := range order.Items {
			if !seen[item.Product] {
				seen[item.Product] = true
				ids = append(ids, item.Product)
			}
		}
	}
	return ids
}
