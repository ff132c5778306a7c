// Package repository holds the query interfaces over the document
// store. Implementations are constructed once at startup and injected;
// business logic depends only on the interfaces.
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/models"
)

// Sort orders for product retrieval.
type Sort int

const (
	SortNone Sort = iota
	// SortByRating orders by rating descending. Ties fall back to
	// retrieval order.
	SortByRating
	// SortByPopularity orders by reviewCount then rating, descending.
	SortByPopularity
)

// ProductFilter narrows a catalog query. Zero values mean "no
// constraint"; IncludeUnpublished inverts the published-only default.
type ProductFilter struct {
	Category           string
	Categories         []string
	ExcludeCategory    string
	Tags               []string
	MinPrice           *float64
	MaxPrice           *float64
	MinRating          *float64
	Featured           bool
	InStock            bool
	HasReviews         bool
	IDs                []primitive.ObjectID
	ExcludeIDs         []primitive.ObjectID
	IncludeUnpublished bool
}

// Products is the catalog query surface. All reads are bounded by the
// caller's limit; text search orders by the store's relevance score.
type Products interface {
	Find(ctx context.Context, filter ProductFilter, sort Sort, limit int) ([]models.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// FindRanked fetches the filtered products among ids, preserving the
	// rank order of ids. Ids absent from the catalog are dropped.
	FindRanked(ctx context.Context, ids []primitive.ObjectID, filter ProductFilter, limit int) ([]models.Product, error)
	// TextSearch runs a relevance-ranked full-text search over name,
	// description, and tags.
	TextSearch(ctx context.Context, terms string, limit int) ([]models.Product, error)
	// FuzzySearch is the case-insensitive partial-match fallback across
	// name, description, and brand.
	FuzzySearch(ctx context.Context, terms string, limit int) ([]models.Product, error)
	// SearchNames matches published products whose name, brand, or
	// description contains any of the given names (case-insensitive).
	SearchNames(ctx context.Context, names []string, limit int) ([]models.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	Insert(ctx context.Context, products ...models.Product) error
}

// Orders is the read surface over past orders used for trending and
// co-purchase statistics. This service never mutates orders.
type Orders interface {
	FindSince(ctx context.Context, since time.Time) ([]models.Order, error)
	FindByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error)
	FindByUsers(ctx context.Context, users []primitive.ObjectID) ([]models.Order, error)
	// FindContainingProduct returns orders with the product among their
	// items, optionally excluding one user's orders.
	FindContainingProduct(ctx context.Context, product primitive.ObjectID, excludeUser *primitive.ObjectID) ([]models.Order, error)
	// FindContainingAny returns orders from other users that share at
	// least one of the given products.
	FindContainingAny(ctx context.Context, products []primitive.ObjectID, excludeUser primitive.ObjectID) ([]models.Order, error)
	Insert(ctx context.Context, orders ...models.Order) error
}

// Bundles is the persisted-bundle surface. Active curated bundles win
// over synthesis.
type Bundles interface {
	FindActiveByMainProduct(ctx context.Context, product primitive.ObjectID, limit int) ([]models.Bundle, error)
	FindActiveByCategory(ctx context.Context, category string, limit int) ([]models.Bundle, error)
	FindActive(ctx context.Context, limit int) ([]models.Bundle, error)
	Insert(ctx context.Context, bundle *models.Bundle) error
}

// IntentCount is one row of the chatbot analytics aggregation.
type IntentCount struct {
	Intent string `bson:"_id" json:"intent"`
	Count  int64  `bson:"count" json:"count"`
}

// ResponseTypeCount is one row of the response-type distribution.
type ResponseTypeCount struct {
	ResponseType string `bson:"_id" json:"responseType"`
	Count        int64  `bson:"count" json:"count"`
}

// QueryCount is one row of the most-common-queries aggregation.
type QueryCount struct {
	Query string `bson:"_id" json:"query"`
	Count int64  `bson:"count" json:"count"`
}

// ProductCount is one row of the most-matched-products aggregation,
// joined against the catalog for display fields.
type ProductCount struct {
	Product  primitive.ObjectID `bson:"_id" json:"productId"`
	Count    int64              `bson:"count" json:"count"`
	Name     string             `bson:"name" json:"name"`
	Category string             `bson:"category" json:"category"`
}

// HourCount is one row of the hourly query-volume aggregation.
type HourCount struct {
	Year  int   `bson:"year" json:"year"`
	Month int   `bson:"month" json:"month"`
	Day   int   `bson:"day" json:"day"`
	Hour  int   `bson:"hour" json:"hour"`
	Count int64 `bson:"count" json:"count"`
}

// ChatQueries is the append-only audit log surface. All aggregations
// are scoped to records created at or after since.
type ChatQueries interface {
	Insert(ctx context.Context, query *models.ChatQuery) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByIntent(ctx context.Context, since time.Time) ([]IntentCount, error)
	CountByResponseType(ctx context.Context, since time.Time) ([]ResponseTypeCount, error)
	TopQueries(ctx context.Context, since time.Time, limit int) ([]QueryCount, error)
	// TopProducts ranks the products most often matched by chatbot
	// replies, joined against the catalog for name and category.
	TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductCount, error)
	// QueriesByHour buckets query volume per calendar hour, ascending.
	QueriesByHour(ctx context.Context, since time.Time) ([]HourCount, error)
}
