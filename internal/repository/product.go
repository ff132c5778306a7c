package repository

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/models"
)

type mongoProducts struct {
	coll *mongo.Collection
}

// NewProducts returns the mongo-backed catalog repository.
func NewProducts(db *database.DB) Products {
	return &mongoProducts{coll: db.Collection(database.ProductsCollection)}
}

func (f ProductFilter) toBSON() bson.M {
	filter := bson.M{}
	if !f.IncludeUnpublished {
		filter["isPublished"] = true
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if len(f.Categories) > 0 {
		filter["category"] = bson.M{"$in": f.Categories}
	}
	if f.ExcludeCategory != "" {
		filter["category"] = bson.M{"$ne": f.ExcludeCategory}
	}
	if len(f.Tags) > 0 {
		filter["tags"] = bson.M{"$in": f.Tags}
	}
	priceClause := bson.M{}
	if f.MinPrice != nil {
		priceClause["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		priceClause["$lte"] = *f.MaxPrice
	}
	if len(priceClause) > 0 {
		filter["price"] = priceClause
	}
	if f.MinRating != nil {
		filter["rating"] = bson.M{"$gte": *f.MinRating}
	}
	if f.Featured {
		filter["isFeatured"] = true
	}
	if f.InStock {
		filter["stock"] = bson.M{"$gt": 0}
	}
	if f.HasReviews {
		filter["reviewCount"] = bson.M{"$gt": 0}
	}
	idClause := bson.M{}
	if len(f.IDs) > 0 {
		idClause["$in"] = f.IDs
	}
	if len(f.ExcludeIDs) > 0 {
		idClause["$nin"] = f.ExcludeIDs
	}
	if len(idClause) > 0 {
		filter["_id"] = idClause
	}
	return filter
}

func sortDoc(sort Sort) bson.D {
	switch sort {
	case SortByRating:
		return bson.D{{Key: "rating", Value: -1}}
	case SortByPopularity:
		return bson.D{{Key: "reviewCount", Value: -1}, {Key: "rating", Value: -1}}
	default:
		return nil
	}
}

func (r *mongoProducts) Find(ctx context.Context, filter ProductFilter, sort Sort, limit int) ([]models.Product, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if doc := sortDoc(sort); doc != nil {
		opts.SetSort(doc)
	}

	cursor, err := r.coll.Find(ctx, filter.toBSON(), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

func (r *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product %s: %w", id.Hex(), err)
	}
	return &product, nil
}

func (r *mongoProducts) FindRanked(ctx context.Context, ids []primitive.ObjectID, filter ProductFilter, limit int) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	filter.IDs = ids
	// Fetch more than needed: catalog filtering can drop ranked ids.
	fetched, err := r.Find(ctx, filter, SortNone, limit*2)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}

	ranked := make([]models.Product, 0, limit)
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ranked = append(ranked, p)
			if limit > 0 && len(ranked) == limit {
				break
			}
		}
	}
	return ranked, nil
}

func (r *mongoProducts) TextSearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	filter := bson.M{
		"$text":       bson.M{"$search": terms},
		"isPublished": true,
	}
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to text-search products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return products, nil
}

func (r *mongoProducts) FuzzySearch(ctx context.Context, terms string, limit int) ([]models.Product, error) {
	pattern := regexp.QuoteMeta(terms)
	filter := bson.M{
		"$or": []bson.M{
			{"name": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
			{"brand": bson.M{"$regex": pattern, "$options": "i"}},
		},
		"isPublished": true,
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fuzzy-search products: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return products, nil
}

func (r *mongoProducts) SearchNames(ctx context.Context, names []string, limit int) ([]models.Product, error) {
	if len(names) == 0 {
		return nil, nil
	}

	clauses := make([]bson.M, 0, len(names))
	for _, name := range names {
		pattern := regexp.QuoteMeta(name)
		clauses = append(clauses, bson.M{
			"$or": []bson.M{
				{"name": bson.M{"$regex": pattern, "$options": "i"}},
				{"brand": bson.M{"$regex": pattern, "$options": "i"}},
				{"description": bson.M{"$regex": pattern, "$options": "i"}},
			},
		})
	}

	filter := bson.M{
		"$or":         clauses,
		"isPublished": true,
	}

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}
	defer cursor.Close(ctx)

	var products []models.Product
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}
	return products, nil
}

func (r *mongoProducts) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, filter.toBSON())
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *mongoProducts) Insert(ctx context.Context, products ...models.Product) error {
	docs := make([]any, 0, len(products))
	for _, p := range products {
		docs = append(docs, p)
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	return nil
}
