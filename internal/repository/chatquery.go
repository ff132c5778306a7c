package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/models"
)

type mongoChatQueries struct {
	coll *mongo.Collection
}

// NewChatQueries returns the mongo-backed chatbot audit log.
func NewChatQueries(db *database.DB) ChatQueries {
	return &mongoChatQueries{coll: db.Collection(database.ChatQueriesCollection)}
}

func (r *mongoChatQueries) Insert(ctx context.Context, query *models.ChatQuery) error {
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now()
	}
	if _, err := r.coll.InsertOne(ctx, query); err != nil {
		return fmt.Errorf("failed to insert chat query: %w", err)
	}
	return nil
}

func (r *mongoChatQueries) CountSince(ctx context.Context, since time.Time) (int64, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		return 0, fmt.Errorf("failed to count chat queries: %w", err)
	}
	return count, nil
}

// groupCount builds the shared match-group-sort pipeline over a field.
func groupCount(field string, since time.Time, limit int) mongo.Pipeline {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}
	return pipeline
}

func (r *mongoChatQueries) CountByIntent(ctx context.Context, since time.Time) ([]IntentCount, error) {
	cursor, err := r.coll.Aggregate(ctx, groupCount("intent", since, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chat queries: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []IntentCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode intent counts: %w", err)
	}
	return counts, nil
}

func (r *mongoChatQueries) CountByResponseType(ctx context.Context, since time.Time) ([]ResponseTypeCount, error) {
	cursor, err := r.coll.Aggregate(ctx, groupCount("responseType", since, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chat queries: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []ResponseTypeCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode response type counts: %w", err)
	}
	return counts, nil
}

func (r *mongoChatQueries) TopQueries(ctx context.Context, since time.Time, limit int) ([]QueryCount, error) {
	cursor, err := r.coll.Aggregate(ctx, groupCount("query", since, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate chat queries: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []QueryCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode query counts: %w", err)
	}
	return counts, nil
}

func (r *mongoChatQueries) TopProducts(ctx context.Context, since time.Time, limit int) ([]ProductCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"createdAt":       bson.M{"$gte": since},
			"matchedProducts": bson.M{"$exists": true, "$ne": bson.A{}},
		}}},
		{{Key: "$unwind", Value: "$matchedProducts"}},
		{{Key: "$group", Value: bson.M{"_id": "$matchedProducts", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         database.ProductsCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "product",
		}}},
		{{Key: "$unwind", Value: "$product"}},
		{{Key: "$project", Value: bson.M{
			"count":    1,
			"name":     "$product.name",
			"category": "$product.category",
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate matched products: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []ProductCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode product counts: %w", err)
	}
	return counts, nil
}

func (r *mongoChatQueries) QueriesByHour(ctx context.Context, since time.Time) ([]HourCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year":  bson.M{"$year": "$createdAt"},
				"month": bson.M{"$month": "$createdAt"},
				"day":   bson.M{"$dayOfMonth": "$createdAt"},
				"hour":  bson.M{"$hour": "$createdAt"},
			},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "_id.year", Value: 1},
			{Key: "_id.month", Value: 1},
			{Key: "_id.day", Value: 1},
			{Key: "_id.hour", Value: 1},
		}}},
		{{Key: "$project", Value: bson.M{
			"_id":   0,
			"year":  "$_id.year",
			"month": "$_id.month",
			"day":   "$_id.day",
			"hour":  "$_id.hour",
			"count": 1,
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate hourly volume: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []HourCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode hourly counts: %w", err)
	}
	return counts, nil
}
