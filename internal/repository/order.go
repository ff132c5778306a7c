package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/models"
)

type mongoOrders struct {
	coll *mongo.Collection
}

// NewOrders returns the mongo-backed order history repository.
func NewOrders(db *database.DB) Orders {
	return &mongoOrders{coll: db.Collection(database.OrdersCollection)}
}

func (r *mongoOrders) find(ctx context.Context, filter bson.M) ([]models.Order, error) {
	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrders) FindSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	return r.find(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
}

func (r *mongoOrders) FindByUser(ctx context.Context, user primitive.ObjectID) ([]models.Order, error) {
	return r.find(ctx, bson.M{"user": user})
}

func (r *mongoOrders) FindByUsers(ctx context.Context, users []primitive.ObjectID) ([]models.Order, error) {
	if len(users) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"user": bson.M{"$in": users}})
}

func (r *mongoOrders) FindContainingProduct(ctx context.Context, product primitive.ObjectID, excludeUser *primitive.ObjectID) ([]models.Order, error) {
	filter := bson.M{"items.product": product}
	if excludeUser != nil {
		filter["user"] = bson.M{"$ne": *excludeUser}
	}
	return r.find(ctx, filter)
}

func (r *mongoOrders) FindContainingAny(ctx context.Context, products []primitive.ObjectID, excludeUser primitive.ObjectID) ([]models.Order, error) {
	if len(products) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{
		"user":          bson.M{"$ne": excludeUser},
		"items.product": bson.M{"$in": products},
	})
}

func (r *mongoOrders) Insert(ctx context.Context, orders ...models.Order) error {
	docs := make([]any, 0, len(orders))
	for _, o := range orders {
		docs = append(docs, o)
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert orders: %w", err)
	}
	return nil
}
