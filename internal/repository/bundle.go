package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/models"
)

type mongoBundles struct {
	coll *mongo.Collection
}

// NewBundles returns the mongo-backed curated bundle repository.
func NewBundles(db *database.DB) Bundles {
	return &mongoBundles{coll: db.Collection(database.BundlesCollection)}
}

func (r *mongoBundles) find(ctx context.Context, filter bson.M, limit int) ([]models.Bundle, error) {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bundles: %w", err)
	}
	defer cursor.Close(ctx)

	var bundles []models.Bundle
	if err := cursor.All(ctx, &bundles); err != nil {
		return nil, fmt.Errorf("failed to decode bundles: %w", err)
	}
	return bundles, nil
}

func (r *mongoBundles) FindActiveByMainProduct(ctx context.Context, product primitive.ObjectID, limit int) ([]models.Bundle, error) {
	return r.find(ctx, bson.M{"mainProduct.product": product, "isActive": true}, limit)
}

func (r *mongoBundles) FindActiveByCategory(ctx context.Context, category string, limit int) ([]models.Bundle, error) {
	return r.find(ctx, bson.M{"mainProduct.category": category, "isActive": true}, limit)
}

func (r *mongoBundles) FindActive(ctx context.Context, limit int) ([]models.Bundle, error) {
	return r.find(ctx, bson.M{"isActive": true}, limit)
}

func (r *mongoBundles) Insert(ctx context.Context, bundle *models.Bundle) error {
	if bundle.ID == "" {
		bundle.ID = primitive.NewObjectID().Hex()
	}
	now := time.Now()
	bundle.CreatedAt = now
	bundle.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, bundle); err != nil {
		return fmt.Errorf("failed to insert bundle: %w", err)
	}
	return nil
}
