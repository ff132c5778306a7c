package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyntheticBundlePrefix marks bundle IDs that were computed on demand
// and never persisted.
const SyntheticBundlePrefix = "bundle-"

// BundleProduct is a denormalized snapshot of a product at the moment
// the bundle was built. It can drift from the live catalog; that is
// intentional so bundle display survives product edits and deletions.
type BundleProduct struct {
	Product  primitive.ObjectID `bson:"product" json:"product"`
	Name     string             `bson:"name" json:"name"`
	Price    float64            `bson:"price" json:"price"`
	Category string             `bson:"category" json:"category"`
	Images   []Image            `bson:"images" json:"images"`
}

// Bundle groups a main product with complementary products at a
// discount. Persisted bundles are admin-curated; synthetic ones carry a
// SyntheticBundlePrefix id and are recomputed on each cache miss.
//
// Invariant: BundlePrice = round(IndividualTotal * (1 - discount)) and
// Savings = IndividualTotal - BundlePrice.
type Bundle struct {
	ID                string          `bson:"_id,omitempty" json:"id"`
	Name              string          `bson:"name" json:"name"`
	Description       string          `bson:"description,omitempty" json:"description,omitempty"`
	MainProduct       BundleProduct   `bson:"mainProduct" json:"mainProduct"`
	RelatedProducts   []BundleProduct `bson:"relatedProducts" json:"relatedProducts"`
	IndividualTotal   float64         `bson:"individualTotal" json:"individualTotal"`
	BundlePrice       float64         `bson:"bundlePrice" json:"bundlePrice"`
	Savings           float64         `bson:"savings" json:"savings"`
	SavingsPercentage float64         `bson:"savingsPercentage" json:"savingsPercentage"`
	IsActive          bool            `bson:"isActive" json:"isActive"`
	CreatedAt         time.Time       `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt         time.Time       `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// Synthetic reports whether the bundle was generated on demand rather
// than read from curated data.
func (b *Bundle) Synthetic() bool {
	return len(b.ID) > len(SyntheticBundlePrefix) && b.ID[:len(SyntheticBundlePrefix)] == SyntheticBundlePrefix
}
