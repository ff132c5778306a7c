package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product categories. "other" is the catch-all for anything the
// storefront does not break out.
const (
	CategoryElectronics = "electronics"
	CategoryClothing    = "clothing"
	CategoryFurniture   = "furniture"
	CategoryBooks       = "books"
	CategoryToys        = "toys"
	CategoryBeauty      = "beauty"
	CategorySports      = "sports"
	CategoryFood        = "food"
	CategoryOther       = "other"
)

// Categories lists every recognized product category in vocabulary
// order. Extraction code matches against this list, so "other" is
// deliberately excluded.
var Categories = []string{
	CategoryElectronics,
	CategoryClothing,
	CategoryFurniture,
	CategoryBooks,
	CategoryToys,
	CategoryBeauty,
	CategorySports,
	CategoryFood,
}

// Image is a single product image with its accessibility text.
type Image struct {
	URL string `bson:"url" json:"url"`
	Alt string `bson:"alt" json:"alt"`
}

// Product is a catalog entry. The slug is globally unique; rating and
// reviewCount are maintained by the review moderation flow and are
// read-only here.
type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Slug           string             `bson:"slug" json:"slug"`
	Description    string             `bson:"description" json:"description"`
	Price          float64            `bson:"price" json:"price"`
	Category       string             `bson:"category" json:"category"`
	Subcategory    string             `bson:"subcategory,omitempty" json:"subcategory,omitempty"`
	Brand          string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Stock          int                `bson:"stock" json:"stock"`
	Images         []Image            `bson:"images" json:"images"`
	Tags           []string           `bson:"tags" json:"tags"`
	Features       []string           `bson:"features" json:"features"`
	Specifications map[string]string  `bson:"specifications,omitempty" json:"specifications,omitempty"`
	Rating         float64            `bson:"rating" json:"rating"`
	ReviewCount    int                `bson:"reviewCount" json:"reviewCount"`
	IsFeatured     bool               `bson:"isFeatured" json:"isFeatured"`
	IsPublished    bool               `bson:"isPublished" json:"isPublished"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
