package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dmarceau/cartwise/internal/config"
	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/models"
	"github.com/dmarceau/cartwise/internal/repository"
)

var seedOrders bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a sample catalog for local development",
	Long: `Insert a small sample catalog covering every product category, plus
optional sample orders so trending and co-purchase endpoints return
data immediately.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().BoolVar(&seedOrders, "orders", true, "Also seed sample orders")
}

func runSeed(cmd *cobra.Command, args []string) error {
	fmt.Println("🌱 Seeding sample data...")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(&cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	products := sampleProducts()
	if err := repository.NewProducts(db).Insert(ctx, products...); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}
	fmt.Printf("📦 Inserted %d products\n", len(products))

	if seedOrders {
		orders := sampleOrders(products)
		if err := repository.NewOrders(db).Insert(ctx, orders...); err != nil {
			return fmt.Errorf("failed to seed orders: %w", err)
		}
		fmt.Printf("🧾 Inserted %d orders\n", len(orders))
	}

	fmt.Println("✅ Seeding complete")
	return nil
}

func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

func sampleProduct(name, description string, price float64, category string, tags []string, rating float64, reviews int, featured bool) models.Product {
	now := time.Now().UTC()
	return models.Product{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Slug:        slugify(name),
		Description: description,
		Price:       price,
		Category:    category,
		Stock:       25,
		Images:      []models.Image{{URL: "/images/" + slugify(name) + ".jpg", Alt: name}},
		Tags:        tags,
		Rating:      rating,
		ReviewCount: reviews,
		IsFeatured:  featured,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func sampleProducts() []models.Product {
	products := []models.Product{
		sampleProduct("Aurora Wireless Headphones", "Over-ear wireless headphones with active noise cancellation and 30-hour battery life.", 149.99, models.CategoryElectronics, []string{"audio", "wireless", "gift"}, 4.6, 212, true),
		sampleProduct("Nimbus Smart Speaker", "Compact smart speaker with rich sound and voice control.", 59.99, models.CategoryElectronics, []string{"audio", "smart-home"}, 4.2, 98, false),
		sampleProduct("Trailblazer Running Shoes", "Lightweight trail running shoes with grippy outsole.", 89.99, models.CategorySports, []string{"running", "outdoor"}, 4.4, 156, true),
		sampleProduct("Summit Yoga Mat", "Non-slip yoga mat with alignment markings.", 34.99, models.CategorySports, []string{"yoga", "fitness", "gift"}, 4.7, 301, false),
		sampleProduct("Cozy Knit Sweater", "Soft merino wool sweater for everyday wear.", 64.99, models.CategoryClothing, []string{"winter", "wool"}, 4.3, 77, false),
		sampleProduct("Rainier Waterproof Jacket", "Breathable waterproof shell for wet-weather commutes.", 129.99, models.CategoryClothing, []string{"outdoor", "rain"}, 4.5, 134, true),
		sampleProduct("Galaxy Building Blocks", "Creative building block set with 500 pieces for ages 4 and up.", 39.99, models.CategoryToys, []string{"toddler", "kids", "gift", "educational"}, 4.8, 420, true),
		sampleProduct("Plush Dinosaur Friend", "Huggable plush dinosaur for toddlers.", 19.99, models.CategoryToys, []string{"toddler", "plush", "gift"}, 4.9, 510, false),
		sampleProduct("Voyager Chess Set", "Folding wooden chess set for travel.", 29.99, models.CategoryToys, []string{"teen", "board-game", "gift"}, 4.5, 88, false),
		sampleProduct("Silk Radiance Serum", "Hydrating facial serum with vitamin C.", 44.99, models.CategoryBeauty, []string{"skincare", "gift", "women"}, 4.4, 267, false),
		sampleProduct("Cedar Grooming Kit", "Beard trimmer and grooming kit in a travel case.", 54.99, models.CategoryBeauty, []string{"grooming", "gift", "men"}, 4.1, 93, false),
		sampleProduct("Orchard Standing Desk", "Height-adjustable standing desk with bamboo top.", 349.99, models.CategoryFurniture, []string{"office", "ergonomic"}, 4.6, 61, false),
		sampleProduct("Luna Reading Chair", "Compact armchair with washable cover.", 229.99, models.CategoryFurniture, []string{"living-room"}, 4.2, 45, false),
		sampleProduct("The Quiet Forest", "Award-winning novel about a ranger in the north woods.", 16.99, models.CategoryBooks, []string{"fiction", "gift"}, 4.7, 389, false),
		sampleProduct("Cooking for Crowds", "A practical cookbook for feeding large gatherings.", 24.99, models.CategoryBooks, []string{"cooking", "gift"}, 4.3, 142, false),
		sampleProduct("Alpine Dark Chocolate Box", "Assorted dark chocolate gift box.", 22.99, models.CategoryFood, []string{"chocolate", "gift"}, 4.8, 233, true),
	}

	// Give the electronics pair specifications so spec queries resolve.
	products[0].Specifications = map[string]string{
		"Battery Life":  "30 hours",
		"Connectivity":  "Bluetooth 5.3",
		"Weight":        "254 g",
		"Noise Control": "Active noise cancellation",
	}
	products[1].Specifications = map[string]string{
		"Battery Life": "12 hours",
		"Connectivity": "Bluetooth 5.0, Wi-Fi",
		"Weight":       "420 g",
	}

	return products
}

func orderItem(p models.Product, quantity int) models.OrderItem {
	return models.OrderItem{
		Product:  p.ID,
		Name:     p.Name,
		Quantity: quantity,
		Price:    p.Price,
		Image:    p.Images[0].URL,
	}
}

// sampleOrders builds a handful of recent orders with deliberate
// co-purchases so frequently-bought-together has signal.
func sampleOrders(products []models.Product) []models.Order {
	users := []primitive.ObjectID{
		primitive.NewObjectID(),
		primitive.NewObjectID(),
		primitive.NewObjectID(),
	}

	pairs := [][]models.OrderItem{
		{orderItem(products[0], 1), orderItem(products[1], 1)},
		{orderItem(products[0], 1), orderItem(products[1], 2)},
		{orderItem(products[6], 1), orderItem(products[7], 1)},
		{orderItem(products[6], 2), orderItem(products[8], 1)},
		{orderItem(products[2], 1), orderItem(products[3], 1)},
		{orderItem(products[13], 1), orderItem(products[15], 1)},
	}

	now := time.Now().UTC()
	orders := make([]models.Order, 0, len(pairs))
	for i, items := range pairs {
		subtotal := 0.0
		for _, item := range items {
			subtotal += item.Price * float64(item.Quantity)
		}
		orders = append(orders, models.Order{
			ID:        primitive.NewObjectID(),
			User:      users[i%len(users)],
			Items:     items,
			Subtotal:  subtotal,
			Tax:       subtotal * 0.08,
			Total:     subtotal * 1.08,
			Status:    models.OrderStatusDelivered,
			CreatedAt: now.Add(-time.Duration(i*12) * time.Hour),
			UpdatedAt: now.Add(-time.Duration(i*12) * time.Hour),
		})
	}
	return orders
}
