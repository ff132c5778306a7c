package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarceau/cartwise/internal/bundle"
	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/config"
	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/intent"
	"github.com/dmarceau/cartwise/internal/llm"
	"github.com/dmarceau/cartwise/internal/recommend"
	"github.com/dmarceau/cartwise/internal/repository"
	"github.com/dmarceau/cartwise/internal/server"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Cartwise server",
	Long: `Start the Cartwise server which provides:
- Chatbot endpoint for intent-classified product queries
- Recommendation, trending, and bundle endpoints
- Chatbot analytics for admins`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runServer(cmd *cobra.Command, args []string) error {
	fmt.Println("🚀 Cartwise Starting...")

	fmt.Println("📝 Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println("🔌 Connecting to MongoDB...")
	db, err := database.NewConnection(&cfg.Mongo)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	fmt.Println("✅ Database connected successfully")

	fmt.Println("🗄️  Connecting to Redis...")
	store := cache.NewStore(cache.NewRedisBackend(&cfg.Redis))
	if !store.Healthy(ctx) {
		// Cache loss degrades to direct reads, so only warn here.
		fmt.Println("⚠️  Redis unavailable, serving without cache")
	}

	fmt.Println("🤖 Setting up intent classifier...")
	generator, err := llm.NewGenerator(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}
	classifier := intent.WithFallback(
		intent.NewAIClassifier(generator, cfg.Chatbot.ClassifyTimeout),
		intent.NewKeywordClassifier(),
	)

	products := repository.NewProducts(db)
	orders := repository.NewOrders(db)
	bundles := repository.NewBundles(db)
	chatQueries := repository.NewChatQueries(db)

	fmt.Println("⚙️  Setting up server...")
	srv := server.NewServer(
		db,
		store,
		recommend.NewResolver(classifier, products, chatQueries, cfg.Chatbot.ResultLimit, cfg.Chatbot.CompareLimit),
		recommend.NewRecommendationService(products, orders, store),
		recommend.NewTrendingService(products, orders, store),
		bundle.NewService(products, bundles, store, &cfg.Bundles),
		chatQueries,
	)

	fmt.Printf("🌐 Starting server on %s...\n", cfg.Server.Addr)
	if err := srv.Start(cfg.Server.Addr); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
