package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmarceau/cartwise/internal/cache"
	"github.com/dmarceau/cartwise/internal/config"
	"github.com/dmarceau/cartwise/internal/database"
	"github.com/dmarceau/cartwise/internal/intent"
	"github.com/dmarceau/cartwise/internal/llm"
)

var checkQuery string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity to MongoDB, Redis, and the classifier",
	Long: `Check that every dependency the server needs is reachable:
MongoDB, Redis, and the configured text-generation provider. The
classifier check runs one real classification round-trip.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkQuery, "query", "gift for a 5 year old boy", "Query to classify during the check")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("🔌 Checking MongoDB...")
	db, err := database.NewConnection(&cfg.Mongo)
	if err != nil {
		return fmt.Errorf("mongo check failed: %w", err)
	}
	defer db.Close(context.Background())

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	fmt.Println("✅ MongoDB reachable")

	fmt.Println("🗄️  Checking Redis...")
	store := cache.NewStore(cache.NewRedisBackend(&cfg.Redis))
	if store.Healthy(ctx) {
		fmt.Println("✅ Redis reachable")
	} else {
		fmt.Println("⚠️  Redis unreachable (server would run without cache)")
	}

	fmt.Printf("🤖 Checking classifier (%s)...\n", cfg.LLM.Classifier.Provider)
	generator, err := llm.NewGenerator(&cfg.LLM)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	classifier := intent.NewAIClassifier(generator, cfg.Chatbot.ClassifyTimeout)
	detected, extracted, err := classifier.Classify(ctx, checkQuery)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	fmt.Printf("✅ Classified %q as %q\n", checkQuery, detected)
	if extracted.Age != nil {
		fmt.Printf("   🎂 Age: %d\n", *extracted.Age)
	}
	if extracted.Budget != nil {
		fmt.Printf("   💰 Budget: $%.2f\n", *extracted.Budget)
	}
	if extracted.Category != "" {
		fmt.Printf("   🏷️  Category: %s\n", extracted.Category)
	}
	if extracted.Occasion != "" {
		fmt.Printf("   🎁 Occasion: %s\n", extracted.Occasion)
	}

	fmt.Println("\n🎯 All checks passed")
	return nil
}
