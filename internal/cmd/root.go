package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cartwise",
	Short: "Cartwise - AI-Powered Shopping Assistant Backend",
	Long: `Cartwise is the backend service behind a conversational shopping
assistant. It classifies free-text shopping queries into intents,
resolves product recommendations, synthesizes product bundles, and
tracks trending products over recent order activity.

The service can run as an HTTP server, or be used via CLI commands to
seed sample data and verify connectivity.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
