package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/repository/postgres"
	"github.com/arthurando/fafa-shopify-v2/internal/service"
	"github.com/arthurando/fafa-shopify-v2/internal/shopify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	client := shopify.NewClient(cfg.Shopify, logger)

	fmt.Println("🔄 Syncing inventory from Shopify...")

	inventory := service.NewInventoryService(repos, client, cfg.Shopify.LocationID, logger)
	result, err := inventory.SyncAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Sync failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(result.Message)
	for _, detail := range result.ErrorDetails {
		fmt.Printf("  ⚠️  %s\n", detail)
	}
	if result.Errors > 0 {
		os.Exit(1)
	}
}
