package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/domain"
	"github.com/arthurando/fafa-shopify-v2/internal/repository/postgres"
)

// defaults written only for keys that have no row yet
var defaultSettings = map[string]string{
	domain.SettingUniversalDescription: "",
	domain.SettingProductType:          "年花",
	domain.SettingVendor:               "Fafa Concept",
	domain.SettingCollection:           "",
	domain.SettingMetafieldBrands:      "",
	domain.SettingMetafieldArrival:     "",
	domain.SettingMetafieldCutoff:      "",
	domain.SettingLowStockThreshold:    "3",
}

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
	ctx := context.Background()

	existing, err := repos.Settings.GetMap(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read settings: %v\n", err)
		os.Exit(1)
	}

	seeded := 0
	for key, value := range defaultSettings {
		if _, ok := existing[key]; ok {
			continue
		}
		if _, err := repos.Settings.Upsert(ctx, key, value); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed %s: %v\n", key, err)
			os.Exit(1)
		}
		fmt.Printf("Seeded %s = %q\n", key, value)
		seeded++
	}

	if seeded == 0 {
		fmt.Println("All settings already present")
	} else {
		fmt.Printf("Seeded %d setting(s)\n", seeded)
	}
}
