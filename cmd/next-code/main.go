package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/arthurando/fafa-shopify-v2/internal/config"
	"github.com/arthurando/fafa-shopify-v2/internal/repository/postgres"
	"github.com/arthurando/fafa-shopify-v2/internal/service"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: next-code <set-id> [--reserve]")
		os.Exit(1)
	}

	setID, err := uuid.Parse(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid set ID: %v\n", err)
		os.Exit(1)
	}
	reserve := len(os.Args) > 2 && os.Args[2] == "--reserve"

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

	set, err := repos.ProductSet.GetByID(ctx, setID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load set: %v\n", err)
		os.Exit(1)
	}

	if reserve {
		codes := service.NewCodeService(repos, logger)
		code, err := codes.AllocateNextCode(ctx, set.ID, set.Prefix)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to allocate code: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Reserved code %s for set %s\n", code, set.Name)
		return
	}

	fmt.Printf("Next code for set %s: %s (preview only, not reserved)\n",
		set.Name, service.PreviewNextCode(set.Prefix, set.LastSequence))
}
