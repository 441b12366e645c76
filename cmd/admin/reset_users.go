package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/trenchlabs/trenchbot/internal/core/config"
	"github.com/trenchlabs/trenchbot/internal/infra/storage"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/file"
	"github.com/trenchlabs/trenchbot/internal/infra/storage/postgres"
)

// Wipes all registered users and wallets from the configured store.
func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var users storage.UserRepository
	switch {
	case cfg.Storage.Database.URL != "":
		db, err := postgres.NewDB(ctx, cfg.Storage.Database)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to connect to database:", err)
			os.Exit(1)
		}
		defer db.Close()
		users = postgres.NewUserRepo(db, cfg.Bot.FreeWalletLimit)
	case cfg.Storage.Path != "":
		store, err := file.NewStore(cfg.Storage.Path, cfg.Bot.FreeWalletLimit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open store:", err)
			os.Exit(1)
		}
		users = store
	default:
		fmt.Fprintln(os.Stderr, "no persistent storage configured, nothing to reset")
		os.Exit(1)
	}

	if err := users.Reset(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "reset failed:", err)
		os.Exit(1)
	}

	fmt.Println("Successfully reset all users")
}
