package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"walletd/internal/config"
	"walletd/internal/repository"
)

// Seeds reference data: the three asset types, their treasury wallets and a
// couple of demo user wallets. Safe to run repeatedly.
func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Database error: %v", err)
	}
	defer db.Close()

	if err := repository.Seed(ctx, db, repository.DefaultSeedAssets, repository.DefaultSeedWallets); err != nil {
		log.Fatalf("Seed error: %v", err)
	}

	log.Println("Seed finished successfully")
}
