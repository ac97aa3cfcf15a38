package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"walletd/internal/model"
)

// SeedAsset is one reference-data row plus the treasury float for it.
type SeedAsset struct {
	Code            string
	Name            string
	TreasuryBalance int64
}

// SeedWallet provisions a demo user wallet.
type SeedWallet struct {
	UserID    string
	AssetCode string
	Balance   int64
}

// DefaultSeedAssets mirrors the reference data the service ships with.
var DefaultSeedAssets = []SeedAsset{
	{Code: "GOLD_COIN", Name: "Gold Coins", TreasuryBalance: 1_000_000},
	{Code: "DIAMOND", Name: "Diamonds", TreasuryBalance: 100_000},
	{Code: "LOYALTY_POINT", Name: "Loyalty Points", TreasuryBalance: 10_000_000},
}

// DefaultSeedWallets are the demo user wallets.
var DefaultSeedWallets = []SeedWallet{
	{UserID: "user_123", AssetCode: "GOLD_COIN", Balance: 100},
	{UserID: "user_123", AssetCode: "DIAMOND", Balance: 10},
	{UserID: "user_123", AssetCode: "LOYALTY_POINT", Balance: 500},
	{UserID: "user_456", AssetCode: "GOLD_COIN", Balance: 50},
	{UserID: "user_456", AssetCode: "DIAMOND", Balance: 5},
}

// Seed inserts asset types, treasury wallets and demo user wallets.
// Idempotent: existing rows are left untouched, so re-running it against a
// live database never resets a balance.
func Seed(ctx context.Context, db *pgxpool.Pool, assets []SeedAsset, wallets []SeedWallet) error {
	assetIDs := make(map[string]int64, len(assets))

	for _, a := range assets {
		var id int64
		err := db.QueryRow(ctx,
			`INSERT INTO asset_types (code, name)
			 VALUES ($1, $2)
			 ON CONFLICT (code) DO UPDATE SET code = EXCLUDED.code
			 RETURNING id`,
			a.Code, a.Name,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("seed asset %s: %w", a.Code, err)
		}
		assetIDs[a.Code] = id

		if err := ensureWallet(ctx, db, model.TreasuryUserID, id, a.TreasuryBalance); err != nil {
			return fmt.Errorf("seed treasury wallet for %s: %w", a.Code, err)
		}
	}

	for _, w := range wallets {
		assetID, ok := assetIDs[w.AssetCode]
		if !ok {
			slog.Warn("skipping wallet for unknown asset", "user_id", w.UserID, "asset_code", w.AssetCode)
			continue
		}
		if err := ensureWallet(ctx, db, w.UserID, assetID, w.Balance); err != nil {
			return fmt.Errorf("seed wallet %s/%s: %w", w.UserID, w.AssetCode, err)
		}
	}

	return nil
}

func ensureWallet(ctx context.Context, db *pgxpool.Pool, userID string, assetTypeID, balance int64) error {
	tag, err := db.Exec(ctx,
		`INSERT INTO wallets (user_id, asset_type_id, balance)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, asset_type_id) DO NOTHING`,
		userID, assetTypeID, balance,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		slog.Info("seeded wallet", "user_id", userID, "asset_type_id", assetTypeID, "balance", balance)
	}
	return nil
}
