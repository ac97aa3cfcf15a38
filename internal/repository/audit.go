package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditStore backs the ledger auditor. BalanceAndSum reads the materialized
// balance and the entry sum in one statement, so both come from the same
// snapshot and concurrent commits cannot fake drift.
type AuditStore struct {
	db *pgxpool.Pool
}

func NewAuditStore(db *pgxpool.Pool) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) BalanceAndSum(ctx context.Context, walletID int64) (balance, sum int64, err error) {
	err = s.db.QueryRow(ctx,
		`SELECT w.balance,
		        COALESCE((SELECT SUM(e.amount) FROM ledger_entries e WHERE e.wallet_id = w.id), 0)
		 FROM wallets w
		 WHERE w.id = $1`,
		walletID,
	).Scan(&balance, &sum)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrWalletNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("audit read for wallet %d: %w", walletID, err)
	}
	return balance, sum, nil
}
