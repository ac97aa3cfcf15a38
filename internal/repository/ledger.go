package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"walletd/internal/model"
)

// LedgerStore persists the immutable double-entry audit trail. Entries are
// insert-only; there is no update or delete path anywhere in this package.
type LedgerStore struct{}

func NewLedgerStore() *LedgerStore {
	return &LedgerStore{}
}

// InsertPair writes the two halves of one transaction inside the caller's
// database transaction. The entries share the transaction id and reason tag;
// the engine passes deltas that sum to zero, and writing both in one call is
// what keeps a lone half from ever being committed.
func (s *LedgerStore) InsertPair(ctx context.Context, tx pgx.Tx, txID string, reason model.TransactionType, userWalletID, userDelta, treasuryWalletID, treasuryDelta int64) error {
	for _, entry := range []struct {
		walletID int64
		amount   int64
	}{
		{userWalletID, userDelta},
		{treasuryWalletID, treasuryDelta},
	} {
		_, err := tx.Exec(ctx,
			`INSERT INTO ledger_entries (transaction_id, wallet_id, amount, reason)
			 VALUES ($1, $2, $3, $4)`,
			txID, entry.walletID, entry.amount, reason.String(),
		)
		if err != nil {
			return fmt.Errorf("insert ledger entry for wallet %d: %w", entry.walletID, err)
		}
	}
	return nil
}

// History returns every entry for one wallet, newest first. Ties on
// created_at break by id descending so the order is total. Unpaginated:
// the response grows with the wallet's full history, a known limitation.
func (s *LedgerStore) History(ctx context.Context, q querier, walletID int64) ([]model.LedgerEntry, error) {
	rows, err := q.Query(ctx,
		`SELECT id, transaction_id, wallet_id, amount, reason, created_at
		 FROM ledger_entries
		 WHERE wallet_id = $1
		 ORDER BY created_at DESC, id DESC`,
		walletID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ledger history for wallet %d: %w", walletID, err)
	}
	defer rows.Close()

	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		if err := rows.Scan(&e.ID, &e.TransactionID, &e.WalletID, &e.Amount, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger history: %w", err)
	}
	return entries, nil
}
