package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"walletd/internal/model"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so reads can run
// either standalone or inside the engine's transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// WalletStore reads and mutates wallet rows. All mutations go through Apply
// and only ever run inside the engine's transaction, under row locks taken
// by LockPair.
type WalletStore struct{}

func NewWalletStore() *WalletStore {
	return &WalletStore{}
}

const walletColumns = `id, user_id, asset_type_id, balance, created_at`

func scanWallet(row pgx.Row) (*model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.AssetTypeID, &w.Balance, &w.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan wallet: %w", err)
	}
	return &w, nil
}

// Resolve fetches a wallet without locking it.
func (s *WalletStore) Resolve(ctx context.Context, q querier, userID string, assetTypeID int64) (*model.Wallet, error) {
	row := q.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND asset_type_id = $2`,
		userID, assetTypeID,
	)
	return scanWallet(row)
}

// LockPair acquires exclusive row locks on two wallets in ascending id
// order, so every concurrent transaction walks the same total order and
// hold-and-wait cycles cannot form. The returned rows reflect all writes
// committed before the locks were granted; callers must use them, not any
// earlier unlocked read.
func (s *WalletStore) LockPair(ctx context.Context, tx pgx.Tx, idA, idB int64) (*model.Wallet, *model.Wallet, error) {
	lo, hi := idA, idB
	if lo > hi {
		lo, hi = hi, lo
	}

	locked := make(map[int64]*model.Wallet, 2)
	for _, id := range []int64{lo, hi} {
		w, err := s.lockOne(ctx, tx, id)
		if err != nil {
			return nil, nil, err
		}
		locked[id] = w
	}
	return locked[idA], locked[idB], nil
}

func (s *WalletStore) lockOne(ctx context.Context, tx pgx.Tx, id int64) (*model.Wallet, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE id = $1 FOR UPDATE`,
		id,
	)
	w, err := scanWallet(row)
	if err != nil && pgErrCode(err) == pgLockNotAvailable {
		return nil, ErrLockTimeout
	}
	return w, err
}

// Apply adds the signed deltas to both locked wallets. The user wallet is
// bounded below by zero; the treasury wallet is allowed to go negative.
// Returns the user's new balance.
func (s *WalletStore) Apply(ctx context.Context, tx pgx.Tx, user, treasury *model.Wallet, userDelta, treasuryDelta int64) (int64, error) {
	newBalance := user.Balance + userDelta
	if newBalance < 0 {
		return 0, ErrInsufficientFunds
	}

	for _, upd := range []struct {
		id    int64
		delta int64
	}{
		{user.ID, userDelta},
		{treasury.ID, treasuryDelta},
	} {
		tag, err := tx.Exec(ctx,
			`UPDATE wallets SET balance = balance + $1 WHERE id = $2`,
			upd.delta, upd.id,
		)
		if err != nil {
			return 0, fmt.Errorf("update wallet %d: %w", upd.id, err)
		}
		if tag.RowsAffected() != 1 {
			return 0, fmt.Errorf("update wallet %d: %w", upd.id, ErrWalletNotFound)
		}
	}
	return newBalance, nil
}
