package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"walletd/internal/model"
)

// Engine executes the mutation path. It is the sole owner of the outermost
// database transaction: the stores it calls operate on that transaction and
// never commit on their own, so the two wallet updates, the two ledger
// entries and the idempotency record become visible together or not at all.
type Engine struct {
	db          *pgxpool.Pool
	assets      *AssetStore
	wallets     *WalletStore
	ledger      *LedgerStore
	idem        *IdempotencyStore
	bus         MessageBus
	lockTimeout time.Duration
}

// NewEngine wires the engine. bus may be nil; committed transactions are
// then simply not announced.
func NewEngine(db *pgxpool.Pool, assets *AssetStore, bus MessageBus, lockTimeout time.Duration) *Engine {
	return &Engine{
		db:          db,
		assets:      assets,
		wallets:     NewWalletStore(),
		ledger:      NewLedgerStore(),
		idem:        NewIdempotencyStore(),
		bus:         bus,
		lockTimeout: lockTimeout,
	}
}

// Transact applies one normalized mutation exactly once and returns the
// serialized success body. Replays with a matching hash get the stored bytes
// back verbatim.
func (e *Engine) Transact(ctx context.Context, cmd model.TransactCommand) ([]byte, error) {
	// Asset types are immutable reference data, so resolving through the
	// cache outside the transaction cannot observe stale state.
	asset, err := e.assets.Resolve(ctx, cmd.AssetCode)
	if err != nil {
		return nil, err
	}

	payload, event, err := e.run(ctx, cmd, asset)
	if errors.Is(err, ErrDuplicateKey) {
		// A concurrent request with the same (key, user_id) inserted first.
		// Our writes are rolled back; the winner's stored response is the
		// canonical outcome.
		return e.replayAfterRace(ctx, cmd)
	}
	if err != nil {
		return nil, err
	}

	e.publish(event)
	return payload, nil
}

func (e *Engine) run(ctx context.Context, cmd model.TransactCommand, asset *model.AssetType) ([]byte, *model.TransactionEvent, error) {
	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Bound the FOR UPDATE waits below; 55P03 surfaces as ErrLockTimeout.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", e.lockTimeout.Milliseconds())); err != nil {
		return nil, nil, fmt.Errorf("set lock_timeout: %w", err)
	}

	userWallet, err := e.wallets.Resolve(ctx, tx, cmd.UserID, asset.ID)
	if err != nil {
		return nil, nil, err
	}
	treasuryWallet, err := e.wallets.Resolve(ctx, tx, model.TreasuryUserID, asset.ID)
	if err != nil {
		return nil, nil, err
	}

	rec, err := e.idem.Lookup(ctx, tx, cmd.IdempotencyKey, cmd.UserID)
	if err != nil {
		return nil, nil, err
	}
	if rec != nil {
		if rec.RequestHash != cmd.RequestHash {
			return nil, nil, ErrIdempotencyConflict
		}
		// Same request replayed: no writes, no event.
		return rec.ResponsePayload, nil, nil
	}

	userWallet, treasuryWallet, err = e.wallets.LockPair(ctx, tx, userWallet.ID, treasuryWallet.ID)
	if err != nil {
		return nil, nil, err
	}

	userDelta, treasuryDelta := cmd.Type.Deltas(cmd.Amount)
	newBalance, err := e.wallets.Apply(ctx, tx, userWallet, treasuryWallet, userDelta, treasuryDelta)
	if err != nil {
		return nil, nil, err
	}

	txID := uuid.NewString()
	if err := e.ledger.InsertPair(ctx, tx, txID, cmd.Type, userWallet.ID, userDelta, treasuryWallet.ID, treasuryDelta); err != nil {
		return nil, nil, err
	}

	resp := model.TransactResponse{
		TxID:            txID,
		UserID:          cmd.UserID,
		TransactionType: cmd.Type.String(),
		Amount:          cmd.Amount,
		NewBalance:      newBalance,
		AssetTypeID:     asset.ID,
		AssetCode:       asset.Code,
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal response: %w", err)
	}

	if err := e.idem.Insert(ctx, tx, model.IdempotencyRecord{
		Key:             cmd.IdempotencyKey,
		UserID:          cmd.UserID,
		RequestHash:     cmd.RequestHash,
		ResponsePayload: payload,
	}); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("commit transaction: %w", err)
	}

	event := &model.TransactionEvent{
		TxID:             txID,
		UserID:           cmd.UserID,
		AssetCode:        asset.Code,
		UserWalletID:     userWallet.ID,
		TreasuryWalletID: treasuryWallet.ID,
		Amount:           cmd.Amount,
		TransactionType:  cmd.Type.String(),
		CreatedAt:        time.Now().UTC(),
	}
	return payload, event, nil
}

// replayAfterRace runs after losing the duplicate-key race: our transaction
// is already rolled back, so a fresh read-only transaction re-reads the
// winner's record. The unique violation is only raised once the winner has
// committed, so the record must be there; if it is not, the database broke
// an invariant and we say so loudly.
func (e *Engine) replayAfterRace(ctx context.Context, cmd model.TransactCommand) ([]byte, error) {
	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin replay transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rec, err := e.idem.Lookup(ctx, tx, cmd.IdempotencyKey, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrIdempotencyRaceLost
	}
	if rec.RequestHash != cmd.RequestHash {
		return nil, ErrIdempotencyConflict
	}
	return rec.ResponsePayload, nil
}

// Balance is the read view behind GET /balance/{user_id}. No locks; plain
// read-committed reads are all the contract requires.
func (e *Engine) Balance(ctx context.Context, userID, assetCode string) (*model.BalanceResponse, error) {
	asset, err := e.assets.Resolve(ctx, assetCode)
	if err != nil {
		return nil, err
	}
	wallet, err := e.wallets.Resolve(ctx, e.db, userID, asset.ID)
	if err != nil {
		return nil, err
	}
	return &model.BalanceResponse{
		UserID:      userID,
		Balance:     wallet.Balance,
		AssetTypeID: asset.ID,
		AssetCode:   asset.Code,
	}, nil
}

// Transactions is the read view behind GET /transactions/{user_id}:
// the wallet's full ledger history, newest first, plus the current balance
// for context.
func (e *Engine) Transactions(ctx context.Context, userID, assetCode string) (*model.TransactionsResponse, error) {
	asset, err := e.assets.Resolve(ctx, assetCode)
	if err != nil {
		return nil, err
	}
	wallet, err := e.wallets.Resolve(ctx, e.db, userID, asset.ID)
	if err != nil {
		return nil, err
	}
	entries, err := e.ledger.History(ctx, e.db, wallet.ID)
	if err != nil {
		return nil, err
	}

	views := make([]model.TransactionView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, model.TransactionView{
			TransactionID: entry.TransactionID,
			Amount:        entry.Amount,
			Type:          entry.Reason,
			CreatedAt:     entry.CreatedAt,
		})
	}

	return &model.TransactionsResponse{
		UserID:         userID,
		AssetCode:      asset.Code,
		AssetTypeID:    asset.ID,
		CurrentBalance: wallet.Balance,
		Transactions:   views,
	}, nil
}

func (e *Engine) publish(event *model.TransactionEvent) {
	if e.bus == nil || event == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	// Best effort: the mutation is already committed, a lost event only
	// degrades the audit stream.
	if err := e.bus.Publish(model.TransactionEventTopic, data); err != nil {
		slog.Warn("transaction event publish failed", "tx_id", event.TxID, "error", err)
	}
}
