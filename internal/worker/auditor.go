package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"walletd/internal/model"
)

// LedgerSource provides the consistent per-wallet read the auditor compares.
type LedgerSource interface {
	BalanceAndSum(ctx context.Context, walletID int64) (balance, sum int64, err error)
}

// Auditor listens for committed transaction events and re-checks the
// ledger-sum invariant for both touched wallets: the materialized balance
// must equal the sum of the wallet's entries. Drift means a broken write
// path and is logged as an error; the auditor never mutates anything.
type Auditor struct {
	src LedgerSource
	nc  *nats.Conn
}

func NewAuditor(src LedgerSource, nc *nats.Conn) *Auditor {
	return &Auditor{src: src, nc: nc}
}

// Run subscribes to the transaction topic and blocks until ctx is
// cancelled. QueueSubscribe: with multiple service replicas each event is
// audited once.
func (a *Auditor) Run(ctx context.Context) error {
	sub, err := a.nc.QueueSubscribe(model.TransactionEventTopic, "ledger_auditors", func(m *nats.Msg) {
		var event model.TransactionEvent
		if err := json.Unmarshal(m.Data, &event); err != nil {
			slog.Error("auditor: failed to unmarshal event", "error", err)
			return
		}
		if err := a.Audit(ctx, event); err != nil {
			slog.Error("auditor: check failed", "tx_id", event.TxID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("auditor: failed to subscribe: %w", err)
	}

	slog.Info("ledger auditor is running")

	<-ctx.Done()

	slog.Info("auditor shutting down, draining subscription...")
	return sub.Drain()
}

// Audit verifies balance = Σ(entries) for the user and treasury wallets of
// one committed transaction. It also logs the treasury balance: the treasury
// is allowed to go negative, and this is the operational hook for watching
// how far it does.
func (a *Auditor) Audit(ctx context.Context, event model.TransactionEvent) error {
	if _, err := a.checkWallet(ctx, event.TxID, event.UserWalletID); err != nil {
		return err
	}
	treasuryBalance, err := a.checkWallet(ctx, event.TxID, event.TreasuryWalletID)
	if err != nil {
		return err
	}

	slog.Info("audited transaction",
		"tx_id", event.TxID,
		"asset_code", event.AssetCode,
		"treasury_balance", treasuryBalance,
	)
	return nil
}

func (a *Auditor) checkWallet(ctx context.Context, txID string, walletID int64) (int64, error) {
	balance, sum, err := a.src.BalanceAndSum(ctx, walletID)
	if err != nil {
		return 0, fmt.Errorf("audit wallet %d: %w", walletID, err)
	}
	if balance != sum {
		return 0, fmt.Errorf("wallet %d drifted: balance %d, ledger sum %d (tx %s)", walletID, balance, sum, txID)
	}
	return balance, nil
}

// Start implements the infrastructure.Server interface.
func (a *Auditor) Start(ctx context.Context) error {
	return a.Run(ctx)
}

// Stop implements the infrastructure.Server interface (no-op, shutdown is via ctx).
func (a *Auditor) Stop(ctx context.Context) error {
	return nil
}
