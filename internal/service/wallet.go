package service

import (
	"context"

	"walletd/internal/model"
)

// WalletService defines the business operations of the wallet. Transport
// layers depend on this interface, not on the concrete engine.
//
// Transact returns the serialized success body rather than a struct:
// idempotent replays must be byte-identical to the first response, so the
// transport writes the payload through untouched.
type WalletService interface {
	Transact(ctx context.Context, cmd model.TransactCommand) ([]byte, error)
	Balance(ctx context.Context, userID, assetCode string) (*model.BalanceResponse, error)
	Transactions(ctx context.Context, userID, assetCode string) (*model.TransactionsResponse, error)
}
