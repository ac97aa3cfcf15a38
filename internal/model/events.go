package model

import "time"

// TransactionEventTopic carries committed mutations to downstream consumers.
const TransactionEventTopic = "transactions.created"

// TransactionEvent is published after a mutation commits. It references the
// committed state only; consumers that need authoritative balances read the
// database.
type TransactionEvent struct {
	TxID             string    `json:"tx_id"`
	UserID           string    `json:"user_id"`
	AssetCode        string    `json:"asset_code"`
	UserWalletID     int64     `json:"user_wallet_id"`
	TreasuryWalletID int64     `json:"treasury_wallet_id"`
	Amount           int64     `json:"amount"`
	TransactionType  string    `json:"transaction_type"`
	CreatedAt        time.Time `json:"created_at"`
}
