package model

import "time"

// TransactResponse is the success body of POST /transact. The serialized
// form is persisted in the idempotency record, so the field set and order
// are part of the replay contract.
type TransactResponse struct {
	TxID            string `json:"tx_id"`
	UserID          string `json:"user_id"`
	TransactionType string `json:"transaction_type"`
	Amount          int64  `json:"amount"`
	NewBalance      int64  `json:"new_balance"`
	AssetTypeID     int64  `json:"asset_type_id"`
	AssetCode       string `json:"asset_code"`
}

// BalanceResponse is the body of GET /balance/{user_id}.
type BalanceResponse struct {
	UserID      string `json:"user_id"`
	Balance     int64  `json:"balance"`
	AssetTypeID int64  `json:"asset_type_id"`
	AssetCode   string `json:"asset_code"`
}

// TransactionView is one history row as exposed over HTTP. The ledger reason
// tag surfaces as "type".
type TransactionView struct {
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`
	CreatedAt     time.Time `json:"created_at"`
}

// TransactionsResponse is the body of GET /transactions/{user_id},
// newest-first.
type TransactionsResponse struct {
	UserID         string            `json:"user_id"`
	AssetCode      string            `json:"asset_code"`
	AssetTypeID    int64             `json:"asset_type_id"`
	CurrentBalance int64             `json:"current_balance"`
	Transactions   []TransactionView `json:"transactions"`
}
