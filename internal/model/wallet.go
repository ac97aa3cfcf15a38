package model

import "time"

// TreasuryUserID is the reserved user_id of the system counterparty wallet.
// Every credit to a user wallet is funded by the treasury wallet of the same
// asset, and every spend flows back into it. The treasury is an ordinary row
// in the wallets table; this string is the only thing that makes it special.
const TreasuryUserID = "SYSTEM_TREASURY"

// AssetType is reference data for one supported virtual currency.
// Rows are inserted by seeding and never mutated afterwards.
type AssetType struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Wallet holds the materialized balance for one (user, asset) pair.
// Balance is a signed integer in the asset's smallest unit. User wallets are
// bounded below by zero; the treasury wallet is allowed to go negative.
type Wallet struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	AssetTypeID int64     `json:"asset_type_id"`
	Balance     int64     `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

// LedgerEntry is one immutable half of a double-entry transaction. Exactly
// two entries share a transaction id and their amounts sum to zero.
type LedgerEntry struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"transaction_id"`
	WalletID      int64     `json:"wallet_id"`
	Amount        int64     `json:"amount"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// IdempotencyRecord caches the outcome of a committed mutation, keyed by
// (key, user_id). ResponsePayload holds the exact serialized success body so
// that replays are byte-identical to the first response.
type IdempotencyRecord struct {
	Key             string
	UserID          string
	RequestHash     string
	ResponsePayload []byte
	CreatedAt       time.Time
}
