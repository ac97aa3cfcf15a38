package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrReservedUser rejects the treasury acting as a direct client.
var ErrReservedUser = errors.New("SYSTEM_TREASURY is reserved")

// ValidationError marks malformed or out-of-range input. The transport layer
// maps it to 422 before any database work happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// TransactRequest is the wire shape of POST /transact.
type TransactRequest struct {
	UserID          string `json:"user_id"`
	Amount          int64  `json:"amount"`
	TransactionType string `json:"transaction_type"`
	AssetCode       string `json:"asset_code"`
}

// TransactCommand is the normalized input the engine consumes. AssetCode is
// uppercase, Type is a parsed variant and RequestHash is the canonical
// payload digest used as the idempotency equality predicate.
type TransactCommand struct {
	UserID         string
	Amount         int64
	Type           TransactionType
	AssetCode      string
	IdempotencyKey string
	RequestHash    string
}

// NormalizeAssetCode trims surrounding whitespace and uppercases the code.
// An empty result is a validation error.
func NormalizeAssetCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return "", &ValidationError{Field: "asset_code", Reason: "must not be blank"}
	}
	return normalized, nil
}

// Normalize validates the raw request and produces the engine command.
// The idempotency key is checked by the transport before this point, since
// its absence is a different error class than payload validation.
func (r TransactRequest) Normalize(idempotencyKey string) (TransactCommand, error) {
	if r.UserID == "" {
		return TransactCommand{}, &ValidationError{Field: "user_id", Reason: "must not be empty"}
	}
	if r.UserID == TreasuryUserID {
		return TransactCommand{}, ErrReservedUser
	}
	if r.Amount <= 0 {
		return TransactCommand{}, &ValidationError{Field: "amount", Reason: "must be a positive integer"}
	}
	txType, err := ParseTransactionType(r.TransactionType)
	if err != nil {
		return TransactCommand{}, &ValidationError{Field: "transaction_type", Reason: "must be one of TOPUP, BONUS, SPEND"}
	}
	assetCode, err := NormalizeAssetCode(r.AssetCode)
	if err != nil {
		return TransactCommand{}, err
	}

	return TransactCommand{
		UserID:         r.UserID,
		Amount:         r.Amount,
		Type:           txType,
		AssetCode:      assetCode,
		IdempotencyKey: idempotencyKey,
		RequestHash:    RequestHash(r.UserID, r.Amount, txType, assetCode),
	}, nil
}

// canonicalPayload exists only for hashing. Its fields are declared in
// lexicographic key order; encoding/json preserves declaration order, which
// pins the byte form: keys sorted, no insignificant whitespace, amount as a
// bare integer, strings post-normalization.
type canonicalPayload struct {
	Amount          int64  `json:"amount"`
	AssetCode       string `json:"asset_code"`
	TransactionType string `json:"transaction_type"`
	UserID          string `json:"user_id"`
}

// RequestHash is the SHA-256 hex digest of the canonical payload encoding.
// Two requests are "the same request" iff their hashes match.
func RequestHash(userID string, amount int64, txType TransactionType, assetCode string) string {
	payload, err := json.Marshal(canonicalPayload{
		Amount:          amount,
		AssetCode:       assetCode,
		TransactionType: string(txType),
		UserID:          userID,
	})
	if err != nil {
		// canonicalPayload contains nothing json.Marshal can reject
		panic(err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
