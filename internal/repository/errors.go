package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrAssetNotFound — no asset_types row with the requested code.
	ErrAssetNotFound = errors.New("asset type not found")
	// ErrWalletNotFound — no wallet for the (user, asset) pair. Also raised
	// when the treasury wallet for an asset is missing, which is an operator
	// configuration error (run the seeder).
	ErrWalletNotFound = errors.New("wallet not found for user/asset")
	// ErrInsufficientFunds — a SPEND would drive the user balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrIdempotencyConflict — same (key, user_id), different request hash.
	ErrIdempotencyConflict = errors.New("idempotency key already used with different request")
	// ErrDuplicateKey — the idempotency insert lost a race to a concurrent
	// request with the same (key, user_id). The engine resolves it by reading
	// back the winner's record.
	ErrDuplicateKey = errors.New("idempotency record already exists")
	// ErrLockTimeout — a row lock was not granted within the configured
	// lock_timeout. Transient: the client may retry with the same key.
	ErrLockTimeout = errors.New("timed out waiting for wallet lock")
	// ErrIdempotencyRaceLost — the duplicate-key fallback could not read the
	// winner's record back. Indicates a broken invariant in the database.
	ErrIdempotencyRaceLost = errors.New("idempotency record vanished after duplicate-key race")
)

const (
	pgUniqueViolation   = "23505"
	pgLockNotAvailable  = "55P03"
	pgSerializationFail = "40001"
	pgDeadlockDetected  = "40P01"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsTransient reports whether the error is safe for the client to retry.
// Duplicate application is prevented by the idempotency contract.
func IsTransient(err error) bool {
	if errors.Is(err, ErrLockTimeout) {
		return true
	}
	switch pgErrCode(err) {
	case pgSerializationFail, pgDeadlockDetected:
		return true
	}
	return false
}
