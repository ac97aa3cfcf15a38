package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"walletd/internal/model"
)

// IdempotencyStore records one (key, user_id) → request hash + cached
// response per committed mutation. Both operations run inside the engine's
// transaction: the lookup so a prior commit is visible, the insert so the
// record and the ledger writes share one commit boundary. Records are
// retained indefinitely; operators may prune offline.
type IdempotencyStore struct{}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{}
}

// Lookup returns the existing record for (key, userID), or nil if absent.
func (s *IdempotencyStore) Lookup(ctx context.Context, q querier, key, userID string) (*model.IdempotencyRecord, error) {
	var rec model.IdempotencyRecord
	err := q.QueryRow(ctx,
		`SELECT key, user_id, request_hash, response_payload, created_at
		 FROM idempotency_keys
		 WHERE key = $1 AND user_id = $2`,
		key, userID,
	).Scan(&rec.Key, &rec.UserID, &rec.RequestHash, &rec.ResponsePayload, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency record: %w", err)
	}
	return &rec, nil
}

// Insert persists a new record. A unique violation on the composite primary
// key surfaces as ErrDuplicateKey: a concurrent request with the same
// (key, user_id) won the race and its record is the canonical outcome.
func (s *IdempotencyStore) Insert(ctx context.Context, tx pgx.Tx, rec model.IdempotencyRecord) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO idempotency_keys (key, user_id, request_hash, response_payload)
		 VALUES ($1, $2, $3, $4)`,
		rec.Key, rec.UserID, rec.RequestHash, rec.ResponsePayload,
	)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return ErrDuplicateKey
		}
		return fmt.Errorf("insert idempotency record: %w", err)
	}
	return nil
}
