package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"walletd/internal/model"
)

// AssetStore resolves asset types by canonical code. Asset rows are
// immutable after seeding, so a Redis read-through cache with no TTL is
// safe; the cache is optional and a nil client degrades to plain reads.
type AssetStore struct {
	db  *pgxpool.Pool
	rdb *redis.Client
}

func NewAssetStore(db *pgxpool.Pool, rdb *redis.Client) *AssetStore {
	return &AssetStore{db: db, rdb: rdb}
}

func assetCacheKey(code string) string {
	return "asset:" + code
}

// Resolve returns the asset type for a normalized (uppercase) code.
func (s *AssetStore) Resolve(ctx context.Context, code string) (*model.AssetType, error) {
	if asset := s.fromCache(ctx, code); asset != nil {
		return asset, nil
	}

	var asset model.AssetType
	err := s.db.QueryRow(ctx,
		`SELECT id, code, name, created_at FROM asset_types WHERE code = $1`,
		code,
	).Scan(&asset.ID, &asset.Code, &asset.Name, &asset.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve asset %s: %w", code, err)
	}

	s.toCache(ctx, &asset)
	return &asset, nil
}

func (s *AssetStore) fromCache(ctx context.Context, code string) *model.AssetType {
	if s.rdb == nil {
		return nil
	}
	raw, err := s.rdb.Get(ctx, assetCacheKey(code)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("asset cache read failed", "code", code, "error", err)
		}
		return nil
	}
	var asset model.AssetType
	if err := json.Unmarshal(raw, &asset); err != nil {
		slog.Warn("asset cache entry corrupt, falling back to database", "code", code, "error", err)
		return nil
	}
	return &asset
}

func (s *AssetStore) toCache(ctx context.Context, asset *model.AssetType) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(asset)
	if err != nil {
		return
	}
	// No TTL: asset types are never mutated once seeded.
	if err := s.rdb.Set(ctx, assetCacheKey(asset.Code), raw, 0).Err(); err != nil {
		slog.Warn("asset cache write failed", "code", asset.Code, "error", err)
	}
}
