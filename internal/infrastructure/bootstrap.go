package infrastructure

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"walletd/internal/config"
	"walletd/internal/repository"
	"walletd/internal/service"
	transportHTTP "walletd/internal/transport/http"
	transportNATS "walletd/internal/transport/nats"
	"walletd/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the
// application. Returns the App, a cleanup function, or an error.
func Bootstrap(ctx context.Context) (*App, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	db, err := connectPostgres(cfg.DatabaseURL, int32(cfg.WebConcurrency))
	if err != nil {
		return nil, nil, err
	}

	var cleanupFns []func()
	cleanupFns = append(cleanupFns, db.Close)

	// Optional: Redis asset-type cache. Nil client means plain reads.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = connectRedis(cfg.RedisAddr)
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, func() { _ = rdb.Close() })
	} else {
		slog.Info("REDIS_ADDR not set, asset cache disabled")
	}

	var bus repository.MessageBus
	var servers []Server

	// Optional: NATS transaction events plus the ledger auditor consuming
	// them. Without NATS the engine simply does not announce commits.
	if cfg.NatsURL != "" {
		nc, err := connectNats(cfg.NatsURL)
		if err != nil {
			return nil, runCleanup(cleanupFns), err
		}
		cleanupFns = append(cleanupFns, nc.Close)

		bus = transportNATS.NewBus(nc)
		servers = append(servers, worker.NewAuditor(repository.NewAuditStore(db), nc))
	} else {
		slog.Info("NATS_URL not set, transaction events disabled")
	}

	assets := repository.NewAssetStore(db, rdb)
	var svc service.WalletService = repository.NewEngine(db, assets, bus, cfg.LockTimeout)

	servers = append(servers, transportHTTP.NewServer(cfg.Addr(), svc))

	return NewApp(servers), runCleanup(cleanupFns), nil
}

// runCleanup returns a single function that calls all cleanup functions in
// reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
