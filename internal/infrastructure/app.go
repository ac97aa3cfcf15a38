package infrastructure

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Server is anything with a blocking Start and a graceful Stop. The HTTP
// server and the ledger auditor both qualify.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type App struct {
	servers []Server
}

func NewApp(servers []Server) *App {
	return &App{servers: servers}
}

// Run starts every server and blocks until the context is cancelled or one
// of them fails, then stops them all gracefully.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range a.servers {
		s := srv
		g.Go(func() error {
			return s.Start(ctx)
		})
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range a.servers {
		if err := srv.Stop(stopCtx); err != nil {
			slog.Warn("server stop failed", "error", err)
		}
	}

	return g.Wait()
}
