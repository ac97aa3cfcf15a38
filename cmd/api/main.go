package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"walletd/internal/infrastructure"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := infrastructure.Bootstrap(ctx)
	if err != nil {
		if cleanup != nil {
			cleanup()
		}
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	slog.Info("walletd is running")

	if err := app.Run(ctx); err != nil {
		slog.Error("service exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("walletd stopped")
}
