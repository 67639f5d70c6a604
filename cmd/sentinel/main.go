package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"BarSentinel/internal/slogx"
)

func init() {
	slog.SetDefault(slogx.NewDefault("info"))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, cleanup, err := InitializeApp(ctx)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := a.Run(ctx, os.Getenv("RUN_ON_START") == "true"); err != nil {
		slog.Error("BarSentinel stopped with error", "error", err)
		cleanup()
		os.Exit(1)
	}
	slog.Info("BarSentinel stopped")
}
