//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"BarSentinel/internal/api"
	"BarSentinel/internal/app"
	"BarSentinel/internal/collector"
	"BarSentinel/internal/notifier"
	"BarSentinel/internal/scheduler"
)

// InitializeApp builds the App graph via Wire.
// Caller must call the returned cleanup when done.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		app.ProvideConfig,
		app.ProvideLogger,
		app.ProvideRecorder,
		app.ProvideThrottler,
		app.ProvideFetcher,
		app.ProvideCollector,
		app.ProvideSaver,
		app.ProvideNotifier,
		app.ProvideScheduler,
		api.NewAPIHandler,
		wire.Bind(new(api.BarService), new(*collector.Collector)),
		wire.Bind(new(scheduler.Sender), new(*notifier.TelegramNotifier)),
		wire.Struct(new(app.App), "*"),
	)
	return nil, nil, nil
}
