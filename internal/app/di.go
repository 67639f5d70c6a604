package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"BarSentinel/internal/collector"
	"BarSentinel/internal/config"
	"BarSentinel/internal/notifier"
	"BarSentinel/internal/recorder"
	"BarSentinel/internal/saver"
	"BarSentinel/internal/scheduler"
	"BarSentinel/internal/slogx"
)

// ProvideConfig loads and validates the config named by CONFIG_PATH (for Wire).
func ProvideConfig() (*config.Config, error) {
	path := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// ProvideLogger builds the logger from config and makes it the default (for Wire).
func ProvideLogger(cfg *config.Config) *slog.Logger {
	logger := slogx.NewDefault(cfg.LogLevel)
	slog.SetDefault(logger)
	return logger
}

// ProvideRecorder opens the configured database. It falls back to an
// in-memory recorder when the database cannot be opened (for Wire).
func ProvideRecorder(cfg *config.Config, logger *slog.Logger) (recorder.Recorder, func()) {
	var (
		rec recorder.Recorder
		err error
	)
	switch cfg.Database.Driver {
	case "sqlite":
		if err = os.MkdirAll(filepath.Dir(cfg.Database.SQLitePath), 0o755); err != nil {
			break
		}
		var sr *recorder.SQLiteRecorder
		if sr, err = recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger); err == nil {
			rec = sr
		}
	case "mysql":
		var mr *recorder.MySQLRecorder
		if mr, err = recorder.NewMySQLRecorder(cfg.Database.MySQLDSN, logger); err == nil {
			rec = mr
		}
	}
	if err != nil {
		logger.Warn("init recorder failed, using memory", "driver", cfg.Database.Driver, "err", err)
	}
	if rec == nil {
		rec = recorder.NewMemoryRecorder()
	}
	return rec, func() {
		if err := rec.Close(); err != nil {
			logger.Error("close recorder", "err", err)
		}
	}
}

// ProvideThrottler builds the request throttler shared by the fetchers (for Wire).
func ProvideThrottler(cfg *config.Config) (*collector.Throttler, error) {
	return collector.NewThrottler(cfg.DataSource.Throttle.Limit, cfg.DataSource.Throttle.Period)
}

// ProvideFetcher creates the configured data source (for Wire).
func ProvideFetcher(cfg *config.Config, th *collector.Throttler, logger *slog.Logger) collector.Fetcher {
	ds := cfg.DataSource
	var f collector.Fetcher
	switch ds.Provider {
	case "yahoo":
		f = collector.NewYahooFetcher(ds.BaseURL, cfg.Proxy, th)
	case "mock":
		f = &collector.MockFetcher{Price: 100}
	default:
		f = collector.NewKrakenFetcher(ds.BaseURL, cfg.Proxy, th, logger)
	}
	logger.Info("data source", "provider", f.Name())
	return f
}

// ProvideCollector creates the collector over the fetcher and recorder (for Wire).
func ProvideCollector(cfg *config.Config, f collector.Fetcher, rec recorder.Recorder, logger *slog.Logger) *collector.Collector {
	return collector.NewCollector(f, rec, collector.Settings{
		Base:     cfg.DataSource.Base,
		Periods:  cfg.Indicators,
		Lookback: cfg.DataSource.Lookback,
		MaxPages: cfg.DataSource.MaxPages,
	}, logger)
}

// ProvideSaver creates the export saver from config (for Wire).
// Returns error if the export format is not supported.
func ProvideSaver(cfg *config.Config) (saver.Saver, error) {
	s := saver.New(cfg.Export.Format)
	if s == nil {
		return nil, fmt.Errorf("unsupported export format %q (use: csv, parquet, json)", cfg.Export.Format)
	}
	return s, nil
}

// ProvideNotifier creates the Telegram notifier (for Wire).
func ProvideNotifier(cfg *config.Config, logger *slog.Logger) *notifier.TelegramNotifier {
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
}

// ProvideScheduler creates the scheduler and registers its tasks (for Wire).
func ProvideScheduler(ctx context.Context, cfg *config.Config, col *collector.Collector, tn scheduler.Sender,
	rec recorder.Recorder, sv saver.Saver, logger *slog.Logger) (*scheduler.Scheduler, error) {
	s := scheduler.NewScheduler(ctx, col, tn, rec, sv, scheduler.Options{
		Instruments:   cfg.DataSource.Instruments,
		Granularities: cfg.Granularities(),
		ExportDir:     cfg.Export.Dir,
	}, logger)
	if err := s.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.ReportCron); err != nil {
		return nil, fmt.Errorf("register cron tasks: %w", err)
	}
	return s, nil
}
