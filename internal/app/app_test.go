package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarSentinel/internal/api"
	"BarSentinel/internal/collector"
	"BarSentinel/internal/config"
	"BarSentinel/internal/recorder"
	"BarSentinel/internal/slogx"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATA_PROVIDER", "mock")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("EXPORT_DIR", t.TempDir())
	cfg, err := ProvideConfig()
	require.NoError(t, err)
	return cfg
}

func TestProvideRecorder(t *testing.T) {
	cfg := testConfig(t)
	logger := slogx.Discard()

	cfg.Database.Driver = "sqlite"
	cfg.Database.SQLitePath = filepath.Join(t.TempDir(), "db", "bars.db")
	rec, cleanup := ProvideRecorder(cfg, logger)
	assert.IsType(t, &recorder.SQLiteRecorder{}, rec)
	cleanup()

	cfg.Database.Driver = "mysql"
	cfg.Database.MySQLDSN = "nodsn"
	rec, cleanup = ProvideRecorder(cfg, logger)
	assert.IsType(t, &recorder.MemoryRecorder{}, rec)
	cleanup()
}

func TestProvideFetcherAndSaver(t *testing.T) {
	cfg := testConfig(t)
	logger := slogx.Discard()
	th, err := ProvideThrottler(cfg)
	require.NoError(t, err)

	assert.Equal(t, "mock", ProvideFetcher(cfg, th, logger).Name())
	cfg.DataSource.Provider = "yahoo"
	assert.Equal(t, "yahoo", ProvideFetcher(cfg, th, logger).Name())
	cfg.DataSource.Provider = "kraken"
	assert.Equal(t, "kraken", ProvideFetcher(cfg, th, logger).Name())

	sv, err := ProvideSaver(cfg)
	require.NoError(t, err)
	assert.Equal(t, "csv", sv.Extension())

	cfg.Export.Format = "xml"
	_, err = ProvideSaver(cfg)
	assert.Error(t, err)
}

func TestProvideScheduler_BadCron(t *testing.T) {
	cfg := testConfig(t)
	logger := slogx.Discard()
	rec, cleanup := ProvideRecorder(cfg, logger)
	defer cleanup()
	col := ProvideCollector(cfg, &collector.MockFetcher{Price: 100}, rec, logger)
	sv, err := ProvideSaver(cfg)
	require.NoError(t, err)

	cfg.Schedule.RefreshCron = "not a cron"
	_, err = ProvideScheduler(context.Background(), cfg, col, ProvideNotifier(cfg, logger), rec, sv, logger)
	assert.Error(t, err)
}

func TestApp_RunUntilCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.API.Port = 0
	logger := slogx.Discard()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec, cleanup := ProvideRecorder(cfg, logger)
	defer cleanup()
	col := ProvideCollector(cfg, &collector.MockFetcher{Price: 100}, rec, logger)
	sv, err := ProvideSaver(cfg)
	require.NoError(t, err)
	tn := ProvideNotifier(cfg, logger)
	sched, err := ProvideScheduler(ctx, cfg, col, tn, rec, sv, logger)
	require.NoError(t, err)

	a := &App{Config: cfg, Logger: logger, Scheduler: sched, Notifier: tn, API: api.NewAPIHandler(col, logger)}

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx, true) }()

	require.Eventually(t, func() bool {
		_, ok, err := col.LatestBarTime(ctx, cfg.DataSource.Instruments[0])
		return err == nil && ok
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
