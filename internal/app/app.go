// Package app wires and runs the BarSentinel process.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"BarSentinel/internal/api"
	"BarSentinel/internal/config"
	"BarSentinel/internal/notifier"
	"BarSentinel/internal/scheduler"
)

// App holds application dependencies built by Wire.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Scheduler *scheduler.Scheduler
	Notifier  *notifier.TelegramNotifier
	API       *api.APIHandler
}

// Run starts cron, the API server and Telegram polling, and blocks until ctx
// is cancelled. With runOnStart the refresh and report tasks run once first.
func (a *App) Run(ctx context.Context, runOnStart bool) error {
	a.Scheduler.Start()
	defer a.Scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	if !a.Config.API.Disabled {
		srv := a.API.NewServer(a.Config.API.Port)
		g.Go(func() error {
			a.Logger.Info("api listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		a.Notifier.StartPolling(gctx, a.Scheduler.HandleCommand)
		return nil
	})

	if runOnStart {
		g.Go(func() error {
			a.Logger.Info("RUN_ON_START enabled, executing refresh and report now")
			a.Scheduler.RunRefreshNow()
			a.Scheduler.RunReportNow()
			return nil
		})
	}

	a.Logger.Info("BarSentinel is running", "instruments", a.Config.DataSource.Instruments)
	return g.Wait()
}
