package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"BarSentinel/internal/collector"
	"BarSentinel/internal/model"
	"BarSentinel/internal/notifier"
	"BarSentinel/internal/recorder"
	"BarSentinel/internal/saver"
)

// Sender delivers report messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Options lists what the tasks work on.
type Options struct {
	Instruments   []string
	Granularities []model.Granularity // reported and exported
	ExportDir     string
	Concurrency   int // instruments refreshed at once
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Notifier  Sender
	Recorder  recorder.Recorder
	Saver     saver.Saver // nil disables export
	Options
	Ctx context.Context
	Now func() time.Time

	logger *slog.Logger
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, tn Sender, rec recorder.Recorder, sv saver.Saver, opts Options, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Notifier:  tn,
		Recorder:  rec,
		Saver:     sv,
		Options:   opts,
		Ctx:       ctx,
		Now:       time.Now,
		logger:    logger,
	}
}

// RegisterAll registers the refresh and report tasks.
func (s *Scheduler) RegisterAll(refreshCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, func() { s.RunRefreshNow() }); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.RunReportNow); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info("scheduler started", "entries", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running tasks.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunRefreshNow refreshes every instrument and exports the configured
// granularities. It returns the instruments that failed.
func (s *Scheduler) RunRefreshNow() []string {
	s.logger.Info("running refresh task", "instruments", len(s.Instruments))

	var (
		mu     sync.Mutex
		failed []string
	)
	var g errgroup.Group
	g.SetLimit(s.Concurrency)
	for _, name := range s.Instruments {
		g.Go(func() error {
			if err := s.refreshOne(name); err != nil {
				s.logger.Error("refresh failed", "instrument", name, "err", err)
				mu.Lock()
				failed = append(failed, fmt.Sprintf("%s: %v", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck

	if len(failed) > 0 {
		s.trySend("❌ <b>Refresh failed</b>\n\n" + strings.Join(failed, "\n"))
	}
	return failed
}

func (s *Scheduler) refreshOne(name string) error {
	if _, err := s.Collector.Refresh(s.Ctx, name); err != nil {
		return err
	}
	if s.Saver == nil {
		return nil
	}
	for _, gran := range s.Granularities {
		bars, err := s.Collector.Bars(s.Ctx, name, gran, 0)
		if err != nil {
			return fmt.Errorf("load %s: %w", gran, err)
		}
		if bars.IsEmpty() {
			continue
		}
		path, err := saver.Export(s.Saver, s.ExportDir, bars)
		if err != nil {
			return err
		}
		s.logger.Debug("exported", "instrument", name, "granularity", gran.String(), "path", path)
	}
	return nil
}

// RunReportNow builds, records and sends the snapshot report.
func (s *Scheduler) RunReportNow() {
	s.logger.Info("running report task")
	var snaps []*model.Snapshot
	var failed []string
	for _, name := range s.Instruments {
		for _, gran := range s.Granularities {
			snap, err := s.Collector.Snapshot(s.Ctx, name, gran)
			if err != nil {
				s.logger.Error("snapshot failed", "instrument", name, "granularity", gran.String(), "err", err)
				failed = append(failed, fmt.Sprintf("%s %s: %v", name, gran, err))
				continue
			}
			if err := s.Recorder.RecordSnapshot(s.Ctx, snap); err != nil {
				s.logger.Error("record snapshot", "err", err)
			}
			snaps = append(snaps, snap)
		}
	}

	report := notifier.FormatSnapshotReport(snaps, s.Now())
	if len(failed) > 0 {
		report += "\n⚠️ " + strings.Join(failed, "\n⚠️ ")
	}
	s.trySend(report)
}

// Status returns the newest stored bar of every instrument.
func (s *Scheduler) Status() []notifier.StatusEntry {
	entries := make([]notifier.StatusEntry, 0, len(s.Instruments))
	for _, name := range s.Instruments {
		latest, _, err := s.Collector.LatestBarTime(s.Ctx, name)
		entries = append(entries, notifier.StatusEntry{Instrument: name, Latest: latest, Err: err})
	}
	return entries
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	switch strings.ToLower(strings.TrimSpace(command)) {
	case "/report":
		s.RunReportNow()
		return ""
	case "/status":
		return notifier.FormatStatus(s.Status(), s.Now())
	default:
		return notifier.HelpText()
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.logger.Error("send notification", "err", err)
	}
}
