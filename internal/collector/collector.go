package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"BarSentinel/internal/calculator"
	"BarSentinel/internal/model"
	"BarSentinel/internal/recorder"
	"BarSentinel/internal/resample"
	"BarSentinel/internal/series"
)

// Settings configures a Collector.
type Settings struct {
	Base     model.Granularity // granularity fetched and stored
	Periods  model.IndicatorPeriods
	Lookback time.Duration // history loaded into an empty store
	MaxPages int           // fetch calls per Refresh
}

// Collector orchestrates data fetching, storage and indicator computation.
type Collector struct {
	Fetcher Fetcher
	Store   recorder.Recorder
	Settings
	Now func() time.Time

	logger *slog.Logger

	mu          sync.Mutex
	instruments map[string]model.Instrument
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, store recorder.Recorder, settings Settings, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	if settings.MaxPages <= 0 {
		settings.MaxPages = 50
	}
	if settings.Lookback <= 0 {
		settings.Lookback = 30 * 24 * time.Hour
	}
	return &Collector{
		Fetcher:     fetcher,
		Store:       store,
		Settings:    settings,
		Now:         time.Now,
		logger:      logger,
		instruments: make(map[string]model.Instrument),
	}
}

// Instrument resolves name through the fetcher once and caches the result.
func (c *Collector) Instrument(ctx context.Context, name string) (model.Instrument, error) {
	c.mu.Lock()
	inst, ok := c.instruments[name]
	c.mu.Unlock()
	if ok {
		return inst, nil
	}
	inst, err := c.Fetcher.LookupInstrument(ctx, name)
	if err != nil {
		return model.Instrument{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	c.mu.Lock()
	c.instruments[name] = inst
	c.mu.Unlock()
	return inst, nil
}

// Refresh pages forward from the newest stored bar (or the lookback start)
// and stores what was fetched. The stored bar at the cursor is replaced since
// it may have been partial. It returns the number of bars written.
func (c *Collector) Refresh(ctx context.Context, name string) (int, error) {
	inst, err := c.Instrument(ctx, name)
	if err != nil {
		return 0, err
	}

	from := model.Micros(c.Now().Add(-c.Lookback))
	latest, ok, err := c.Store.LatestTime(ctx, inst, c.Base)
	if err != nil {
		return 0, fmt.Errorf("refresh %s: %w", name, err)
	}
	if ok {
		from = latest
	}

	cursor := from
	var fetched []model.Bar
	for page := 0; page < c.MaxPages; page++ {
		bars, err := c.Fetcher.FetchBars(ctx, inst, c.Base, time.UnixMicro(cursor).UTC())
		if err != nil {
			if len(fetched) > 0 && IsRetryable(err) {
				c.logger.Warn("refresh interrupted, keeping fetched bars", "instrument", name, "bars", len(fetched), "err", err)
				break
			}
			return 0, fmt.Errorf("fetch %s: %w", name, err)
		}

		advanced := false
		for _, b := range bars {
			if b.Time < cursor {
				continue
			}
			n := len(fetched)
			switch {
			case n > 0 && b.Time == fetched[n-1].Time:
				fetched[n-1] = b
			case n > 0 && b.Time < fetched[n-1].Time:
				continue
			default:
				fetched = append(fetched, b)
			}
			if b.Time > cursor {
				advanced = true
			}
		}
		if !advanced {
			break
		}
		cursor = fetched[len(fetched)-1].Time
	}

	if len(fetched) == 0 {
		c.logger.Debug("refresh: nothing new", "instrument", name)
		return 0, nil
	}
	if err := c.Store.ReplaceBars(ctx, inst, c.Base, from, fetched); err != nil {
		return 0, fmt.Errorf("store %s: %w", name, err)
	}
	c.logger.Info("refreshed", "instrument", name, "granularity", c.Base.String(), "bars", len(fetched))
	return len(fetched), nil
}

// windowStart returns the earliest base bar time needed for limit bars of g.
func (c *Collector) windowStart(g model.Granularity, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	now := c.Now().UTC()
	if g.IsMonthBased() {
		return model.Micros(now.AddDate(0, -(limit+1)*g.Months, 0))
	}
	return model.Micros(now.Add(-time.Duration(limit+1) * g.Duration()))
}

// Bars returns up to limit newest bars of name at g, compressed from stored
// base bars. A limit of zero or less returns everything stored.
func (c *Collector) Bars(ctx context.Context, name string, g model.Granularity, limit int) (*series.Bars, error) {
	inst, err := c.Instrument(ctx, name)
	if err != nil {
		return nil, err
	}
	if g.IsUnspecified() {
		g = c.Base
	}
	if !g.ReachableFrom(c.Base) {
		return nil, fmt.Errorf("%w: %s is not reachable from %s", series.ErrInvalidInput, g, c.Base)
	}

	raw, err := c.Store.LoadBars(ctx, inst, c.Base, c.windowStart(g, limit))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	out, err := resample.Compress(g, series.NewBars(inst, c.Base, raw))
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		out = out.TrimToLength(limit)
	}
	return out, nil
}

// Snapshot computes the indicator snapshot of name at g.
func (c *Collector) Snapshot(ctx context.Context, name string, g model.Granularity) (*model.Snapshot, error) {
	need := max(c.Periods.SMA, c.Periods.EMA, c.Periods.RSI+1, c.Periods.ATR+1, c.Periods.Range)
	bars, err := c.Bars(ctx, name, g, 3*need)
	if err != nil {
		return nil, err
	}
	return BuildSnapshot(bars, c.Periods, c.logger)
}

// Collect refreshes name and returns one snapshot per granularity.
func (c *Collector) Collect(ctx context.Context, name string, grans []model.Granularity) ([]*model.Snapshot, error) {
	if _, err := c.Refresh(ctx, name); err != nil {
		return nil, err
	}
	snaps := make([]*model.Snapshot, 0, len(grans))
	for _, g := range grans {
		snap, err := c.Snapshot(ctx, name, g)
		if err != nil {
			return nil, fmt.Errorf("snapshot %s %s: %w", name, g, err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// LatestBarTime returns the closing time of the newest stored base bar.
func (c *Collector) LatestBarTime(ctx context.Context, name string) (time.Time, bool, error) {
	inst, err := c.Instrument(ctx, name)
	if err != nil {
		return time.Time{}, false, err
	}
	ts, ok, err := c.Store.LatestTime(ctx, inst, c.Base)
	if err != nil || !ok {
		return time.Time{}, ok, err
	}
	return time.UnixMicro(ts).UTC(), true, nil
}

var errNoBars = errors.New("no bars")

// BuildSnapshot computes indicators over bars. An indicator that cannot be
// computed is logged and replaced by a neutral value.
func BuildSnapshot(bars *series.Bars, p model.IndicatorPeriods, logger *slog.Logger) (*model.Snapshot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	last, err := bars.Last()
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", series.ErrInvalidInput, bars.Instrument(), bars.Granularity(), errNoBars)
	}
	snap := &model.Snapshot{
		Instrument:  bars.Instrument(),
		Granularity: bars.Granularity(),
		Time:        last.Time,
		Bars:        bars.Len(),
		Close:       last.Close,
	}
	attrs := []any{"instrument", snap.Instrument.Name, "granularity", snap.Granularity.String()}

	// SMA
	if v, err := lastValue(bars.SMA(p.SMA)); err != nil {
		logger.Warn("sma calculation failed, using last close", append(attrs, "err", err)...)
		snap.SMA = last.Close
	} else {
		snap.SMA = v
	}

	// EMA
	if v, err := lastValue(bars.EMA(p.EMA)); err != nil {
		logger.Warn("ema calculation failed, using last close", append(attrs, "err", err)...)
		snap.EMA = last.Close
	} else {
		snap.EMA = v
	}

	// RSI
	if v, err := lastValue(bars.RSI(p.RSI)); err != nil {
		logger.Warn("rsi calculation failed, defaulting to 50", append(attrs, "err", err)...)
		snap.RSI = 50
	} else {
		snap.RSI = v
	}

	// ATR
	if v, err := lastValue(bars.ATR(p.ATR)); err != nil {
		logger.Warn("atr calculation failed, using last true range", append(attrs, "err", err)...)
		snap.ATR = bars.TrueRange().GetOr(0, 0)
	} else {
		snap.ATR = v
	}

	// range over the newest Range bars, or all of them when fewer
	window := min(p.Range, bars.Len())
	if window <= 0 {
		window = bars.Len()
	}
	high, herr := lastValue(bars.HighestHigh(window))
	low, lerr := lastValue(bars.LowestLow(window))
	if err := errors.Join(herr, lerr); err != nil {
		logger.Warn("range calculation failed", append(attrs, "err", err)...)
		high, low = last.Close, last.Close
	}
	snap.RangeHigh, snap.RangeLow = high, low

	if pos, err := calculator.RangePosition(last.Close, high, low); err != nil {
		logger.Warn("range position calculation failed", append(attrs, "err", err)...)
		snap.Position = 0.5
	} else {
		snap.Position = pos
	}
	return snap, nil
}

// lastValue returns the newest value of an indicator result.
func lastValue(s *series.Numeric, err error) (float64, error) {
	if err != nil {
		return 0, err
	}
	if s.IsEmpty() {
		return 0, errNoBars
	}
	return s.Last()
}
