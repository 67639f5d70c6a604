package collector

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BarSentinel/internal/model"
	"BarSentinel/internal/recorder"
	"BarSentinel/internal/series"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// minuteBars returns n M1 bars closing at 60s, 120s, ... with closes 1..n.
func minuteBars(n int) []model.Bar {
	bars := make([]model.Bar, n)
	for i := range bars {
		c := float64(i + 1)
		bars[i] = model.Bar{Time: int64(i+1) * 60_000_000, Open: c - 0.5, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	}
	return bars
}

func newTestCollector(f Fetcher, store recorder.Recorder, now int64, s Settings) *Collector {
	if s.Base.IsUnspecified() {
		s.Base = model.M1
	}
	if s.Lookback == 0 {
		s.Lookback = time.Duration(now) * time.Second
	}
	c := NewCollector(f, store, s, discardLogger())
	c.Now = func() time.Time { return time.Unix(now, 0) }
	return c
}

func TestCollector_RefreshPagesForward(t *testing.T) {
	ctx := context.Background()
	f := &MockFetcher{Bars: minuteBars(10), PageSize: 3}
	store := recorder.NewMemoryRecorder()
	c := newTestCollector(f, store, 600, Settings{})

	n, err := c.Refresh(ctx, "XBTUSD")
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 6, f.Calls())

	inst, _ := c.Instrument(ctx, "XBTUSD")
	stored, err := store.LoadBars(ctx, inst, model.M1, 0)
	require.NoError(t, err)
	assert.Equal(t, minuteBars(10), stored)

	// the newest bar was partial; it is replaced and a new one appended
	next := minuteBars(11)
	next[9].Close = 42
	f.Bars = next
	n, err = c.Refresh(ctx, "XBTUSD")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err = store.LoadBars(ctx, inst, model.M1, 0)
	require.NoError(t, err)
	require.Len(t, stored, 11)
	assert.Equal(t, 42.0, stored[9].Close)
	assert.Equal(t, int64(660_000_000), stored[10].Time)
}

func TestCollector_RefreshStopsAtMaxPages(t *testing.T) {
	f := &MockFetcher{Bars: minuteBars(10), PageSize: 3}
	c := newTestCollector(f, recorder.NewMemoryRecorder(), 600, Settings{MaxPages: 2})

	n, err := c.Refresh(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, 2, f.Calls())
}

func TestCollector_RefreshNothingNew(t *testing.T) {
	store := recorder.NewMemoryRecorder()
	c := newTestCollector(&MockFetcher{Bars: []model.Bar{}}, store, 600, Settings{})

	n, err := c.Refresh(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := c.LatestBarTime(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.False(t, ok)
}

// flakyFetcher fails every call after the first ok ones.
type flakyFetcher struct {
	*MockFetcher
	ok  int
	err error
}

func (f *flakyFetcher) FetchBars(ctx context.Context, inst model.Instrument, g model.Granularity, since time.Time) ([]model.Bar, error) {
	if f.MockFetcher.Calls() >= f.ok {
		return nil, f.err
	}
	return f.MockFetcher.FetchBars(ctx, inst, g, since)
}

func TestCollector_RefreshKeepsProgressOnRetryableError(t *testing.T) {
	f := &flakyFetcher{MockFetcher: &MockFetcher{Bars: minuteBars(10), PageSize: 3}, ok: 1, err: ErrRateLimited}
	store := recorder.NewMemoryRecorder()
	c := newTestCollector(f, store, 600, Settings{})

	n, err := c.Refresh(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ts, ok, err := c.LatestBarTime(context.Background(), "XBTUSD")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, time.Unix(180, 0).UTC(), ts)
}

func TestCollector_RefreshErrors(t *testing.T) {
	f := &flakyFetcher{MockFetcher: &MockFetcher{}, ok: 0, err: ErrServiceUnavailable}
	c := newTestCollector(f, recorder.NewMemoryRecorder(), 600, Settings{})
	_, err := c.Refresh(context.Background(), "XBTUSD")
	assert.ErrorIs(t, err, ErrServiceUnavailable)

	c = newTestCollector(&MockFetcher{Symbols: []string{"XBTUSD"}}, recorder.NewMemoryRecorder(), 600, Settings{})
	_, err = c.Refresh(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestCollector_Bars(t *testing.T) {
	ctx := context.Background()
	c := newTestCollector(&MockFetcher{Bars: minuteBars(8)}, recorder.NewMemoryRecorder(), 480, Settings{})
	_, err := c.Refresh(ctx, "XBTUSD")
	require.NoError(t, err)

	m4, err := model.Custom(4, model.Minutes)
	require.NoError(t, err)

	all, err := c.Bars(ctx, "XBTUSD", m4, 0)
	require.NoError(t, err)
	require.Equal(t, 2, all.Len())
	newest, _ := all.Last()
	assert.Equal(t, model.Bar{Time: 480_000_000, Open: 4.5, High: 9, Low: 4, Close: 8, Volume: 4}, newest)

	one, err := c.Bars(ctx, "XBTUSD", m4, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, one.Len())

	base, err := c.Bars(ctx, "XBTUSD", model.Granularity{}, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, base.Len())

	_, err = c.Bars(ctx, "XBTUSD", model.S30, 0)
	assert.ErrorIs(t, err, series.ErrInvalidInput)
}

func TestBuildSnapshot(t *testing.T) {
	bars := series.NewBars(model.NewInstrument("XBTUSD", ""), model.M1, minuteBars(30))
	snap, err := BuildSnapshot(bars, model.IndicatorPeriods{SMA: 5, EMA: 5, RSI: 14, ATR: 14, Range: 10}, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, int64(1800_000_000), snap.Time)
	assert.Equal(t, 30, snap.Bars)
	assert.Equal(t, 30.0, snap.Close)
	assert.InDelta(t, 28.0, snap.SMA, 1e-9)
	assert.Greater(t, snap.EMA, 26.0)
	assert.Less(t, snap.EMA, 30.0)
	assert.InDelta(t, 100.0, snap.RSI, 1e-9)
	assert.InDelta(t, 2.0, snap.ATR, 1e-9)
	assert.Equal(t, 31.0, snap.RangeHigh)
	assert.Equal(t, 20.0, snap.RangeLow)
	assert.InDelta(t, 10.0/11.0, snap.Position, 1e-9)
}

func TestBuildSnapshot_FallsBackOnShortHistory(t *testing.T) {
	bars := series.NewBars(model.NewInstrument("XBTUSD", ""), model.M1, minuteBars(3))
	snap, err := BuildSnapshot(bars, model.DefaultIndicatorPeriods(), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 3.0, snap.SMA)
	assert.Equal(t, 3.0, snap.EMA)
	assert.Equal(t, 50.0, snap.RSI)
	assert.Equal(t, 2.0, snap.ATR)
	assert.Equal(t, 4.0, snap.RangeHigh)
	assert.Equal(t, 0.0, snap.RangeLow)
}

func TestBuildSnapshot_LogsFallbacksAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	bars := series.NewBars(model.NewInstrument("XBTUSD", ""), model.M1, minuteBars(3))

	_, err := BuildSnapshot(bars, model.DefaultIndicatorPeriods(), logger)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "rsi calculation failed")
	assert.Contains(t, out, "instrument=XBTUSD")
	assert.Contains(t, out, "granularity=M1")
}

func TestBuildSnapshot_Empty(t *testing.T) {
	_, err := BuildSnapshot(series.EmptyBars(model.NewInstrument("XBTUSD", ""), model.M1), model.DefaultIndicatorPeriods(), nil)
	assert.ErrorIs(t, err, series.ErrInvalidInput)
}

func TestCollector_Collect(t *testing.T) {
	c := newTestCollector(&MockFetcher{Bars: minuteBars(60)}, recorder.NewMemoryRecorder(), 3600, Settings{
		Periods: model.IndicatorPeriods{SMA: 3, EMA: 3, RSI: 3, ATR: 3, Range: 5},
	})
	snaps, err := c.Collect(context.Background(), "XBTUSD", []model.Granularity{model.M1, model.M5})
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, model.M1, snaps[0].Granularity)
	assert.Equal(t, model.M5, snaps[1].Granularity)
	assert.Equal(t, 60.0, snaps[1].Close)
}

func TestMockFetcher_GeneratesAlignedBars(t *testing.T) {
	f := &MockFetcher{Price: 100, Now: func() time.Time { return time.Unix(3600, 0) }}
	bars, err := f.FetchBars(context.Background(), model.Instrument{}, model.M5, time.Unix(1, 0))
	require.NoError(t, err)
	require.Len(t, bars, 12)
	for _, b := range bars {
		assert.Zero(t, b.Time%300_000_000)
		assert.LessOrEqual(t, b.Low, b.High)
	}
}
