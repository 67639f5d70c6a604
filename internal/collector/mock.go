package collector

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"BarSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price    float64
	Bars     []model.Bar // served instead of generated bars when set, oldest first
	PageSize int         // bars per FetchBars call, default 720
	Symbols  []string    // known symbols; any symbol is known when empty
	Now      func() time.Time

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchBars has been called.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) LookupInstrument(_ context.Context, name string) (model.Instrument, error) {
	if len(m.Symbols) > 0 {
		found := false
		for _, s := range m.Symbols {
			if s == name {
				found = true
				break
			}
		}
		if !found {
			return model.Instrument{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, name)
		}
	}
	inst := model.NewInstrument(name, name)
	inst.DisplayDigits = 2
	return inst, nil
}

func (m *MockFetcher) FetchBars(ctx context.Context, _ model.Instrument, g model.Granularity, since time.Time) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	pageSize := m.PageSize
	if pageSize <= 0 {
		pageSize = 720
	}
	from := model.Micros(since)

	if m.Bars != nil {
		var out []model.Bar
		for _, b := range m.Bars {
			if b.Time >= from {
				out = append(out, b)
				if len(out) == pageSize {
					break
				}
			}
		}
		return out, nil
	}

	if !g.IsDurationBased() {
		return nil, fmt.Errorf("mock: %w: %s", ErrUnsupportedGranularity, g)
	}
	now := time.Now()
	if m.Now != nil {
		now = m.Now()
	}
	return generateMockBars(m.Price, g, from, model.Micros(now), pageSize), nil
}

// generateMockBars returns bars aligned to g closing in [from, to].
func generateMockBars(basePrice float64, g model.Granularity, from, to int64, count int) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	step := g.Seconds * 1_000_000
	k := (from + step - 1) / step
	bars := make([]model.Bar, 0, count)
	for ; k*step <= to && len(bars) < count; k++ {
		p := basePrice * (1 + 0.05*math.Sin(float64(k)/24))
		prev := basePrice * (1 + 0.05*math.Sin(float64(k-1)/24))
		bars = append(bars, model.Bar{
			Time:   k * step,
			Open:   prev,
			High:   math.Max(p, prev) * 1.002,
			Low:    math.Min(p, prev) * 0.998,
			Close:  p,
			Volume: 1000 + float64(k%10)*100,
		})
	}
	return bars
}
