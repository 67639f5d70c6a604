package recorder

import (
	"context"
	"sort"
	"sync"

	"BarSentinel/internal/model"
)

type seriesKey struct {
	instrument  string
	granularity string
}

// MemoryRecorder keeps everything in process memory. It is used when no
// database is configured or the database cannot be opened.
type MemoryRecorder struct {
	mu        sync.RWMutex
	bars      map[seriesKey][]model.Bar
	snapshots []model.Snapshot
}

func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{bars: make(map[seriesKey][]model.Bar)}
}

func keyOf(inst model.Instrument, gran model.Granularity) seriesKey {
	return seriesKey{instrument: inst.Name, granularity: gran.Key()}
}

func (m *MemoryRecorder) ReplaceBars(_ context.Context, inst model.Instrument, gran model.Granularity, from int64, bars []model.Bar) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := keyOf(inst, gran)
	stored := m.bars[k]
	cut := sort.Search(len(stored), func(i int) bool { return stored[i].Time >= from })
	kept := make([]model.Bar, cut, cut+len(bars))
	copy(kept, stored[:cut])
	for _, b := range bars {
		if b.Time >= from {
			kept = append(kept, b)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time < kept[j].Time })
	m.bars[k] = dedupe(kept)
	return nil
}

// dedupe keeps the last of equal-time neighbours in a sorted slice.
func dedupe(bars []model.Bar) []model.Bar {
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Time == b.Time {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func (m *MemoryRecorder) LoadBars(_ context.Context, inst model.Instrument, gran model.Granularity, from int64) ([]model.Bar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.bars[keyOf(inst, gran)]
	cut := sort.Search(len(stored), func(i int) bool { return stored[i].Time >= from })
	out := make([]model.Bar, len(stored)-cut)
	copy(out, stored[cut:])
	return out, nil
}

func (m *MemoryRecorder) LatestTime(_ context.Context, inst model.Instrument, gran model.Granularity) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stored := m.bars[keyOf(inst, gran)]
	if len(stored) == 0 {
		return 0, false, nil
	}
	return stored[len(stored)-1].Time, true, nil
}

func (m *MemoryRecorder) RecordSnapshot(_ context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, *snap)
	return nil
}

// Snapshots returns the recorded snapshots in insertion order.
func (m *MemoryRecorder) Snapshots() []model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Snapshot(nil), m.snapshots...)
}

func (m *MemoryRecorder) Close() error { return nil }
