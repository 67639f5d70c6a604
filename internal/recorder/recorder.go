package recorder

import (
	"context"

	"BarSentinel/internal/model"
)

// Recorder persists base bars and indicator snapshots.
type Recorder interface {
	// ReplaceBars deletes stored bars of inst/gran closing at or after from and
	// inserts bars in their place, atomically.
	ReplaceBars(ctx context.Context, inst model.Instrument, gran model.Granularity, from int64, bars []model.Bar) error
	// LoadBars returns stored bars closing at or after from, oldest first.
	LoadBars(ctx context.Context, inst model.Instrument, gran model.Granularity, from int64) ([]model.Bar, error)
	// LatestTime returns the closing time of the newest stored bar. ok is false when none is stored.
	LatestTime(ctx context.Context, inst model.Instrument, gran model.Granularity) (ts int64, ok bool, err error)
	RecordSnapshot(ctx context.Context, snap *model.Snapshot) error
	Close() error
}
