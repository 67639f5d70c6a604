package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"BarSentinel/internal/model"
)

// dialect holds the driver-specific schema.
type dialect struct {
	name       string
	migrations []string
}

// sqlRecorder implements Recorder on any database/sql driver.
type sqlRecorder struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	mu      sync.Mutex
}

func newSQLRecorder(db *sql.DB, d dialect, logger *slog.Logger) (*sqlRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &sqlRecorder{db: db, dialect: d, logger: logger}
	if err := r.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *sqlRecorder) migrate() error {
	for _, s := range r.dialect.migrations {
		if _, err := r.db.Exec(s); err != nil {
			head := s
			if len(head) > 40 {
				head = head[:40]
			}
			return fmt.Errorf("exec %q: %w", head, err)
		}
	}
	return nil
}

func (r *sqlRecorder) ReplaceBars(ctx context.Context, inst model.Instrument, gran model.Granularity, from int64, bars []model.Bar) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	key := gran.Key()
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM bars WHERE instrument = ? AND granularity = ? AND ts >= ?`,
		inst.Name, key, from); err != nil {
		return fmt.Errorf("delete bars: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bars
		(instrument, granularity, ts, open, high, low, close, volume, open_interest)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	last := int64(math.MinInt64)
	for _, b := range bars {
		if b.Time < from {
			continue
		}
		if b.Time <= last {
			return fmt.Errorf("insert bars: time %d not after %d", b.Time, last)
		}
		last = b.Time
		if _, err := stmt.ExecContext(ctx, inst.Name, key, b.Time,
			b.Open, b.High, b.Low, b.Close, b.Volume, b.OpenInterest); err != nil {
			return fmt.Errorf("insert bar %d: %w", b.Time, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	r.logger.Debug("bars replaced", "driver", r.dialect.name, "instrument", inst.Name, "granularity", key, "from", from, "count", len(bars))
	return nil
}

func (r *sqlRecorder) LoadBars(ctx context.Context, inst model.Instrument, gran model.Granularity, from int64) ([]model.Bar, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ts, open, high, low, close, volume, open_interest
		FROM bars WHERE instrument = ? AND granularity = ? AND ts >= ?
		ORDER BY ts ASC`, inst.Name, gran.Key(), from)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.OpenInterest); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

func (r *sqlRecorder) LatestTime(ctx context.Context, inst model.Instrument, gran model.Granularity) (int64, bool, error) {
	var ts sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(ts) FROM bars WHERE instrument = ? AND granularity = ?`,
		inst.Name, gran.Key()).Scan(&ts)
	if err != nil {
		return 0, false, fmt.Errorf("latest bar: %w", err)
	}
	return ts.Int64, ts.Valid, nil
}

func (r *sqlRecorder) RecordSnapshot(ctx context.Context, snap *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO snapshots
		(recorded_at, instrument, granularity, ts, bars, close, sma, ema, rsi, atr, range_high, range_low, position)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), snap.Instrument.Name, snap.Granularity.Key(), snap.Time, snap.Bars,
		snap.Close, snap.SMA, snap.EMA, snap.RSI, snap.ATR,
		snap.RangeHigh, snap.RangeLow, snap.Position,
	)
	return err
}

func (r *sqlRecorder) Close() error {
	r.logger.Info("closing recorder", "driver", r.dialect.name)
	return r.db.Close()
}
