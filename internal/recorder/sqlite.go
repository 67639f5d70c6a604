package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

var sqliteDialect = dialect{
	name: "sqlite",
	migrations: []string{
		`CREATE TABLE IF NOT EXISTS bars (
			instrument    TEXT    NOT NULL,
			granularity   TEXT    NOT NULL,
			ts            INTEGER NOT NULL,
			open          REAL,
			high          REAL,
			low           REAL,
			close         REAL,
			volume        REAL,
			open_interest INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (instrument, granularity, ts)
		)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at INTEGER NOT NULL,
			instrument  TEXT    NOT NULL,
			granularity TEXT    NOT NULL,
			ts          INTEGER NOT NULL,
			bars        INTEGER,
			close       REAL,
			sma         REAL,
			ema         REAL,
			rsi         REAL,
			atr         REAL,
			range_high  REAL,
			range_low   REAL,
			position    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON snapshots(instrument, ts)`,
	},
}

// SQLiteRecorder persists bars and snapshots to a SQLite database.
type SQLiteRecorder struct {
	*sqlRecorder
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so API reads do not block the refresh writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r, err := newSQLRecorder(db, sqliteDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.logger.Info("sqlite recorder opened", "path", dbPath)
	return &SQLiteRecorder{r}, nil
}
