package recorder

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

var mysqlDialect = dialect{
	name: "mysql",
	migrations: []string{
		`CREATE TABLE IF NOT EXISTS bars (
			instrument    VARCHAR(64) NOT NULL,
			granularity   VARCHAR(16) NOT NULL,
			ts            BIGINT      NOT NULL,
			open          DOUBLE,
			high          DOUBLE,
			low           DOUBLE,
			close         DOUBLE,
			volume        DOUBLE,
			open_interest BIGINT      NOT NULL DEFAULT 0,
			PRIMARY KEY (instrument, granularity, ts)
		)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id          BIGINT AUTO_INCREMENT PRIMARY KEY,
			recorded_at BIGINT      NOT NULL,
			instrument  VARCHAR(64) NOT NULL,
			granularity VARCHAR(16) NOT NULL,
			ts          BIGINT      NOT NULL,
			bars        INT,
			close       DOUBLE,
			sma         DOUBLE,
			ema         DOUBLE,
			rsi         DOUBLE,
			atr         DOUBLE,
			range_high  DOUBLE,
			range_low   DOUBLE,
			position    DOUBLE,
			INDEX idx_snapshots_ts (instrument, ts)
		)`,
	},
}

// MySQLRecorder persists bars and snapshots to MySQL.
type MySQLRecorder struct {
	*sqlRecorder
}

// NewMySQLRecorder connects with a go-sql-driver DSN, e.g. "user:pass@tcp(host:3306)/bars".
func NewMySQLRecorder(dsn string, logger *slog.Logger) (*MySQLRecorder, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	r, err := newSQLRecorder(db, mysqlDialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	r.logger.Info("mysql recorder opened")
	return &MySQLRecorder{r}, nil
}
