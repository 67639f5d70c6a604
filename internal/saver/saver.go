// Package saver writes bar series to files.
package saver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"BarSentinel/internal/model"
	"BarSentinel/internal/series"
)

// Saver writes oldest-first bars to a single file.
type Saver interface {
	Save(bars []model.Bar, path string) error
	Extension() string
}

// New returns the saver for format (csv, parquet, json), or nil if the format is not supported.
func New(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// Export writes bars to <dir>/<instrument>/<granularity key>.<ext> and returns the path.
func Export(s Saver, dir string, bars *series.Bars) (string, error) {
	if s == nil {
		return "", fmt.Errorf("export: no saver")
	}
	sub := filepath.Join(dir, sanitize(bars.Instrument().Name))
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	path := filepath.Join(sub, bars.Granularity().Key()+"."+s.Extension())
	if err := s.Save(bars.Chronological(), path); err != nil {
		return "", fmt.Errorf("export %s: %w", path, err)
	}
	return path, nil
}

// sanitize keeps instrument names like "XBT/USD" inside one directory.
func sanitize(name string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
}
