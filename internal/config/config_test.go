package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"BarSentinel/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.DataSource.Provider != "kraken" || !cfg.DataSource.Base.Equal(model.M1) {
		t.Errorf("unexpected data source defaults: %+v", cfg.DataSource)
	}
	if cfg.Indicators != model.DefaultIndicatorPeriods() {
		t.Errorf("Indicators = %+v", cfg.Indicators)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Export.Format != "csv" || cfg.API.Port != 8080 {
		t.Errorf("unexpected defaults: db=%s export=%s port=%d", cfg.Database.Driver, cfg.Export.Format, cfg.API.Port)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
data_source:
  provider: yahoo
  instruments: [SPX500, AAPL]
  base_granularity: Daily
  lookback: 8760h
  throttle:
    limit: 5
    period: 10s
resample:
  targets: [Weekly, Monthly, 3mo]
indicators:
  rsi: 7
database:
  driver: memory
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !cfg.DataSource.Base.Equal(model.Daily) {
		t.Errorf("Base = %v", cfg.DataSource.Base)
	}
	if cfg.DataSource.Lookback != 8760*time.Hour {
		t.Errorf("Lookback = %v", cfg.DataSource.Lookback)
	}
	if cfg.DataSource.Throttle.Period != 10*time.Second {
		t.Errorf("Throttle.Period = %v", cfg.DataSource.Throttle.Period)
	}
	want := []model.Granularity{model.Weekly, model.Monthly, model.Quarterly}
	if len(cfg.Resample.Targets) != len(want) {
		t.Fatalf("Targets = %v", cfg.Resample.Targets)
	}
	for i := range want {
		if !cfg.Resample.Targets[i].Equal(want[i]) {
			t.Errorf("Targets[%d] = %v, want %v", i, cfg.Resample.Targets[i], want[i])
		}
	}
	if cfg.Indicators.RSI != 7 || cfg.Indicators.SMA != 20 {
		t.Errorf("Indicators = %+v", cfg.Indicators)
	}
	if got := cfg.Granularities(); len(got) != 4 || !got[0].Equal(model.Daily) {
		t.Errorf("Granularities = %v", got)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "data_source:\n  instruments: [XBTUSD]\n")
	t.Setenv("INSTRUMENTS", " ETHUSD, XBTUSD ,")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("MYSQL_DSN", "u:p@tcp(db:3306)/bars")
	t.Setenv("API_PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if strings.Join(cfg.DataSource.Instruments, ",") != "ETHUSD,XBTUSD" {
		t.Errorf("Instruments = %v", cfg.DataSource.Instruments)
	}
	if cfg.Database.Driver != "mysql" || cfg.API.Port != 9090 || cfg.Telegram.ChatID != "42" {
		t.Errorf("overrides not applied: %+v %+v", cfg.Database, cfg.API)
	}

	t.Setenv("API_PORT", "eighty")
	if _, err := Load(path); err == nil {
		t.Error("expected error for non-numeric API_PORT")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		substr string
	}{
		{"unreachable target", "resample:\n  targets: [S30]\n", "not reachable"},
		{"unknown provider", "data_source:\n  provider: nasdaq\n", "Provider"},
		{"mysql without dsn", "database:\n  driver: mysql\n", "MySQLDSN"},
		{"token without chat", "telegram:\n  bot_token: abc\n", "ChatID"},
		{"bad export format", "export:\n  format: xlsx\n", "Format"},
		{"throttle period", "data_source:\n  throttle:\n    period: 2m\n", "Period"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.yaml))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.substr)
			}
		})
	}
}

func TestLoad_BadGranularity(t *testing.T) {
	if _, err := Load(writeConfig(t, "data_source:\n  base_granularity: fortnight\n")); err == nil {
		t.Error("expected parse error")
	}
}
