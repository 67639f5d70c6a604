package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"BarSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider    string            `yaml:"provider" validate:"oneof=kraken yahoo mock"`
		BaseURL     string            `yaml:"base_url" validate:"omitempty,url"`
		Instruments []string          `yaml:"instruments" validate:"min=1,dive,required"`
		Base        model.Granularity `yaml:"base_granularity"`
		Lookback    time.Duration     `yaml:"lookback" validate:"gt=0"`
		MaxPages    int               `yaml:"max_pages" validate:"gte=1"`
		Throttle    struct {
			Limit  int           `yaml:"limit" validate:"gte=1,lte=999"`
			Period time.Duration `yaml:"period" validate:"gte=1ms,lte=59s"`
		} `yaml:"throttle"`
	} `yaml:"data_source"`
	Resample struct {
		Targets []model.Granularity `yaml:"targets"`
	} `yaml:"resample"`
	Indicators model.IndicatorPeriods `yaml:"indicators"`
	Schedule   struct {
		RefreshCron string `yaml:"refresh_cron" validate:"required"`
		ReportCron  string `yaml:"report_cron" validate:"required"`
	} `yaml:"schedule"`
	Database struct {
		Driver     string `yaml:"driver" validate:"oneof=sqlite mysql memory"`
		SQLitePath string `yaml:"sqlite_path" validate:"required_if=Driver sqlite"`
		MySQLDSN   string `yaml:"mysql_dsn" validate:"required_if=Driver mysql"`
	} `yaml:"database"`
	Export struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format" validate:"omitempty,oneof=csv json parquet"`
	} `yaml:"export"`
	API struct {
		Disabled bool `yaml:"disabled"`
		Port     int  `yaml:"port" validate:"gte=1,lte=65535"`
	} `yaml:"api"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	// Environment variable overrides
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		c.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("INSTRUMENTS"); v != "" {
		c.DataSource.Instruments = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.DataSource.Instruments = append(c.DataSource.Instruments, s)
			}
		}
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.Database.MySQLDSN = v
	}
	if v := os.Getenv("EXPORT_DIR"); v != "" {
		c.Export.Dir = v
	}
	if v := os.Getenv("EXPORT_FORMAT"); v != "" {
		c.Export.Format = v
	}
	if v := os.Getenv("API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("API_PORT: %w", err)
		}
		c.API.Port = port
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("CRON_REPORT"); v != "" {
		c.Schedule.ReportCron = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "kraken"
	}
	if len(c.DataSource.Instruments) == 0 {
		c.DataSource.Instruments = []string{"XBTUSD"}
	}
	if c.DataSource.Base.IsUnspecified() {
		c.DataSource.Base = model.M1
	}
	if c.DataSource.Lookback == 0 {
		c.DataSource.Lookback = 12 * time.Hour
	}
	if c.DataSource.MaxPages == 0 {
		c.DataSource.MaxPages = 50
	}
	if c.DataSource.Throttle.Limit == 0 {
		c.DataSource.Throttle.Limit = 10
	}
	if c.DataSource.Throttle.Period == 0 {
		c.DataSource.Throttle.Period = 35 * time.Second
	}
	if len(c.Resample.Targets) == 0 {
		c.Resample.Targets = []model.Granularity{model.M5, model.H1, model.Daily}
	}

	def := model.DefaultIndicatorPeriods()
	if c.Indicators.SMA == 0 {
		c.Indicators.SMA = def.SMA
	}
	if c.Indicators.EMA == 0 {
		c.Indicators.EMA = def.EMA
	}
	if c.Indicators.RSI == 0 {
		c.Indicators.RSI = def.RSI
	}
	if c.Indicators.ATR == 0 {
		c.Indicators.ATR = def.ATR
	}
	if c.Indicators.Range == 0 {
		c.Indicators.Range = def.Range
	}

	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 8 * * *"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/bar_sentinel.db"
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "data/export"
	}
	if c.Export.Format == "" {
		c.Export.Format = "csv"
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and that every resample target can be
// built from the base granularity.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	base := c.DataSource.Base
	if base.IsUnspecified() {
		return fmt.Errorf("data_source.base_granularity is required")
	}
	for _, g := range c.Resample.Targets {
		if !g.ReachableFrom(base) {
			return fmt.Errorf("resample target %s is not reachable from base granularity %s", g, base)
		}
	}
	return nil
}

// Granularities returns the base granularity followed by the resample targets.
func (c *Config) Granularities() []model.Granularity {
	out := []model.Granularity{c.DataSource.Base}
	for _, g := range c.Resample.Targets {
		if !g.Equal(c.DataSource.Base) {
			out = append(out, g)
		}
	}
	return out
}
