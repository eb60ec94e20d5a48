package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"CycleSentinel/internal/logger"
)

const defaultMinPeriodDays = 5

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider          string        `yaml:"provider"` // yahoo, vstrader, mock
		BaseURL           string        `yaml:"base_url"`
		APIKey            string        `yaml:"api_key"`
		DefaultSuffix     string        `yaml:"default_suffix"`
		RequestsPerSecond float64       `yaml:"requests_per_second"`
		Burst             int           `yaml:"burst"`
		Timeout           time.Duration `yaml:"timeout"`
	} `yaml:"data_source"`
	Analysis struct {
		Symbols       []string `yaml:"symbols"`
		Range         string   `yaml:"range"`
		Interval      string   `yaml:"interval"`
		MinPeriodDays float64  `yaml:"min_period_days"`
		MaxCycles     int      `yaml:"max_cycles"`
		MinBars       int      `yaml:"min_bars"`
		Concurrency   int      `yaml:"concurrency"`
	} `yaml:"analysis"`
	Schedule struct {
		AnalysisCron string `yaml:"analysis_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Server struct {
		Addr string `yaml:"addr"`
		Mode string `yaml:"mode"` // gin mode: debug, release, test
	} `yaml:"server"`
	Log   logger.Config `yaml:"log"`
	Proxy string        `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults. A missing YAML file is not an
// error.
func Load(path string) (*Config, error) {
	// .env is optional; real environment variables still win.
	_ = godotenv.Load()

	cfg := &Config{}
	// Zero is a meaningful period floor, so this default is seeded before
	// decoding and an explicit value always wins.
	cfg.Analysis.MinPeriodDays = defaultMinPeriodDays

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Analysis.Symbols = splitList(v)
	}
	if v := os.Getenv("ANALYSIS_RANGE"); v != "" {
		cfg.Analysis.Range = v
	}
	if v := os.Getenv("ANALYSIS_INTERVAL"); v != "" {
		cfg.Analysis.Interval = v
	}
	if v := os.Getenv("MIN_PERIOD_DAYS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Analysis.MinPeriodDays = f
		}
	}
	if v := os.Getenv("CRON_ANALYSIS"); v != "" {
		cfg.Schedule.AnalysisCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = "vstrader"
		}
	}
	if cfg.DataSource.DefaultSuffix == "" {
		cfg.DataSource.DefaultSuffix = ".NS"
	}
	if cfg.DataSource.RequestsPerSecond == 0 {
		cfg.DataSource.RequestsPerSecond = 2
	}
	if cfg.DataSource.Burst == 0 {
		cfg.DataSource.Burst = 4
	}
	if cfg.DataSource.Timeout == 0 {
		cfg.DataSource.Timeout = 30 * time.Second
	}
	if len(cfg.Analysis.Symbols) == 0 {
		cfg.Analysis.Symbols = []string{"RELIANCE.NS"}
	}
	if cfg.Analysis.Range == "" {
		cfg.Analysis.Range = "5y"
	}
	if cfg.Analysis.Interval == "" {
		cfg.Analysis.Interval = "1d"
	}
	if cfg.Analysis.MaxCycles == 0 {
		cfg.Analysis.MaxCycles = 3
	}
	if cfg.Analysis.MinBars == 0 {
		cfg.Analysis.MinBars = 32
	}
	if cfg.Analysis.Concurrency == 0 {
		cfg.Analysis.Concurrency = 2
	}
	if cfg.Schedule.AnalysisCron == "" {
		cfg.Schedule.AnalysisCron = "0 30 16 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/cycle_sentinel.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}

	d := logger.DefaultConfig
	if cfg.Log.Level == "" {
		cfg.Log.Level = d.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = d.Format
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = d.Output
	}
	if cfg.Log.Filename == "" {
		cfg.Log.Filename = d.Filename
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = d.MaxSizeMB
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = d.MaxAgeDays
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = d.MaxBackups
	}
}

// Validate checks that all required fields are consistent.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "vstrader":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for provider vstrader")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not supported", c.DataSource.Provider)
	}
	if c.DataSource.RequestsPerSecond < 0 {
		return fmt.Errorf("data_source.requests_per_second must not be negative")
	}
	switch c.Analysis.Interval {
	case "1d", "1wk", "1mo":
	default:
		return fmt.Errorf("analysis.interval must be one of 1d, 1wk, 1mo, got %q", c.Analysis.Interval)
	}
	if c.Analysis.MinPeriodDays < 0 {
		return fmt.Errorf("analysis.min_period_days must not be negative")
	}
	if c.Analysis.MaxCycles < 1 {
		return fmt.Errorf("analysis.max_cycles must be at least 1")
	}
	if c.Analysis.MinBars < 2 {
		return fmt.Errorf("analysis.min_bars must be at least 2")
	}
	if c.Analysis.Concurrency < 1 {
		return fmt.Errorf("analysis.concurrency must be at least 1")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
