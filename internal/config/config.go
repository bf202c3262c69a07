// Package config loads the reporter configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"EquitySheet/internal/logger"
	"EquitySheet/internal/report"
)

// Provider kinds.
const (
	ProviderFile = "file"
	ProviderHTTP = "http"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider        string `yaml:"provider"` // file or http
		Dir             string `yaml:"dir"`
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		BenchmarkSymbol string `yaml:"benchmark_symbol"`
	} `yaml:"data_source"`
	Watchlist []string `yaml:"watchlist"`
	Batch     struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"batch"`
	Schedule struct {
		BatchCron string `yaml:"batch_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log    logger.Config `yaml:"log"`
	Proxy  string        `yaml:"proxy"`
	Engine report.Config `yaml:"engine"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Engine: report.DefaultConfig()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataSource.Dir = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("BENCHMARK_SYMBOL"); v != "" {
		cfg.DataSource.BenchmarkSymbol = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Watchlist = splitList(v)
	}
	if v := os.Getenv("BATCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("BATCH_CONCURRENCY: %w", err)
		}
		cfg.Batch.Concurrency = n
	}
	if v := os.Getenv("CRON_BATCH"); v != "" {
		cfg.Schedule.BatchCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderFile
	}
	if cfg.DataSource.Provider == ProviderFile && cfg.DataSource.Dir == "" {
		cfg.DataSource.Dir = "data/inputs"
	}
	if cfg.Batch.Concurrency == 0 {
		cfg.Batch.Concurrency = 4
	}
	if cfg.Schedule.BatchCron == "" {
		cfg.Schedule.BatchCron = "0 30 16 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/equity_sheet.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// TelegramEnabled reports whether both Telegram credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case ProviderFile:
		if c.DataSource.Dir == "" {
			return errors.New("data_source.dir is required for the file provider")
		}
	case ProviderHTTP:
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the http provider")
		}
	default:
		return fmt.Errorf("data_source.provider: unknown provider %q", c.DataSource.Provider)
	}
	if c.Batch.Concurrency <= 0 {
		return errors.New("batch.concurrency must be positive")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(c.Schedule.BatchCron); err != nil {
		return fmt.Errorf("schedule.batch_cron: %w", err)
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
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
