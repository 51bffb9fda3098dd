package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	TickersFile string `yaml:"tickers_file"`
	Fetch       struct {
		Output   string `yaml:"output"`
		Period   string `yaml:"period"`
		Interval string `yaml:"interval"`
	} `yaml:"fetch"`
	Process struct {
		Output      string `yaml:"output"`
		ParquetPath string `yaml:"parquet_path"`
		Period      string `yaml:"period"`
		Interval    string `yaml:"interval"`
	} `yaml:"process"`
	Backtest struct {
		Input       string  `yaml:"input"`
		ShortWindow int     `yaml:"short_window"`
		LongWindow  int     `yaml:"long_window"`
		TopFraction float64 `yaml:"top_fraction"`
		MinHoldings int     `yaml:"min_holdings"`
	} `yaml:"backtest"`
	DataSource struct {
		BaseURL          string `yaml:"base_url"`
		TimeoutSec       int    `yaml:"timeout_sec"`
		BatchConcurrency int    `yaml:"batch_concurrency"`
		UserAgent        string `yaml:"user_agent"`
	} `yaml:"data_source"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Schedule struct {
		FetchCron   string `yaml:"fetch_cron"`
		ProcessCron string `yaml:"process_cron"`
	} `yaml:"schedule"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file yields the defaults.
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

	// Environment variable overrides
	if v := os.Getenv("TICKERS_FILE"); v != "" {
		cfg.TickersFile = v
	}
	if v := os.Getenv("FETCH_OUTPUT"); v != "" {
		cfg.Fetch.Output = v
	}
	if v := os.Getenv("PROCESS_OUTPUT"); v != "" {
		cfg.Process.Output = v
	}
	if v := os.Getenv("PARQUET_PATH"); v != "" {
		cfg.Process.ParquetPath = v
	}
	if v := os.Getenv("BACKTEST_INPUT"); v != "" {
		cfg.Backtest.Input = v
	}
	if v := os.Getenv("YAHOO_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("CRON_FETCH"); v != "" {
		cfg.Schedule.FetchCron = v
	}
	if v := os.Getenv("CRON_PROCESS"); v != "" {
		cfg.Schedule.ProcessCron = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	// Defaults
	if cfg.TickersFile == "" {
		cfg.TickersFile = "tech_stocks.txt"
	}
	if cfg.Fetch.Output == "" {
		cfg.Fetch.Output = "tech_stocks_data.csv"
	}
	if cfg.Fetch.Period == "" {
		cfg.Fetch.Period = "1y"
	}
	if cfg.Fetch.Interval == "" {
		cfg.Fetch.Interval = "1d"
	}
	if cfg.Process.Output == "" {
		cfg.Process.Output = "tech_stocks_processed.csv"
	}
	if cfg.Process.Period == "" {
		cfg.Process.Period = "5y"
	}
	if cfg.Process.Interval == "" {
		cfg.Process.Interval = "1d"
	}
	if cfg.Backtest.Input == "" {
		cfg.Backtest.Input = cfg.Fetch.Output
	}
	if cfg.Backtest.ShortWindow == 0 {
		cfg.Backtest.ShortWindow = 50
	}
	if cfg.Backtest.LongWindow == 0 {
		cfg.Backtest.LongWindow = 200
	}
	if cfg.Backtest.TopFraction == 0 {
		cfg.Backtest.TopFraction = 0.10
	}
	if cfg.DataSource.BaseURL == "" {
		cfg.DataSource.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.DataSource.TimeoutSec == 0 {
		cfg.DataSource.TimeoutSec = 30
	}
	if cfg.DataSource.BatchConcurrency == 0 {
		cfg.DataSource.BatchConcurrency = 4
	}
	if cfg.DataSource.UserAgent == "" {
		cfg.DataSource.UserAgent = "Mozilla/5.0"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if c.TickersFile == "" {
		return fmt.Errorf("tickers_file is required")
	}
	if c.Fetch.Output == "" {
		return fmt.Errorf("fetch.output is required")
	}
	if c.Process.Output == "" {
		return fmt.Errorf("process.output is required")
	}
	if c.Fetch.Period == "" || c.Process.Period == "" {
		return fmt.Errorf("fetch.period and process.period are required")
	}
	if c.Backtest.ShortWindow < 1 || c.Backtest.LongWindow <= c.Backtest.ShortWindow {
		return fmt.Errorf("backtest windows must satisfy 0 < short_window < long_window")
	}
	if c.Backtest.TopFraction <= 0 || c.Backtest.TopFraction > 1 {
		return fmt.Errorf("backtest.top_fraction must be in (0, 1]")
	}
	if c.Backtest.MinHoldings < 0 {
		return fmt.Errorf("backtest.min_holdings must not be negative")
	}
	if c.DataSource.TimeoutSec < 0 {
		return fmt.Errorf("data_source.timeout_sec must not be negative")
	}
	if c.DataSource.BatchConcurrency < 1 {
		return fmt.Errorf("data_source.batch_concurrency must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	return nil
}
