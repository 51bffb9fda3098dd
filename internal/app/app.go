// Package app wires configuration, logging, the data source and run history
// into a pipeline.Runner for the command binaries.
package app

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"TechStocks/internal/collector"
	"TechStocks/internal/config"
	"TechStocks/internal/logging"
	"TechStocks/internal/output"
	"TechStocks/internal/pipeline"
	"TechStocks/internal/recorder"
	"TechStocks/internal/strategy"
	"TechStocks/internal/tickers"
)

// App holds the process-wide dependencies.
type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Runner   *pipeline.Runner
	Recorder recorder.Recorder
	History  *recorder.SQLiteRecorder // nil unless database.sqlite_path is set
}

// Load reads and validates the configuration at config.Path() and builds the App.
func Load() (*App, error) {
	cfg, err := config.Load(config.Path())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return New(cfg), nil
}

// New builds the App from an already validated config. A run-history
// database that cannot be opened is logged and replaced by a no-op recorder.
func New(cfg *config.Config) *App {
	log := logging.New(cfg.Log.Level, cfg.Log.File)

	fetcher := collector.NewYahooFetcher(cfg.Proxy,
		time.Duration(cfg.DataSource.TimeoutSec)*time.Second,
		collector.WithBaseURL(cfg.DataSource.BaseURL),
		collector.WithUserAgent(cfg.DataSource.UserAgent),
		collector.WithConcurrency(cfg.DataSource.BatchConcurrency),
	)
	log.Info("data source", zap.String("name", fetcher.Name()), zap.String("base_url", fetcher.BaseURL))

	a := &App{Config: cfg, Log: log}
	a.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn("init sqlite recorder failed, using noop", zap.String("path", cfg.Database.SQLitePath), zap.Error(err))
		} else {
			a.Recorder = sr
			a.History = sr
		}
	}

	a.Runner = pipeline.NewRunner(fetcher, a.Recorder, log)
	return a
}

// Close releases the recorder and flushes the logger.
func (a *App) Close() {
	if err := a.Recorder.Close(); err != nil {
		a.Log.Warn("close recorder", zap.Error(err))
	}
	_ = a.Log.Sync()
}

// Describe turns a pipeline error into the one-line message logged before exit.
func Describe(err error) string {
	switch {
	case errors.Is(err, tickers.ErrNotFound):
		return "ticker file not found"
	case errors.Is(err, tickers.ErrEmpty):
		return "no tickers to process"
	case errors.Is(err, collector.ErrProvider):
		return "market data request failed"
	case errors.Is(err, fs.ErrNotExist):
		return "history file not found, run fetch first"
	case errors.Is(err, output.ErrMalformedHistory):
		return "history file is malformed"
	case errors.Is(err, strategy.ErrNoTrades):
		return "no trades were made, cannot calculate performance"
	default:
		return "run failed"
	}
}
