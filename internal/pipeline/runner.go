package pipeline

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"TechStocks/internal/collector"
	"TechStocks/internal/config"
	"TechStocks/internal/recorder"
	"TechStocks/internal/strategy"
)

// Pipeline names as stored in run history.
const (
	NameFetch    = "fetch"
	NameProcess  = "process"
	NameBacktest = "backtest"
)

// Runner carries the dependencies shared by both pipelines.
type Runner struct {
	Fetcher  collector.Fetcher
	Recorder recorder.Recorder
	Log      *zap.Logger
}

// NewRunner creates a Runner. A nil recorder or logger is replaced by a no-op.
func NewRunner(f collector.Fetcher, rec recorder.Recorder, log *zap.Logger) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Fetcher: f, Recorder: rec, Log: log}
}

// Result summarises a successful run.
type Result struct {
	RunID   string
	Tickers int
	Rows    int
	Output  string
}

// FetchOptions configures the per-ticker history pipeline.
type FetchOptions struct {
	TickersFile string
	Output      string
	Period      string
	Interval    string
}

// ProcessOptions configures the batched returns pipeline.
type ProcessOptions struct {
	TickersFile  string
	Output       string
	ParquetPath  string
	Period       string
	Interval     string
	SampleTicker string // logged as a preview after the run; empty disables
}

// BacktestOptions configures the momentum backtest over a history file.
type BacktestOptions struct {
	Input  string
	Params strategy.Params
}

// FetchOptionsFrom maps configuration onto FetchOptions.
func FetchOptionsFrom(cfg *config.Config) FetchOptions {
	return FetchOptions{
		TickersFile: cfg.TickersFile,
		Output:      cfg.Fetch.Output,
		Period:      cfg.Fetch.Period,
		Interval:    cfg.Fetch.Interval,
	}
}

// ProcessOptionsFrom maps configuration onto ProcessOptions.
func ProcessOptionsFrom(cfg *config.Config) ProcessOptions {
	return ProcessOptions{
		TickersFile:  cfg.TickersFile,
		Output:       cfg.Process.Output,
		ParquetPath:  cfg.Process.ParquetPath,
		Period:       cfg.Process.Period,
		Interval:     cfg.Process.Interval,
		SampleTicker: "MSFT",
	}
}

// BacktestOptionsFrom maps configuration onto BacktestOptions.
func BacktestOptionsFrom(cfg *config.Config) BacktestOptions {
	return BacktestOptions{
		Input: cfg.Backtest.Input,
		Params: strategy.Params{
			ShortWindow: cfg.Backtest.ShortWindow,
			LongWindow:  cfg.Backtest.LongWindow,
			TopFraction: cfg.Backtest.TopFraction,
			MinHoldings: cfg.Backtest.MinHoldings,
		},
	}
}

func (r *Runner) begin(pipeline, out string) *recorder.RunEvent {
	return &recorder.RunEvent{
		ID:         uuid.NewString(),
		Pipeline:   pipeline,
		StartedAt:  time.Now(),
		OutputPath: out,
	}
}

func (r *Runner) finish(run *recorder.RunEvent, err error) {
	run.FinishedAt = time.Now()
	run.Status = recorder.StatusOK
	if err != nil {
		run.Status = recorder.StatusFailed
		run.Error = err.Error()
	}
	if recErr := r.Recorder.RecordRun(run); recErr != nil {
		r.Log.Warn("record run failed", zap.String("run_id", run.ID), zap.Error(recErr))
	}
}

func (r *Runner) recordTicker(runID, ticker string, rows int) {
	if err := r.Recorder.RecordTickerFetch(&recorder.TickerFetchEvent{RunID: runID, Ticker: ticker, Rows: rows}); err != nil {
		r.Log.Warn("record ticker fetch failed", zap.String("ticker", ticker), zap.Error(err))
	}
}

func fileSize(path string) string {
	st, err := os.Stat(path)
	if err != nil {
		return "unknown"
	}
	return humanize.Bytes(uint64(st.Size()))
}
