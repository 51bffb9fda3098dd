package recorder

import "time"

// Run status values.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// RunEvent describes one pipeline execution.
type RunEvent struct {
	ID          string
	Pipeline    string // "fetch" or "process"
	StartedAt   time.Time
	FinishedAt  time.Time
	TickerCount int
	RowCount    int
	Status      string
	Error       string
	OutputPath  string
}

// TickerFetchEvent records the rows written for one ticker of a run.
type TickerFetchEvent struct {
	RunID  string
	Ticker string
	Rows   int
}

// BacktestEvent holds the performance of one backtest run.
type BacktestEvent struct {
	RunID                string
	Days                 int
	CumulativeReturn     float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	SharpeRatio          float64
	MaxDrawdown          float64
	Holdings             []string // portfolio after the last rebalance
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(run *RunEvent) error
	RecordTickerFetch(evt *TickerFetchEvent) error
	RecordBacktest(evt *BacktestEvent) error
	Close() error
}
