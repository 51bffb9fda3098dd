package pipeline

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"TechStocks/internal/output"
	"TechStocks/internal/recorder"
	"TechStocks/internal/strategy"
)

// BacktestResult carries the simulated portfolio and its performance.
type BacktestResult struct {
	Result
	Backtest    *strategy.Backtest
	Performance *strategy.Performance
}

// Backtest replays the monthly momentum rotation over the history file written
// by Fetch. Performance is recorded alongside the run.
func (r *Runner) Backtest(ctx context.Context, opts BacktestOptions) (res *BacktestResult, err error) {
	run := r.begin(NameBacktest, opts.Input)
	defer func() { r.finish(run, err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.Log.Info("loading history", zap.String("input", opts.Input))
	f, err := os.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	hist, err := output.ReadHistory(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", opts.Input, err)
	}
	run.TickerCount = len(hist.Tickers)
	if hist.Skipped > 0 {
		r.Log.Warn("skipped unreadable rows", zap.Int("rows", hist.Skipped))
	}
	r.Log.Info("history loaded", zap.Int("tickers", len(hist.Tickers)))

	r.Log.Info("calculating signals",
		zap.Int("short_window", opts.Params.ShortWindow),
		zap.Int("long_window", opts.Params.LongWindow),
		zap.Float64("top_fraction", opts.Params.TopFraction),
	)
	bt, err := strategy.Run(hist.Series, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	run.RowCount = len(bt.Returns)
	r.Log.Info("backtest simulated",
		zap.Int("rebalances", len(bt.Rebalances)),
		zap.Strings("holdings", bt.Holdings()),
	)

	perf, err := strategy.Evaluate(bt.Returns)
	if err != nil {
		return nil, err
	}
	if recErr := r.Recorder.RecordBacktest(&recorder.BacktestEvent{
		RunID:                run.ID,
		Days:                 perf.Days,
		CumulativeReturn:     perf.CumulativeReturn,
		AnnualizedReturn:     perf.AnnualizedReturn,
		AnnualizedVolatility: perf.AnnualizedVolatility,
		SharpeRatio:          perf.SharpeRatio,
		MaxDrawdown:          perf.MaxDrawdown,
		Holdings:             bt.Holdings(),
	}); recErr != nil {
		r.Log.Warn("record backtest failed", zap.String("run_id", run.ID), zap.Error(recErr))
	}

	r.Log.Info("backtest complete",
		zap.Int("days", perf.Days),
		zap.Float64("cumulative_return", perf.CumulativeReturn),
		zap.Float64("sharpe_ratio", perf.SharpeRatio),
		zap.Float64("max_drawdown", perf.MaxDrawdown),
	)
	return &BacktestResult{
		Result:      Result{RunID: run.ID, Tickers: len(hist.Tickers), Rows: len(bt.Returns), Output: opts.Input},
		Backtest:    bt,
		Performance: perf,
	}, nil
}
