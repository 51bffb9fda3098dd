package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"TechStocks/internal/calculator"
	"TechStocks/internal/model"
	"TechStocks/internal/output"
	"TechStocks/internal/tickers"
	"TechStocks/internal/transform"
)

// Process downloads history for all tickers in one batch, reshapes it to one
// row per (date, ticker), adds per-ticker daily returns and writes one CSV
// (plus Parquet when configured).
func (r *Runner) Process(ctx context.Context, opts ProcessOptions) (res *Result, err error) {
	run := r.begin(NameProcess, opts.Output)
	defer func() { r.finish(run, err) }()

	r.Log.Info("starting data fetching and processing", zap.String("source", r.Fetcher.Name()))
	list, err := tickers.ReadNonEmpty(opts.TickersFile)
	if err != nil {
		return nil, err
	}
	run.TickerCount = len(list)
	r.Log.Info("read tickers", zap.String("file", opts.TickersFile), zap.Int("count", len(list)))

	r.Log.Info("fetching daily data",
		zap.String("period", opts.Period),
		zap.String("interval", opts.Interval),
		zap.Int("tickers", len(list)),
	)
	table, err := r.Fetcher.FetchBatch(ctx, list, opts.Period, opts.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetch batch: %w", err)
	}

	rows := transform.Stack(table)
	r.Log.Info("calculating daily returns", zap.Int("rows", len(rows)), zap.Int("trading_days", table.Rows()))
	calculator.ApplyDailyReturns(rows)
	run.RowCount = len(rows)

	if err := writeProcessedCSV(opts.Output, rows); err != nil {
		return nil, err
	}
	if opts.ParquetPath != "" {
		if err := output.WriteParquet(opts.ParquetPath, rows); err != nil {
			return nil, err
		}
		r.Log.Info("parquet written", zap.String("output", opts.ParquetPath), zap.String("size", fileSize(opts.ParquetPath)))
	}

	r.Log.Info("processing complete",
		zap.String("output", opts.Output),
		zap.Int("rows", len(rows)),
		zap.String("size", fileSize(opts.Output)),
	)
	r.logSample(rows, opts.SampleTicker, 5)

	return &Result{RunID: run.ID, Tickers: len(list), Rows: len(rows), Output: opts.Output}, nil
}

func writeProcessedCSV(path string, rows []model.LongRow) (err error) {
	f, err := output.CreateTruncated(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := output.WriteProcessed(f, rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (r *Runner) logSample(rows []model.LongRow, ticker string, n int) {
	if ticker == "" {
		return
	}
	for _, row := range rows {
		if n == 0 {
			return
		}
		if row.Ticker != ticker {
			continue
		}
		r.Log.Info("sample",
			zap.String("ticker", row.Ticker),
			zap.String("date", row.Date.Format("2006-01-02")),
			zap.Float64("close", row.Close),
			zap.Float64("daily_return", row.DailyReturn),
		)
		n--
	}
}
