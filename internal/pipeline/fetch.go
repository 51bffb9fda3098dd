package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"TechStocks/internal/output"
	"TechStocks/internal/tickers"
)

// Fetch downloads history for each ticker in file order and appends it to a
// single CSV with the header written once. The output is truncated only after
// the ticker list was read. A provider failure stops the run and leaves the
// tickers written so far in place.
func (r *Runner) Fetch(ctx context.Context, opts FetchOptions) (res *Result, err error) {
	run := r.begin(NameFetch, opts.Output)
	defer func() { r.finish(run, err) }()

	r.Log.Info("starting fetch", zap.String("source", r.Fetcher.Name()), zap.String("tickers_file", opts.TickersFile))
	list, err := tickers.ReadNonEmpty(opts.TickersFile)
	if err != nil {
		return nil, err
	}
	run.TickerCount = len(list)
	r.Log.Info("read tickers", zap.Int("count", len(list)))

	f, err := output.CreateTruncated(opts.Output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", opts.Output, cerr)
		}
	}()

	w := output.NewHistoryWriter(f)
	for i, tk := range list {
		r.Log.Info("fetching data",
			zap.String("ticker", tk),
			zap.String("progress", fmt.Sprintf("%d/%d", i+1, len(list))),
		)
		bars, err := r.Fetcher.FetchHistory(ctx, tk, opts.Period, opts.Interval)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", tk, err)
		}
		before := w.Rows()
		if err := w.WriteBars(tk, bars); err != nil {
			return nil, fmt.Errorf("write %s: %w", tk, err)
		}
		run.RowCount = w.Rows()
		r.recordTicker(run.ID, tk, w.Rows()-before)
	}

	r.Log.Info("fetch complete",
		zap.String("output", opts.Output),
		zap.Int("rows", w.Rows()),
		zap.String("size", fileSize(opts.Output)),
	)
	return &Result{RunID: run.ID, Tickers: len(list), Rows: w.Rows(), Output: opts.Output}, nil
}
