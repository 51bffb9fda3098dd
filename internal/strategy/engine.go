// Package strategy runs a monthly momentum rotation over daily history and
// scores the resulting portfolio.
package strategy

import (
	"fmt"
	"math"
	"sort"
	"time"

	"TechStocks/internal/calculator"
	"TechStocks/internal/model"
)

// Params holds the strategy knobs.
type Params struct {
	ShortWindow int     // days in the short moving average
	LongWindow  int     // days in the long moving average
	TopFraction float64 // share of ranked tickers held after a rebalance
	MinHoldings int     // floor on the number held; 0 keeps the plain fraction
}

// DefaultParams returns 50/200-day averages holding the top 10%.
func DefaultParams() Params {
	return Params{ShortWindow: 50, LongWindow: 200, TopFraction: 0.10}
}

// Rebalance records the holdings chosen at the close of Date.
type Rebalance struct {
	Date     time.Time
	Holdings []string
}

// Backtest is the outcome of Run.
type Backtest struct {
	Dates      []time.Time // days with a portfolio return
	Returns    []float64   // equal-weight portfolio return per day
	Rebalances []Rebalance
}

// Holdings returns the portfolio after the last rebalance.
func (b *Backtest) Holdings() []string {
	if len(b.Rebalances) == 0 {
		return nil
	}
	return b.Rebalances[len(b.Rebalances)-1].Holdings
}

// signals holds per-day indicators of one ticker keyed by calendar day.
type signals struct {
	returns  map[time.Time]float64
	momentum map[time.Time]float64
}

func computeSignals(bars []model.OHLCV, p Params) (*signals, error) {
	sorted := make([]model.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	closes := calculator.Closes(sorted)
	short, err := calculator.RollingSMA(closes, p.ShortWindow)
	if err != nil {
		return nil, fmt.Errorf("short average: %w", err)
	}
	long, err := calculator.RollingSMA(closes, p.LongWindow)
	if err != nil {
		return nil, fmt.Errorf("long average: %w", err)
	}
	mom := calculator.Momentum(short, long)

	s := &signals{
		returns:  make(map[time.Time]float64, len(sorted)),
		momentum: make(map[time.Time]float64, len(sorted)),
	}
	prev := math.NaN()
	for i, b := range sorted {
		d := day(b.Time)
		s.returns[d] = calculator.SimpleReturn(prev, b.Close)
		prev = b.Close
		if !math.IsNaN(mom[i]) {
			s.momentum[d] = mom[i]
		}
	}
	return s, nil
}

// Run simulates the rotation. On the last trading day of each month the
// tickers with a momentum score are ranked, highest first, and the top
// TopFraction of them (at least MinHoldings) is held from the next trading
// day on. Each day the portfolio earns the mean daily return of the holdings
// that traded that day; days before the first rebalance earn nothing.
func Run(series map[string][]model.OHLCV, p Params) (*Backtest, error) {
	if p.ShortWindow <= 0 || p.LongWindow <= 0 {
		return nil, fmt.Errorf("moving average windows must be positive")
	}
	if p.TopFraction <= 0 || p.TopFraction > 1 {
		return nil, fmt.Errorf("top fraction must be in (0, 1]")
	}

	tickers := make([]string, 0, len(series))
	sigs := make(map[string]*signals, len(series))
	days := make(map[time.Time]struct{})
	for tk, bars := range series {
		s, err := computeSignals(bars, p)
		if err != nil {
			return nil, fmt.Errorf("signals %s: %w", tk, err)
		}
		tickers = append(tickers, tk)
		sigs[tk] = s
		for _, b := range bars {
			days[day(b.Time)] = struct{}{}
		}
	}
	sort.Strings(tickers)
	calendar := make([]time.Time, 0, len(days))
	for d := range days {
		calendar = append(calendar, d)
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })

	bt := &Backtest{}
	var holdings []string
	for i, today := range calendar {
		if len(holdings) > 0 {
			sum, n := 0.0, 0
			for _, tk := range holdings {
				if r, ok := sigs[tk].returns[today]; ok {
					sum += r
					n++
				}
			}
			if n > 0 {
				bt.Dates = append(bt.Dates, today)
				bt.Returns = append(bt.Returns, sum/float64(n))
			}
		}

		if i+1 < len(calendar) && sameMonth(today, calendar[i+1]) {
			continue
		}
		holdings = rank(tickers, sigs, today, p)
		bt.Rebalances = append(bt.Rebalances, Rebalance{Date: today, Holdings: holdings})
	}
	return bt, nil
}

func rank(tickers []string, sigs map[string]*signals, today time.Time, p Params) []string {
	type scored struct {
		ticker string
		score  float64
	}
	var ranked []scored
	for _, tk := range tickers {
		if m, ok := sigs[tk].momentum[today]; ok {
			ranked = append(ranked, scored{tk, m})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := int(float64(len(ranked)) * p.TopFraction)
	if n < p.MinHoldings {
		n = min(p.MinHoldings, len(ranked))
	}
	out := make([]string, n)
	for i := range out {
		out[i] = ranked[i].ticker
	}
	return out
}

func day(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
