package calculator

import (
	"math"
	"sort"

	"TechStocks/internal/model"
)

// SimpleReturn computes (current - previous) / previous. It returns 0 when
// either close is missing or the previous close is zero.
func SimpleReturn(previous, current float64) float64 {
	if math.IsNaN(previous) || math.IsNaN(current) || previous == 0 {
		return 0
	}
	return (current - previous) / previous
}

// ApplyDailyReturns sets DailyReturn on every row. Rows are grouped by ticker
// and scanned in date order keeping the previous close; the first row of each
// ticker gets 0. The order of rows in the slice is left unchanged.
func ApplyDailyReturns(rows []model.LongRow) {
	groups := make(map[string][]int)
	for i, r := range rows {
		groups[r.Ticker] = append(groups[r.Ticker], i)
	}

	for _, idx := range groups {
		sort.SliceStable(idx, func(a, b int) bool {
			return rows[idx[a]].Date.Before(rows[idx[b]].Date)
		})

		prev := math.NaN()
		for _, i := range idx {
			cur := rows[i].Close
			rows[i].DailyReturn = SimpleReturn(prev, cur)
			if !math.IsNaN(cur) {
				prev = cur
			}
		}
	}
}
