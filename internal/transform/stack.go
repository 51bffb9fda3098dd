package transform

import "TechStocks/internal/model"

// Stack reshapes a wide table into long rows, one per (date, ticker) pair,
// walking dates in table order and tickers in column order. Pairs where every
// field is missing are dropped. DailyReturn is left at zero.
func Stack(t *model.WideTable) []model.LongRow {
	rows := make([]model.LongRow, 0, t.Rows()*len(t.Tickers))
	for i, date := range t.Dates {
		for _, tk := range t.Tickers {
			row := model.LongRow{Date: date, Ticker: tk}
			present := false
			for _, f := range model.PriceFields {
				v, ok := t.Value(i, f, tk)
				if ok {
					present = true
				}
				setField(&row, f, v)
			}
			if present {
				rows = append(rows, row)
			}
		}
	}
	return rows
}

func setField(r *model.LongRow, f model.Field, v float64) {
	switch f {
	case model.FieldOpen:
		r.Open = v
	case model.FieldHigh:
		r.High = v
	case model.FieldLow:
		r.Low = v
	case model.FieldClose:
		r.Close = v
	case model.FieldVolume:
		r.Volume = v
	}
}
