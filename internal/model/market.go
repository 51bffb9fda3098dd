package model

import "time"

// OHLCV represents a single daily bar with provider-adjusted prices.
type OHLCV struct {
	Time        time.Time
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	Dividends   float64
	StockSplits float64 // split ratio on the split day, 0 otherwise
}

// Field names a numeric column of a wide price table.
type Field string

const (
	FieldOpen   Field = "Open"
	FieldHigh   Field = "High"
	FieldLow    Field = "Low"
	FieldClose  Field = "Close"
	FieldVolume Field = "Volume"
)

// PriceFields lists the fields carried by a WideTable, in output order.
var PriceFields = []Field{FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume}

// Value returns the bar's value for f.
func (b OHLCV) Value(f Field) float64 {
	switch f {
	case FieldOpen:
		return b.Open
	case FieldHigh:
		return b.High
	case FieldLow:
		return b.Low
	case FieldClose:
		return b.Close
	case FieldVolume:
		return b.Volume
	}
	return 0
}

// LongRow is one (date, ticker) observation of the processed dataset.
// Price fields may be NaN when the provider had no value for that cell.
type LongRow struct {
	Date        time.Time
	Ticker      string
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Volume      float64
	DailyReturn float64
}
