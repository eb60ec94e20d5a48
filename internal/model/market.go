package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Candle is the date/close pair served to chart consumers.
type Candle struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// Interval is the bar spacing requested from a data source.
type Interval string

const (
	IntervalDaily   Interval = "1d"
	IntervalWeekly  Interval = "1wk"
	IntervalMonthly Interval = "1mo"
)

// Days returns the number of calendar days represented by one bar.
// Monthly bars are approximated as 30 days.
func (i Interval) Days() float64 {
	switch i {
	case IntervalWeekly:
		return 7
	case IntervalMonthly:
		return 30
	default:
		return 1
	}
}

// PriceSeries holds the chronologically ordered bars for one symbol.
type PriceSeries struct {
	Symbol    string
	Interval  Interval
	Bars      []OHLCV
	FetchedAt time.Time
}

// Closes extracts the close of every bar, preserving order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Candles converts the bars to date/close pairs.
func (s *PriceSeries) Candles() []Candle {
	out := make([]Candle, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = Candle{Date: b.Time.UTC().Format("2006-01-02"), Close: b.Close}
	}
	return out
}
