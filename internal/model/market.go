package model

import "time"

// PricePoint is one trading day of a security's price history.
type PricePoint struct {
	Date              time.Time
	AdjClose          float64
	Close             float64
	Volume            float64
	SharesOutstanding float64
}

// Turnover returns volume as a fraction of shares outstanding, or 0 when
// shares are unknown.
func (p PricePoint) Turnover() float64 {
	if p.SharesOutstanding <= 0 {
		return 0
	}
	return p.Volume / p.SharesOutstanding
}

// BenchmarkPoint is one close of the benchmark index.
type BenchmarkPoint struct {
	Date  time.Time
	Close float64
}

// DatedValue is a generic (date, value) observation, e.g. the market-wide
// median PE.
type DatedValue struct {
	Date  time.Time
	Value float64
}

// Bar is a resampled closing price used for weekly return series.
type Bar struct {
	Time  time.Time
	Close float64
}
