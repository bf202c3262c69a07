package calculator

import (
	"errors"
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"EquitySheet/internal/model"
)

// CalculateSMA computes the simple moving average of the last period values.
func CalculateSMA(values []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(values) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sma := talib.Sma(values, period)
	last := sma[len(sma)-1]
	if math.IsNaN(last) {
		return 0, errors.New("SMA undefined")
	}
	return last, nil
}

// AdjustedCloses extracts adjusted closing prices in order.
func AdjustedCloses(points []model.PricePoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.AdjClose
	}
	return closes
}

// Turnovers extracts daily turnover (volume / shares outstanding).
func Turnovers(points []model.PricePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Turnover()
	}
	return out
}

// MeanOfLast returns the arithmetic mean of the last n values, or of all values
// when n exceeds the length.
func MeanOfLast(values []float64, n int) (float64, error) {
	if len(values) == 0 || n <= 0 {
		return 0, errors.New("no data")
	}
	if n > len(values) {
		n = len(values)
	}
	return stat.Mean(values[len(values)-n:], nil), nil
}
