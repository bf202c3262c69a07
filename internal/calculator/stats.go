package calculator

import (
	"errors"
	"sort"
)

// Median returns the middle value, averaging the two central values for an
// even count.
func Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.New("no values for median")
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], nil
	}
	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

// PercentileRank returns the mid-rank share of history below x, in [0, 1].
// Ties count half so that a value equal to every observation ranks 0.5.
func PercentileRank(history []float64, x float64) (float64, error) {
	if len(history) == 0 {
		return 0, errors.New("no history for percentile rank")
	}
	below, equal := 0, 0
	for _, h := range history {
		switch {
		case h < x:
			below++
		case h == x:
			equal++
		}
	}
	return (float64(below) + 0.5*float64(equal)) / float64(len(history)), nil
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
