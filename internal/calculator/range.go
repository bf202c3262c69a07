package calculator

import (
	"errors"
	"math"
	"time"

	"EquitySheet/internal/model"
)

// CalculateRange returns the highest and lowest raw close within the
// window (from, to].
func CalculateRange(points []model.PricePoint, from, to time.Time) (high, low float64, err error) {
	high = math.Inf(-1)
	low = math.Inf(1)
	found := false
	for _, p := range points {
		if !p.Date.After(from) || p.Date.After(to) {
			continue
		}
		found = true
		if p.Close > high {
			high = p.Close
		}
		if p.Close < low {
			low = p.Close
		}
	}
	if !found {
		return 0, 0, errors.New("no prices in range")
	}
	return high, low, nil
}

// Calculate52WeekRange scans the year ending at asOf.
func Calculate52WeekRange(points []model.PricePoint, asOf time.Time) (high, low float64, err error) {
	return CalculateRange(points, asOf.AddDate(-1, 0, 0), asOf)
}

// PriceOnOrBefore returns the last point dated on or before t. Points must be
// sorted by date.
func PriceOnOrBefore(points []model.PricePoint, t time.Time) (model.PricePoint, bool) {
	idx := -1
	lo, hi := 0, len(points)-1
	for lo <= hi {
		mid := (lo + hi) / 2
		if points[mid].Date.After(t) {
			hi = mid - 1
		} else {
			idx = mid
			lo = mid + 1
		}
	}
	if idx < 0 {
		return model.PricePoint{}, false
	}
	return points[idx], true
}

// YearEndPrice returns the last price within calendar year y, not later
// than asOf.
func YearEndPrice(points []model.PricePoint, year int, asOf time.Time) (model.PricePoint, bool) {
	end := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)
	if asOf.Before(end) {
		end = asOf
	}
	p, ok := PriceOnOrBefore(points, end)
	if !ok || p.Date.Year() != year {
		return model.PricePoint{}, false
	}
	return p, true
}

// PricesUpTo returns the prefix of date-sorted points not later than asOf.
func PricesUpTo(points []model.PricePoint, asOf time.Time) []model.PricePoint {
	for i, p := range points {
		if p.Date.After(asOf) {
			return points[:i]
		}
	}
	return points
}

// BenchmarkUpTo is PricesUpTo for benchmark closes.
func BenchmarkUpTo(points []model.BenchmarkPoint, asOf time.Time) []model.BenchmarkPoint {
	for i, p := range points {
		if p.Date.After(asOf) {
			return points[:i]
		}
	}
	return points
}
