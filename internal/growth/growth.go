// Package growth computes compound annual growth rates over trailing
// windows of yearly series.
package growth

import (
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/metrics"
	"EquitySheet/internal/model"
)

// Metric names used in the growth_rates section.
const (
	MetricSales     = "sales_per_share"
	MetricCashFlow  = "cash_flow_per_share"
	MetricEPS       = "eps"
	MetricDPS       = "dps"
	MetricBookValue = "book_value_per_share"
)

// CAGR computes the compound annual growth rate between the earliest and
// latest present points of the trailing window ending at the latest
// present year. The window spans [latest-windowYears, latest]. The result
// is absent when fewer than two points are present, when the start value
// is not positive or when the end value is negative.
func CAGR(series []model.YearValue, windowYears int) model.GrowthWindow {
	out := model.GrowthWindow{WindowYears: windowYears}
	if windowYears <= 0 {
		return out
	}

	end := -1
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].Value.Valid {
			end = i
			break
		}
	}
	if end < 0 {
		return out
	}
	start := end
	for i := end - 1; i >= 0; i-- {
		if series[i].Year < series[end].Year-windowYears {
			break
		}
		if series[i].Value.Valid {
			start = i
		}
	}
	if start == end {
		return out
	}

	first, last := series[start], series[end]
	years := elapsedYears(first, last)
	out.StartYear = &first.Year
	out.EndYear = &last.Year
	out.ActualYears = null.FloatFrom(years)
	if first.Value.Float64 <= 0 || last.Value.Float64 < 0 || years <= 0 {
		return out
	}

	rate := math.Pow(last.Value.Float64/first.Value.Float64, 1/years) - 1
	if !math.IsNaN(rate) && !math.IsInf(rate, 0) {
		out.Value = null.FloatFrom(rate)
	}
	return out
}

// elapsedYears measures the span between two points in whole months when
// both period ends are known, which keeps TTM years ending mid-year
// honest; otherwise it falls back to the difference in calendar years.
func elapsedYears(a, b model.YearValue) float64 {
	if a.At.IsZero() || b.At.IsZero() {
		return float64(b.Year - a.Year)
	}
	return float64(monthsBetween(a.At, b.At)) / 12
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// Rates computes growth for the standard per-share metrics across each
// window, in a stable order: metric first, then window.
func Rates(rows []model.PerShareMetrics, windows []int) []model.GrowthWindow {
	series := []struct {
		name string
		pick func(model.PerShareMetrics) null.Float
	}{
		{MetricSales, func(m model.PerShareMetrics) null.Float { return m.SalesPerShare }},
		{MetricCashFlow, func(m model.PerShareMetrics) null.Float { return m.CashFlowPerShare }},
		{MetricEPS, func(m model.PerShareMetrics) null.Float { return m.EPS }},
		{MetricDPS, func(m model.PerShareMetrics) null.Float { return m.DPS }},
		{MetricBookValue, func(m model.PerShareMetrics) null.Float { return m.BookValuePerShare }},
	}

	out := make([]model.GrowthWindow, 0, len(series)*len(windows))
	for _, s := range series {
		values := metrics.Series(rows, s.pick)
		for _, w := range windows {
			g := CAGR(values, w)
			g.Metric = s.name
			out = append(out, g)
		}
	}
	return out
}

// Find returns the growth window for a metric and window length.
func Find(rates []model.GrowthWindow, metric string, windowYears int) (model.GrowthWindow, bool) {
	for _, g := range rates {
		if g.Metric == metric && g.WindowYears == windowYears {
			return g, true
		}
	}
	return model.GrowthWindow{}, false
}
