// Package metrics derives per-share figures and ratios from aligned years.
package metrics

import (
	"math"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/model"
)

var absent = null.NewFloat(0, false)

// Derive computes the per-share and ratio row for one aligned year.
// sharesOutstanding is the period-end share count; a weighted-average count
// on the year, when present, is preferred for flow metrics. Any metric whose
// inputs are missing or whose denominator is zero is left absent without
// affecting the others.
func Derive(year model.AlignedYear, sharesOutstanding float64) model.PerShareMetrics {
	m := model.PerShareMetrics{
		Year:      year.Year,
		Source:    year.Source,
		PeriodEnd: year.PeriodEnd,
		KnownAt:   year.KnownAt,
	}
	if !year.Present() {
		return m
	}

	endShares := absent
	if sharesOutstanding > 0 {
		endShares = null.FloatFrom(sharesOutstanding)
	}
	flowShares := endShares
	if year.WeightedShares.Valid && year.WeightedShares.Float64 > 0 {
		flowShares = year.WeightedShares
	}

	m.SharesOutstanding = endShares
	m.SalesPerShare = Ratio(year.Revenue, flowShares)
	m.EPS = year.EPS
	if !m.EPS.Valid {
		m.EPS = Ratio(year.NetIncome, flowShares)
	}
	m.CashFlowPerShare = Add(m.EPS, Ratio(year.DepreciationAmortization, flowShares))
	m.DPS = year.DPS
	m.BookValuePerShare = year.BookValuePerShare
	if !m.BookValuePerShare.Valid {
		m.BookValuePerShare = Ratio(year.Equity, endShares)
	}

	m.GrossMargin = Ratio(year.GrossProfit, year.Revenue)
	m.NetMargin = Ratio(year.NetIncome, year.Revenue)
	m.ROE = Ratio(year.NetIncome, year.Equity)
	m.ROIC = Ratio(year.NOPAT, year.InvestedCapital)
	m.CashFlowToNetIncome = Ratio(year.OperatingCashFlow, year.NetIncome)
	m.DebtToAssets = Ratio(year.TotalDebt, year.TotalAssets)
	m.CurrentRatio = Ratio(year.CurrentAssets, year.CurrentLiabilities)
	m.PayoutRatio = Ratio(m.DPS, m.EPS)
	return m
}

// DeriveAll derives every year, looking up period-end shares with shares.
func DeriveAll(years []model.AlignedYear, shares func(model.AlignedYear) float64) []model.PerShareMetrics {
	out := make([]model.PerShareMetrics, len(years))
	for i, y := range years {
		out[i] = Derive(y, shares(y))
	}
	return out
}

// Ratio divides num by den, returning absent when either is absent, the
// denominator is zero or the result is not finite.
func Ratio(num, den null.Float) null.Float {
	if !num.Valid || !den.Valid || den.Float64 == 0 {
		return absent
	}
	return finite(num.Float64 / den.Float64)
}

// Add sums two values, absent if either is.
func Add(a, b null.Float) null.Float {
	if !a.Valid || !b.Valid {
		return absent
	}
	return finite(a.Float64 + b.Float64)
}

func finite(v float64) null.Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return absent
	}
	return null.FloatFrom(v)
}

// Series extracts one metric as a yearly series.
func Series(rows []model.PerShareMetrics, pick func(model.PerShareMetrics) null.Float) []model.YearValue {
	out := make([]model.YearValue, len(rows))
	for i, r := range rows {
		out[i] = model.YearValue{Year: r.Year, At: r.PeriodEnd, Value: pick(r)}
	}
	return out
}

// Latest returns the most recent present value of a metric.
func Latest(rows []model.PerShareMetrics, pick func(model.PerShareMetrics) null.Float) (model.PerShareMetrics, null.Float) {
	for i := len(rows) - 1; i >= 0; i-- {
		if v := pick(rows[i]); v.Valid {
			return rows[i], v
		}
	}
	return model.PerShareMetrics{}, absent
}
