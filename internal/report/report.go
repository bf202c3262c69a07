// Package report assembles the single-page equity report bundle from raw
// market and financial inputs.
package report

import (
	"errors"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/aligner"
	"EquitySheet/internal/calculator"
	"EquitySheet/internal/growth"
	"EquitySheet/internal/metrics"
	"EquitySheet/internal/model"
	"EquitySheet/internal/rating"
	"EquitySheet/internal/valuation"
)

const dateLayout = "2006-01-02"

var absent = null.NewFloat(0, false)

// Assemble runs the whole pipeline for one security as of asOf. Missing
// inputs leave the affected fields null; only an unresolvable security or
// a complete lack of financial history is an error. The result depends on
// nothing but the arguments.
func Assemble(key model.SecurityKey, asOf time.Time, raw model.RawInputs, cfg Config) (*model.ReportBundle, error) {
	if key.IsZero() || raw.Profile.Key != key {
		return nil, &model.UnresolvableSecurityError{Identifier: key.String()}
	}

	years, err := aligner.Align(raw.Periods, asOf, cfg.Aligner)
	if err != nil {
		var insufficient *model.InsufficientDataError
		if errors.As(err, &insufficient) && insufficient.Security.IsZero() {
			insufficient.Security = key
		}
		return nil, err
	}

	prices := calculator.PricesUpTo(raw.Prices, asOf)
	shares := sharesLookup(prices)
	rows := metrics.DeriveAll(years, shares)
	rates := growth.Rates(rows, cfg.GrowthWindows)

	latest, haveLatest := aligner.Latest(raw.Periods, asOf)
	var current model.PerShareMetrics
	if haveLatest {
		current = metrics.Derive(latest, shares(latest))
	}

	var price float64
	var last model.PricePoint
	if len(prices) > 0 {
		last = prices[len(prices)-1]
		price = valuation.Quote(last)
	}

	fwdLow, fwdHigh := forwardEPS(raw, current.EPS, rates, cfg)
	band := valuation.Estimate(rows, prices, valuation.Input{
		AsOf:           asOf,
		CurrentPrice:   price,
		MarketMedianPE: marketMedianPE(raw.MarketMedianPE, asOf),
		ForwardEPSLow:  fwdLow,
		ForwardEPSHigh: fwdHigh,
		EPSTTM:         current.EPS,
		BVPSTTM:        current.BookValuePerShare,
		DPSTTM:         current.DPS,
	}, cfg.Valuation)

	score := rating.Score(rating.Input{
		AsOf:         asOf,
		PEPercentile: band.PEPercentile,
		Metrics:      rows,
		Prices:       prices,
		Benchmark:    raw.Benchmark,
	}, cfg.Rating)

	marketCap := absent
	if price > 0 {
		count := last.SharesOutstanding
		if count <= 0 && haveLatest {
			count = shares(latest)
		}
		if count > 0 {
			marketCap = null.FloatFrom(price * count)
		}
	}

	bundle := &model.ReportBundle{
		Meta: buildMeta(key, raw.Profile, asOf, rows),
		Ranks: model.Ranks{
			Timeliness: score.Timeliness,
			Safety:     score.Safety,
			Technical:  score.Technical,
			Beta:       score.Beta,
		},
		TopMetrics: model.TopMetrics{
			RecentPrice:   positive(price),
			PETTM:         band.PETTM,
			PE10YMedian:   band.PE10YMedian,
			PERelative:    band.PERelative,
			PB:            band.PBTTM,
			DividendYield: band.DividendYield,
			MarketCap:     marketCap,
			High52W:       absent,
			Low52W:        absent,
		},
		Chart:            buildChart(prices, raw.Periods, asOf, shares, cfg.ChartYears),
		StatisticalArray: buildStatistical(rows, band),
		GrowthRates:      rates,
		CapitalStructure: buildCapitalStructure(raw.Periods, asOf, marketCap),
		QuarterlyArray:   buildQuarterly(raw.Periods, asOf, cfg.QuarterlyRows),
		SummaryScores:    model.SummaryScores{Rating: score, Valuation: band},
	}
	if high, low, err := calculator.Calculate52WeekRange(prices, asOf); err == nil {
		bundle.TopMetrics.High52W = null.FloatFrom(high)
		bundle.TopMetrics.Low52W = null.FloatFrom(low)
	}
	return bundle, nil
}

// sharesLookup prefers the share count reported with the statement and
// falls back to the count quoted with the last price at the period end.
func sharesLookup(prices []model.PricePoint) func(model.AlignedYear) float64 {
	return func(y model.AlignedYear) float64 {
		if y.SharesOutstanding.Valid && y.SharesOutstanding.Float64 > 0 {
			return y.SharesOutstanding.Float64
		}
		if p, ok := calculator.PriceOnOrBefore(prices, y.PeriodEnd); ok {
			return p.SharesOutstanding
		}
		return 0
	}
}

// forwardEPS uses provider estimates when given. Otherwise the low case is
// the latest EPS and the high case compounds it at the shortest-window EPS
// growth rate over the valuation horizon, when that rate is positive.
func forwardEPS(raw model.RawInputs, eps null.Float, rates []model.GrowthWindow, cfg Config) (low, high float64) {
	base := 0.0
	if eps.Valid {
		base = eps.Float64
	}
	low, high = base, base
	if len(cfg.GrowthWindows) > 0 {
		shortest := cfg.GrowthWindows[0]
		for _, w := range cfg.GrowthWindows[1:] {
			shortest = min(shortest, w)
		}
		if g, ok := growth.Find(rates, growth.MetricEPS, shortest); ok && g.Value.Valid && g.Value.Float64 > 0 {
			high = base * math.Pow(1+g.Value.Float64, float64(cfg.Valuation.HorizonYears))
		}
	}
	if raw.ForwardEPSLow.Valid {
		low = raw.ForwardEPSLow.Float64
	}
	if raw.ForwardEPSHigh.Valid {
		high = raw.ForwardEPSHigh.Float64
	}
	if high < low {
		low, high = high, low
	}
	return low, high
}

func marketMedianPE(series []model.DatedValue, asOf time.Time) null.Float {
	out := absent
	for _, v := range series {
		if v.Date.After(asOf) {
			break
		}
		if v.Value > 0 {
			out = null.FloatFrom(v.Value)
		}
	}
	return out
}

// optional marks an empty profile string as absent.
func optional(v string) null.String {
	return null.NewString(v, v != "")
}

func buildMeta(key model.SecurityKey, p model.SecurityProfile, asOf time.Time, rows []model.PerShareMetrics) model.Meta {
	m := model.Meta{
		Code:          key.Code,
		Exchange:      key.Exchange,
		Symbol:        key.String(),
		Name:          optional(p.Name),
		FullName:      optional(p.FullName),
		Industry:      optional(p.Industry),
		Market:        optional(p.Market),
		ListDate:      null.NewString("", false),
		AsOf:          asOf.Format(dateLayout),
		SchemaVersion: model.SchemaVersion,
	}
	if !p.ListDate.IsZero() {
		m.ListDate = null.StringFrom(p.ListDate.Format(dateLayout))
	}
	for _, r := range rows {
		if r.Source == model.SourceAbsent {
			continue
		}
		m.YearsCovered++
		year := r.Year
		m.LatestFiscalYear = &year
	}
	return m
}

// buildChart samples the last trading day of each month. PE and PB use only
// the statements public on that day.
func buildChart(prices []model.PricePoint, periods []model.FinancialPeriod, asOf time.Time, shares func(model.AlignedYear) float64, years int) model.Chart {
	chart := model.Chart{
		Dates: []string{},
		Price: []null.Float{},
		PE:    []null.Float{},
		PB:    []null.Float{},
	}
	start := asOf.AddDate(-years, 0, 0)
	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !month.After(asOf) {
		next := month.AddDate(0, 1, 0)
		end := next.Add(-time.Nanosecond)
		if end.After(asOf) {
			end = asOf
		}
		month = next

		p, ok := calculator.PriceOnOrBefore(prices, end)
		if !ok || p.Date.Year() != end.Year() || p.Date.Month() != end.Month() || p.Date.Before(start) {
			continue
		}
		pe, pb := absent, absent
		if stmt, ok := aligner.Latest(periods, p.Date); ok {
			m := metrics.Derive(stmt, shares(stmt))
			pe = valuation.Multiple(valuation.Quote(p), m.EPS)
			pb = valuation.Multiple(valuation.Quote(p), m.BookValuePerShare)
		}
		chart.Dates = append(chart.Dates, p.Date.Format(dateLayout))
		chart.Price = append(chart.Price, positive(p.AdjClose))
		chart.PE = append(chart.PE, pe)
		chart.PB = append(chart.PB, pb)
	}
	return chart
}

func buildStatistical(rows []model.PerShareMetrics, band model.ValuationBand) []model.StatisticalRow {
	out := make([]model.StatisticalRow, len(rows))
	for i, r := range rows {
		out[i] = model.StatisticalRow{
			PerShareMetrics: r,
			PEYearEnd:       band.YearEndPE[i].Value,
			PBYearEnd:       band.YearEndPB[i].Value,
		}
	}
	return out
}

// buildCapitalStructure reads the balance sheet of the latest period of
// either type.
func buildCapitalStructure(periods []model.FinancialPeriod, asOf time.Time, marketCap null.Float) model.CapitalStructure {
	cs := model.CapitalStructure{
		PeriodEnd:        null.NewString("", false),
		TotalAssets:      absent,
		TotalLiabilities: absent,
		Equity:           absent,
		Cash:             absent,
		TotalDebt:        absent,
		DebtToAssets:     absent,
		CurrentRatio:     absent,
		MarketCap:        marketCap,
	}
	known := aligner.Known(periods, asOf)
	if len(known) == 0 {
		return cs
	}
	p := known[len(known)-1]
	cs.PeriodEnd = null.StringFrom(p.PeriodEnd.Format(dateLayout))
	cs.TotalAssets = p.TotalAssets
	cs.TotalLiabilities = p.TotalLiabilities
	cs.Equity = p.Equity
	cs.Cash = p.Cash
	cs.TotalDebt = p.TotalDebt
	cs.DebtToAssets = metrics.Ratio(p.TotalDebt, p.TotalAssets)
	cs.CurrentRatio = metrics.Ratio(p.CurrentAssets, p.CurrentLiabilities)
	return cs
}

// buildQuarterly lists the latest discrete quarters, newest first.
func buildQuarterly(periods []model.FinancialPeriod, asOf time.Time, n int) []model.QuarterlyRow {
	quarters := aligner.DiscreteQuarters(aligner.Known(periods, asOf))
	if len(quarters) > n {
		quarters = quarters[len(quarters)-n:]
	}
	out := make([]model.QuarterlyRow, 0, len(quarters))
	for i := len(quarters) - 1; i >= 0; i-- {
		q := quarters[i]
		out = append(out, model.QuarterlyRow{
			PeriodEnd: q.PeriodEnd.Format(dateLayout),
			Revenue:   q.Revenue,
			NetIncome: q.NetIncome,
			EPS:       q.EPS,
			DPS:       q.DPS,
		})
	}
	return out
}

func positive(v float64) null.Float {
	if v > 0 {
		return null.FloatFrom(v)
	}
	return absent
}
