// Package rating turns valuation, balance-sheet and price behaviour into
// three 1..5 ranks (1 is best) plus a market beta.
package rating

import (
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/calculator"
	"EquitySheet/internal/metrics"
	"EquitySheet/internal/model"
)

var absent = null.NewFloat(0, false)

// Input is everything the scorer looks at. Prices and benchmark closes
// after AsOf are ignored.
type Input struct {
	AsOf         time.Time
	PEPercentile null.Float
	Metrics      []model.PerShareMetrics
	Prices       []model.PricePoint
	Benchmark    []model.BenchmarkPoint
}

// Score computes the ranks. It is deterministic and performs no I/O.
func Score(in Input, cfg Config) model.RatingScore {
	prices := calculator.PricesUpTo(in.Prices, in.AsOf)
	bench := calculator.BenchmarkUpTo(in.Benchmark, in.AsOf)

	var out model.RatingScore
	var comps []model.RatingComponent

	out.Timeliness, out.TimelinessComposite, comps = timeliness(in, prices, cfg, comps)
	out.Safety, out.SafetyComposite, comps = safety(in, prices, cfg, comps)
	out.Technical, out.TechnicalComposite, comps = technical(prices, cfg, comps)
	out.Components = comps

	out.Beta = absent
	beta, n, err := calculator.Beta(calculator.PriceBars(prices), calculator.BenchmarkBars(bench), cfg.BetaWeeks, cfg.MinBetaObservations)
	out.BetaObservations = n
	if err == nil && !math.IsNaN(beta) && !math.IsInf(beta, 0) {
		out.Beta = null.FloatFrom(beta)
	}
	return out
}

// timeliness blends cheapness against its own history with recent momentum.
// A missing input drops out and the remaining weight is renormalised.
func timeliness(in Input, prices []model.PricePoint, cfg Config, comps []model.RatingComponent) (int, null.Float, []model.RatingComponent) {
	var sum, weight float64

	comps = append(comps, model.RatingComponent{
		Dimension: model.DimensionTimeliness,
		Name:      "pe_percentile",
		Raw:       in.PEPercentile,
		Weight:    cfg.ValueWeight,
	})
	if in.PEPercentile.Valid {
		sum += cfg.ValueWeight * (1 - in.PEPercentile.Float64)
		weight += cfg.ValueWeight
	}

	momentum := absent
	if m, err := calculator.PeriodReturn(prices, in.AsOf.AddDate(0, -cfg.MomentumMonths, 0), in.AsOf); err == nil {
		momentum = null.FloatFrom(m)
		sum += cfg.MomentumWeight * calculator.Clamp(0.5+m*cfg.MomentumScale, 0, 1)
		weight += cfg.MomentumWeight
	}
	comps = append(comps, model.RatingComponent{
		Dimension: model.DimensionTimeliness,
		Name:      "momentum",
		Raw:       momentum,
		Weight:    cfg.MomentumWeight,
	})

	if weight == 0 {
		return cfg.NeutralScore, absent, comps
	}
	composite := sum / weight
	return cfg.Timeliness.Bucket(composite), null.FloatFrom(composite), comps
}

// safety averages the leverage, cash coverage and volatility buckets.
func safety(in Input, prices []model.PricePoint, cfg Config, comps []model.RatingComponent) (int, null.Float, []model.RatingComponent) {
	_, leverage := metrics.Latest(in.Metrics, func(m model.PerShareMetrics) null.Float { return m.DebtToAssets })
	_, coverage := metrics.Latest(in.Metrics, func(m model.PerShareMetrics) null.Float { return m.CashFlowToNetIncome })
	volatility := absent
	if v, err := calculator.AnnualizedVolatility(prices, in.AsOf); err == nil {
		volatility = null.FloatFrom(v)
	}

	parts := []struct {
		name  string
		raw   null.Float
		table BucketTable
	}{
		{"debt_to_assets", leverage, cfg.Leverage},
		{"cash_flow_to_net_income", coverage, cfg.CashCoverage},
		{"volatility", volatility, cfg.Volatility},
	}

	total, n := 0, 0
	for _, p := range parts {
		c := model.RatingComponent{
			Dimension: model.DimensionSafety,
			Name:      p.name,
			Raw:       p.raw,
			Weight:    1.0 / float64(len(parts)),
		}
		if p.raw.Valid {
			s := p.table.Bucket(p.raw.Float64)
			c.Score = &s
			total += s
			n++
		}
		comps = append(comps, c)
	}
	if n == 0 {
		return cfg.NeutralScore, absent, comps
	}
	mean := float64(total) / float64(n)
	return int(math.Round(mean)), null.FloatFrom(mean), comps
}

// technical measures trend strength from moving averages, scaled by how
// active trading has been lately relative to the longer run.
func technical(prices []model.PricePoint, cfg Config, comps []model.RatingComponent) (int, null.Float, []model.RatingComponent) {
	closes := calculator.AdjustedCloses(prices)
	trend := absent
	amplifier := absent

	short, errShort := calculator.CalculateSMA(closes, cfg.SMAShort)
	long, errLong := calculator.CalculateSMA(closes, cfg.SMALong)
	if errShort == nil && errLong == nil && short > 0 && long > 0 {
		last := closes[len(closes)-1]
		trend = null.FloatFrom((short/long - 1) + 0.5*(last/short-1))
	}

	turnovers := calculator.Turnovers(prices)
	recent, errRecent := calculator.MeanOfLast(turnovers, cfg.TurnoverShort)
	base, errBase := calculator.MeanOfLast(turnovers, cfg.TurnoverLong)
	if errRecent == nil && errBase == nil && recent > 0 && base > 0 {
		amplifier = null.FloatFrom(calculator.Clamp(recent/base, 1/cfg.MaxTurnoverAmplifier, cfg.MaxTurnoverAmplifier))
	}

	comps = append(comps,
		model.RatingComponent{Dimension: model.DimensionTechnical, Name: "trend", Raw: trend, Weight: 1},
		model.RatingComponent{Dimension: model.DimensionTechnical, Name: "turnover_ratio", Raw: amplifier, Weight: 1},
	)

	if !trend.Valid {
		return cfg.NeutralScore, absent, comps
	}
	composite := trend.Float64
	if amplifier.Valid {
		composite *= amplifier.Float64
	}
	return cfg.Technical.Bucket(composite), null.FloatFrom(composite), comps
}
