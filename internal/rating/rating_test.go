package rating

import (
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EquitySheet/internal/model"
)

var asOf = time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

// daily returns n consecutive daily points ending at asOf.
func daily(n int, price func(i int) float64) []model.PricePoint {
	start := asOf.AddDate(0, 0, -(n - 1))
	out := make([]model.PricePoint, n)
	for i := range out {
		p := price(i)
		out[i] = model.PricePoint{Date: start.AddDate(0, 0, i), Close: p, AdjClose: p}
	}
	return out
}

func component(t *testing.T, s model.RatingScore, name string) model.RatingComponent {
	t.Helper()
	for _, c := range s.Components {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("component %s not found", name)
	return model.RatingComponent{}
}

func TestScore_NoInputsIsNeutral(t *testing.T) {
	s := Score(Input{AsOf: asOf}, DefaultConfig())

	assert.Equal(t, 3, s.Timeliness)
	assert.Equal(t, 3, s.Safety)
	assert.Equal(t, 3, s.Technical)
	assert.False(t, s.Beta.Valid)
	assert.False(t, s.TimelinessComposite.Valid)
	assert.False(t, s.SafetyComposite.Valid)
	assert.False(t, s.TechnicalComposite.Valid)
	assert.Equal(t, 0, s.BetaObservations)
}

func TestScore_TimelinessMonotonicInMomentum(t *testing.T) {
	cfg := DefaultConfig()
	prev := 6
	prevComposite := math.Inf(-1)
	for _, m := range []float64{-0.4, -0.2, 0, 0.2, 0.4} {
		in := Input{
			AsOf:         asOf,
			PEPercentile: null.FloatFrom(0.5),
			Prices: []model.PricePoint{
				{Date: asOf.AddDate(0, -6, 0), AdjClose: 100, Close: 100},
				{Date: asOf, AdjClose: 100 * (1 + m), Close: 100 * (1 + m)},
			},
		}
		s := Score(in, cfg)
		require.True(t, s.TimelinessComposite.Valid)
		assert.LessOrEqual(t, s.Timeliness, prev, "momentum %v", m)
		assert.GreaterOrEqual(t, s.TimelinessComposite.Float64, prevComposite, "momentum %v", m)
		prev = s.Timeliness
		prevComposite = s.TimelinessComposite.Float64
	}
	assert.Equal(t, 2, prev)
}

func TestScore_TimelinessCheapBeatsExpensive(t *testing.T) {
	cheap := Score(Input{AsOf: asOf, PEPercentile: null.FloatFrom(0.05)}, DefaultConfig())
	dear := Score(Input{AsOf: asOf, PEPercentile: null.FloatFrom(0.95)}, DefaultConfig())

	assert.Equal(t, 1, cheap.Timeliness)
	assert.Equal(t, 5, dear.Timeliness)
}

func TestScore_SafetyAveragesPresentComponents(t *testing.T) {
	in := Input{
		AsOf: asOf,
		Metrics: []model.PerShareMetrics{
			{Year: 2022, DebtToAssets: null.FloatFrom(0.8), CashFlowToNetIncome: null.FloatFrom(0.1)},
			{Year: 2023, DebtToAssets: null.FloatFrom(0.3), CashFlowToNetIncome: null.FloatFrom(1.5)},
		},
	}
	s := Score(in, DefaultConfig())

	// leverage 2, coverage 1, volatility absent: 1.5 rounds to 2
	assert.Equal(t, 2, s.Safety)
	require.True(t, s.SafetyComposite.Valid)
	assert.InDelta(t, 1.5, s.SafetyComposite.Float64, 1e-12)
	lev := component(t, s, "debt_to_assets")
	require.NotNil(t, lev.Score)
	assert.Equal(t, 2, *lev.Score)
	assert.Nil(t, component(t, s, "volatility").Score)
}

func TestScore_Technical(t *testing.T) {
	rising := Score(Input{AsOf: asOf, Prices: daily(250, func(i int) float64 { return 100 + 0.4*float64(i) })}, DefaultConfig())
	require.True(t, rising.TechnicalComposite.Valid)
	assert.Greater(t, rising.TechnicalComposite.Float64, 0.10)
	assert.Equal(t, 1, rising.Technical)

	falling := Score(Input{AsOf: asOf, Prices: daily(250, func(i int) float64 { return 200 - 0.4*float64(i) })}, DefaultConfig())
	assert.Equal(t, 5, falling.Technical)

	short := Score(Input{AsOf: asOf, Prices: daily(100, func(i int) float64 { return 100 })}, DefaultConfig())
	assert.Equal(t, 3, short.Technical)
	assert.False(t, short.TechnicalComposite.Valid)
}

func TestScore_TurnoverAmplifiesTrend(t *testing.T) {
	prices := daily(250, func(i int) float64 { return 100 + 0.4*float64(i) })
	plain := Score(Input{AsOf: asOf, Prices: prices}, DefaultConfig())

	busy := make([]model.PricePoint, len(prices))
	copy(busy, prices)
	for i := range busy {
		busy[i].SharesOutstanding = 1_000_000
		busy[i].Volume = 1_000
		if i >= len(busy)-20 {
			busy[i].Volume = 3_000
		}
	}
	amplified := Score(Input{AsOf: asOf, Prices: busy}, DefaultConfig())

	ratio := component(t, amplified, "turnover_ratio")
	require.True(t, ratio.Raw.Valid)
	assert.InDelta(t, 2.0, ratio.Raw.Float64, 1e-12, "clamped at the maximum amplifier")
	assert.InDelta(t, 2*plain.TechnicalComposite.Float64, amplified.TechnicalComposite.Float64, 1e-12)
}

func TestScore_Beta(t *testing.T) {
	var prices []model.PricePoint
	var bench []model.BenchmarkPoint
	s, b := 50.0, 3000.0
	for i := 0; i < 80; i++ {
		if i > 0 {
			r := 0.015 * math.Cos(float64(i))
			b *= 1 + r
			s *= 1 + 1.2*r
		}
		at := asOf.AddDate(0, 0, -7*(79-i))
		prices = append(prices, model.PricePoint{Date: at, AdjClose: s, Close: s})
		bench = append(bench, model.BenchmarkPoint{Date: at, Close: b})
	}
	score := Score(Input{AsOf: asOf, Prices: prices, Benchmark: bench}, DefaultConfig())
	require.True(t, score.Beta.Valid)
	assert.InDelta(t, 1.2, score.Beta.Float64, 1e-9)
	assert.Equal(t, 79, score.BetaObservations)

	few := Score(Input{AsOf: asOf, Prices: prices[60:], Benchmark: bench[60:]}, DefaultConfig())
	assert.False(t, few.Beta.Valid)
	assert.Equal(t, 19, few.BetaObservations)
}

func TestScore_IgnoresPricesAfterAsOf(t *testing.T) {
	prices := []model.PricePoint{
		{Date: asOf.AddDate(0, -6, 0), AdjClose: 100},
		{Date: asOf, AdjClose: 100},
		{Date: asOf.AddDate(0, 0, 1), AdjClose: 500},
	}
	s := Score(Input{AsOf: asOf, Prices: prices}, DefaultConfig())
	assert.InDelta(t, 0, component(t, s, "momentum").Raw.Float64, 1e-12)
}

func TestScore_Deterministic(t *testing.T) {
	in := Input{
		AsOf:         asOf,
		PEPercentile: null.FloatFrom(0.3),
		Prices:       daily(400, func(i int) float64 { return 80 + 10*math.Sin(float64(i)/20) }),
		Metrics:      []model.PerShareMetrics{{Year: 2023, DebtToAssets: null.FloatFrom(0.5)}},
	}
	assert.Equal(t, Score(in, DefaultConfig()), Score(in, DefaultConfig()))
}

func TestScore_RanksAlwaysInRange(t *testing.T) {
	cfg := DefaultConfig()
	for _, pct := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, slope := range []float64{-0.3, 0, 0.3} {
			for _, lev := range []float64{0, 0.5, 0.99} {
				in := Input{
					AsOf:         asOf,
					PEPercentile: null.FloatFrom(pct),
					Prices:       daily(260, func(i int) float64 { return 100 + slope*float64(i) }),
					Metrics:      []model.PerShareMetrics{{Year: 2023, DebtToAssets: null.FloatFrom(lev)}},
				}
				s := Score(in, cfg)
				for _, r := range []int{s.Timeliness, s.Safety, s.Technical} {
					assert.GreaterOrEqual(t, r, 1)
					assert.LessOrEqual(t, r, 5)
				}
			}
		}
	}
}
