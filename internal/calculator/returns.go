package calculator

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"EquitySheet/internal/model"
)

// TradingDaysPerYear is used to annualise daily volatility.
const TradingDaysPerYear = 252

// SimpleReturns converts a price series into period-over-period returns.
// Pairs with a non-positive base are skipped.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}

// AnnualizedVolatility returns the sample standard deviation of daily
// returns over the year ending at asOf, scaled by sqrt(252).
func AnnualizedVolatility(points []model.PricePoint, asOf time.Time) (float64, error) {
	var closes []float64
	from := asOf.AddDate(-1, 0, 0)
	for _, p := range points {
		if p.Date.After(from) && !p.Date.After(asOf) {
			closes = append(closes, p.AdjClose)
		}
	}
	returns := SimpleReturns(closes)
	if len(returns) < 2 {
		return 0, errors.New("not enough returns for volatility")
	}
	return stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear), nil
}

// PeriodReturn returns the adjusted-price change between the last price on
// or before asOf and the last price on or before start.
func PeriodReturn(points []model.PricePoint, start, asOf time.Time) (float64, error) {
	end, ok := PriceOnOrBefore(points, asOf)
	if !ok {
		return 0, errors.New("no price at end of period")
	}
	begin, ok := PriceOnOrBefore(points, start)
	if !ok || begin.AdjClose <= 0 {
		return 0, errors.New("no price at start of period")
	}
	return end.AdjClose/begin.AdjClose - 1, nil
}

// weekKey identifies an ISO week.
func weekKey(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}

// AggregateToWeekly keeps the last close of every ISO week. Input must be
// sorted by date.
func AggregateToWeekly(daily []model.Bar) []model.Bar {
	if len(daily) == 0 {
		return nil
	}
	var weekly []model.Bar
	week := daily[0]
	for _, d := range daily[1:] {
		if weekKey(d.Time) != weekKey(week.Time) {
			weekly = append(weekly, week)
		}
		week = d
	}
	return append(weekly, week)
}

// PriceBars converts price points to adjusted-close bars.
func PriceBars(points []model.PricePoint) []model.Bar {
	bars := make([]model.Bar, len(points))
	for i, p := range points {
		bars[i] = model.Bar{Time: p.Date, Close: p.AdjClose}
	}
	return bars
}

// BenchmarkBars converts benchmark points to bars.
func BenchmarkBars(points []model.BenchmarkPoint) []model.Bar {
	bars := make([]model.Bar, len(points))
	for i, p := range points {
		bars[i] = model.Bar{Time: p.Date, Close: p.Close}
	}
	return bars
}

// Beta regresses weekly security returns on weekly benchmark returns over
// the trailing weeks that both series share and returns the OLS slope and
// the number of paired observations used.
func Beta(security, benchmark []model.Bar, weeks, minObservations int) (float64, int, error) {
	sec := AggregateToWeekly(security)
	bench := AggregateToWeekly(benchmark)

	benchByWeek := make(map[int]float64, len(bench))
	for _, b := range bench {
		benchByWeek[weekKey(b.Time)] = b.Close
	}
	var secCloses, benchCloses []float64
	for _, s := range sec {
		if c, ok := benchByWeek[weekKey(s.Time)]; ok {
			secCloses = append(secCloses, s.Close)
			benchCloses = append(benchCloses, c)
		}
	}
	if len(secCloses) > weeks+1 {
		secCloses = secCloses[len(secCloses)-weeks-1:]
		benchCloses = benchCloses[len(benchCloses)-weeks-1:]
	}

	var x, y []float64
	for i := 1; i < len(secCloses); i++ {
		if secCloses[i-1] <= 0 || benchCloses[i-1] <= 0 {
			continue
		}
		y = append(y, secCloses[i]/secCloses[i-1]-1)
		x = append(x, benchCloses[i]/benchCloses[i-1]-1)
	}
	if len(x) < minObservations {
		return 0, len(x), errors.New("not enough paired observations for beta")
	}
	if stat.Variance(x, nil) == 0 {
		return 0, len(x), errors.New("benchmark returns have zero variance")
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta, len(x), nil
}
