package aligner

import (
	"time"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/model"
)

// flows lists the flow line items of a statement, i.e. the ones that
// accumulate over a period rather than being measured at its end.
func flows(s *model.Statement) []*null.Float {
	return []*null.Float{
		&s.Revenue,
		&s.GrossProfit,
		&s.NetIncome,
		&s.EPS,
		&s.DPS,
		&s.OperatingCashFlow,
		&s.DepreciationAmortization,
		&s.NOPAT,
	}
}

func sumFlow(window []model.FinancialPeriod, field int) null.Float {
	total := 0.0
	for _, q := range window {
		v := *flows(&q.Statement)[field]
		if !v.Valid {
			return null.NewFloat(0, false)
		}
		total += v.Float64
	}
	return null.FloatFrom(total)
}

func diff(a, b null.Float) null.Float {
	if !a.Valid || !b.Valid {
		return null.NewFloat(0, false)
	}
	return null.FloatFrom(a.Float64 - b.Float64)
}

// consecutive reports whether two period ends are one quarter apart.
func consecutive(prev, next time.Time) bool {
	days := next.Sub(prev).Hours() / 24
	return days > 80 && days < 100
}

// DiscreteQuarters returns single-quarter figures sorted by period end.
// Year-to-date (cumulative) quarters are de-cumulated: a quarter ending in
// the first three months is taken as reported, later ones subtract the
// preceding cumulative figure of the same year. An annual report that
// closes a chain of cumulative quarters yields the fourth quarter. Quarters
// whose predecessor is missing are dropped.
func DiscreteQuarters(periods []model.FinancialPeriod) []model.FinancialPeriod {
	cumulativeYears := make(map[int]bool)
	for _, p := range periods {
		if p.PeriodType == model.PeriodQuarterly && p.Cumulative {
			cumulativeYears[p.PeriodEnd.Year()] = true
		}
	}

	var out []model.FinancialPeriod
	var prev *model.FinancialPeriod
	for i := range periods {
		p := periods[i]
		chained := p.PeriodType == model.PeriodQuarterly && p.Cumulative
		closesChain := p.PeriodType == model.PeriodAnnual && cumulativeYears[p.PeriodEnd.Year()]

		switch {
		case p.PeriodType == model.PeriodQuarterly && !p.Cumulative:
			out = append(out, p)
			continue
		case !chained && !closesChain:
			continue
		}

		q := p
		q.PeriodType = model.PeriodQuarterly
		q.Cumulative = false
		switch {
		case p.PeriodEnd.Month() <= time.March && chained:
			out = append(out, q)
		case prev != nil && prev.PeriodEnd.Year() == p.PeriodEnd.Year() && consecutive(prev.PeriodEnd, p.PeriodEnd):
			qf := flows(&q.Statement)
			pf := flows(&prev.Statement)
			for j := range qf {
				*qf[j] = diff(*qf[j], *pf[j])
			}
			out = append(out, q)
		}
		cum := p
		prev = &cum
	}
	return out
}
