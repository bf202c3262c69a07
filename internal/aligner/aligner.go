// Package aligner maps irregular fiscal reports onto a calendar-year grid.
package aligner

import (
	"fmt"
	"sort"
	"time"

	"EquitySheet/internal/model"
)

const dateLayout = "2006-01-02"

// maxTTMSpan bounds the distance between the first and last quarter end of
// a trailing-twelve-month window.
const maxTTMSpan = 300 * 24 * time.Hour

// Config controls the alignment window.
type Config struct {
	MaxYears int `yaml:"max_years"`
}

// DefaultConfig returns a 15-year window.
func DefaultConfig() Config {
	return Config{MaxYears: 15}
}

// Align builds one AlignedYear per calendar year, oldest first, covering up
// to cfg.MaxYears trailing years. Years without enough data are returned
// with Source == SourceAbsent. Only periods filed on or before asOf are used.
func Align(periods []model.FinancialPeriod, asOf time.Time, cfg Config) ([]model.AlignedYear, error) {
	usable := Known(periods, asOf)
	if len(usable) == 0 {
		var key model.SecurityKey
		if len(periods) > 0 {
			key = periods[0].Security
		}
		return nil, &model.InsufficientDataError{
			Security: key,
			Reason:   fmt.Sprintf("no financial periods known as of %s", asOf.Format(dateLayout)),
		}
	}

	annual := latestAnnualByYear(usable)
	quarters := DiscreteQuarters(usable)

	first, last := yearBounds(annual, quarters)
	if last < first {
		return nil, &model.InsufficientDataError{
			Security: usable[0].Security,
			Reason:   "no annual reports and no usable quarters",
		}
	}
	maxYears := cfg.MaxYears
	if maxYears <= 0 {
		maxYears = DefaultConfig().MaxYears
	}
	if last-first+1 > maxYears {
		first = last - maxYears + 1
	}

	years := make([]model.AlignedYear, 0, last-first+1)
	for y := first; y <= last; y++ {
		if p, ok := annual[y]; ok {
			years = append(years, model.AlignedYear{
				Year:      y,
				Source:    model.SourceAnnual,
				PeriodEnd: p.PeriodEnd,
				KnownAt:   p.KnownAt(),
				Statement: p.Statement,
			})
			continue
		}
		if ttm, ok := trailingTwelveMonths(y, quarters); ok {
			years = append(years, ttm)
			continue
		}
		years = append(years, model.AlignedYear{Year: y, Source: model.SourceAbsent})
	}
	return years, nil
}

// Known returns the periods public on or before asOf, one per
// (type, period end) with restatements resolved in favour of the latest
// filing, sorted by period end.
func Known(periods []model.FinancialPeriod, asOf time.Time) []model.FinancialPeriod {
	type key struct {
		kind model.PeriodType
		end  time.Time
	}
	latest := make(map[key]model.FinancialPeriod)
	for _, p := range periods {
		if p.PeriodEnd.After(asOf) || p.KnownAt().After(asOf) {
			continue
		}
		// UTC so that one instant in two locations is one key.
		k := key{p.PeriodType, p.PeriodEnd.UTC()}
		if prev, ok := latest[k]; !ok || p.KnownAt().After(prev.KnownAt()) {
			latest[k] = p
		}
	}

	out := make([]model.FinancialPeriod, 0, len(latest))
	for _, p := range latest {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodEnd.Equal(out[j].PeriodEnd) {
			return out[i].PeriodEnd.Before(out[j].PeriodEnd)
		}
		return out[i].PeriodType < out[j].PeriodType
	})
	return out
}

// latestAnnualByYear picks, for each calendar year, the most recently
// reported annual period ending in that year.
func latestAnnualByYear(periods []model.FinancialPeriod) map[int]model.FinancialPeriod {
	byYear := make(map[int]model.FinancialPeriod)
	for _, p := range periods {
		if p.PeriodType != model.PeriodAnnual {
			continue
		}
		y := p.PeriodEnd.Year()
		prev, ok := byYear[y]
		switch {
		case !ok:
			byYear[y] = p
		case p.KnownAt().After(prev.KnownAt()):
			byYear[y] = p
		case p.KnownAt().Equal(prev.KnownAt()) && p.PeriodEnd.After(prev.PeriodEnd):
			byYear[y] = p
		}
	}
	return byYear
}

func yearBounds(annual map[int]model.FinancialPeriod, quarters []model.FinancialPeriod) (first, last int) {
	first, last = 1<<31-1, -1
	// Both stay unset when only cumulative quarters without predecessors
	// exist.
	for y := range annual {
		first = min(first, y)
		last = max(last, y)
	}
	for _, q := range quarters {
		first = min(first, q.PeriodEnd.Year())
		last = max(last, q.PeriodEnd.Year())
	}
	return first, last
}

// trailingTwelveMonths sums the four discrete quarters ending with the last
// quarter reported inside year.
func trailingTwelveMonths(year int, quarters []model.FinancialPeriod) (model.AlignedYear, bool) {
	idx := -1
	for i, q := range quarters {
		if q.PeriodEnd.Year() == year {
			idx = i
		}
	}
	if idx < 3 {
		return model.AlignedYear{}, false
	}
	window := quarters[idx-3 : idx+1]
	latest := window[3]
	if latest.PeriodEnd.Sub(window[0].PeriodEnd) > maxTTMSpan {
		return model.AlignedYear{}, false
	}

	out := model.AlignedYear{
		Year:      year,
		Source:    model.SourceTTM,
		PeriodEnd: latest.PeriodEnd,
		Statement: latest.Statement,
	}
	sums := flows(&out.Statement)
	for i := range sums {
		*sums[i] = sumFlow(window, i)
	}
	for _, q := range window {
		if q.KnownAt().After(out.KnownAt) {
			out.KnownAt = q.KnownAt()
		}
	}
	return out, true
}

// Latest returns the most recent twelve-month statement public as of asOf:
// the latest annual report, or the trailing four discrete quarters when
// they end later.
func Latest(periods []model.FinancialPeriod, asOf time.Time) (model.AlignedYear, bool) {
	usable := Known(periods, asOf)

	var best model.AlignedYear
	found := false
	for _, p := range usable {
		if p.PeriodType != model.PeriodAnnual {
			continue
		}
		best = model.AlignedYear{
			Year:      p.PeriodEnd.Year(),
			Source:    model.SourceAnnual,
			PeriodEnd: p.PeriodEnd,
			KnownAt:   p.KnownAt(),
			Statement: p.Statement,
		}
		found = true
	}

	quarters := DiscreteQuarters(usable)
	if len(quarters) == 0 {
		return best, found
	}
	last := quarters[len(quarters)-1]
	if found && !last.PeriodEnd.After(best.PeriodEnd) {
		return best, true
	}
	if ttm, ok := trailingTwelveMonths(last.PeriodEnd.Year(), quarters); ok {
		return ttm, true
	}
	return best, found
}
