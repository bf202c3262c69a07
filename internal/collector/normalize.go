package collector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"EquitySheet/internal/model"
)

var dateLayouts = []string{"20060102", "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// Normalize validates a provider payload into engine inputs: dates are
// parsed, series sorted and same-day duplicates collapsed to the last
// occurrence. Non-positive or non-finite prices are dropped.
func Normalize(key model.SecurityKey, p *Payload) (model.RawInputs, error) {
	if p == nil || (p.Profile.TSCode == "" && p.Profile.Name == "") {
		return model.RawInputs{}, &model.UnresolvableSecurityError{Identifier: key.String()}
	}
	if p.Profile.TSCode != "" {
		got, err := ResolveCode(p.Profile.TSCode)
		if err != nil || got != key {
			return model.RawInputs{}, &model.UnresolvableSecurityError{Identifier: key.String()}
		}
	}

	raw := model.RawInputs{
		Profile: model.SecurityProfile{
			Key:      key,
			Name:     p.Profile.Name,
			FullName: p.Profile.FullName,
			Industry: p.Profile.Industry,
			Market:   p.Profile.Market,
		},
		ForwardEPSLow:  p.ForwardEPSLow,
		ForwardEPSHigh: p.ForwardEPSHigh,
	}
	if p.Profile.ListDate != "" {
		d, err := parseDate(p.Profile.ListDate)
		if err != nil {
			return model.RawInputs{}, fmt.Errorf("profile list date: %w", err)
		}
		raw.Profile.ListDate = d
	}

	for i, dto := range p.Prices {
		d, err := parseDate(dto.TradeDate)
		if err != nil {
			return model.RawInputs{}, fmt.Errorf("price %d: %w", i, err)
		}
		adj := dto.Close
		if dto.AdjClose.Valid {
			adj = dto.AdjClose.Float64
		}
		if !usable(dto.Close) || !usable(adj) {
			continue
		}
		raw.Prices = append(raw.Prices, model.PricePoint{
			Date:              d,
			Close:             dto.Close,
			AdjClose:          adj,
			Volume:            dto.Volume,
			SharesOutstanding: dto.TotalShare,
		})
	}
	raw.Prices = dedupeByDate(raw.Prices, func(p model.PricePoint) time.Time { return p.Date })

	for i, dto := range p.Periods {
		period, err := toPeriod(key, dto)
		if err != nil {
			return model.RawInputs{}, fmt.Errorf("period %d: %w", i, err)
		}
		raw.Periods = append(raw.Periods, period)
	}
	sort.SliceStable(raw.Periods, func(i, j int) bool {
		return raw.Periods[i].PeriodEnd.Before(raw.Periods[j].PeriodEnd)
	})

	for i, dto := range p.Benchmark {
		d, err := parseDate(dto.Date)
		if err != nil {
			return model.RawInputs{}, fmt.Errorf("benchmark %d: %w", i, err)
		}
		if usable(dto.Value) {
			raw.Benchmark = append(raw.Benchmark, model.BenchmarkPoint{Date: d, Close: dto.Value})
		}
	}
	raw.Benchmark = dedupeByDate(raw.Benchmark, func(b model.BenchmarkPoint) time.Time { return b.Date })

	for i, dto := range p.MarketMedianPE {
		d, err := parseDate(dto.Date)
		if err != nil {
			return model.RawInputs{}, fmt.Errorf("market median pe %d: %w", i, err)
		}
		if usable(dto.Value) {
			raw.MarketMedianPE = append(raw.MarketMedianPE, model.DatedValue{Date: d, Value: dto.Value})
		}
	}
	raw.MarketMedianPE = dedupeByDate(raw.MarketMedianPE, func(v model.DatedValue) time.Time { return v.Date })

	return raw, nil
}

func toPeriod(key model.SecurityKey, dto PeriodDTO) (model.FinancialPeriod, error) {
	end, err := parseDate(dto.EndDate)
	if err != nil {
		return model.FinancialPeriod{}, fmt.Errorf("end date: %w", err)
	}
	var filed time.Time
	if dto.AnnDate != "" {
		if filed, err = parseDate(dto.AnnDate); err != nil {
			return model.FinancialPeriod{}, fmt.Errorf("announcement date: %w", err)
		}
	}
	var kind model.PeriodType
	switch dto.Type {
	case "annual", "A":
		kind = model.PeriodAnnual
	case "quarterly", "Q":
		kind = model.PeriodQuarterly
	default:
		return model.FinancialPeriod{}, fmt.Errorf("unknown period type %q", dto.Type)
	}

	return model.FinancialPeriod{
		Security:   key,
		PeriodEnd:  end,
		PeriodType: kind,
		ReportDate: filed,
		Cumulative: dto.Cumulative && kind == model.PeriodQuarterly,
		Statement: model.Statement{
			Revenue:                  dto.Revenue,
			GrossProfit:              dto.GrossProfit,
			NetIncome:                dto.NetIncome,
			EPS:                      dto.EPS,
			DPS:                      dto.DPS,
			BookValuePerShare:        dto.BookValuePerShare,
			OperatingCashFlow:        dto.OperatingCashFlow,
			DepreciationAmortization: dto.DepreciationAmortization,
			NOPAT:                    dto.NOPAT,
			InvestedCapital:          dto.InvestedCapital,
			TotalDebt:                dto.TotalDebt,
			TotalAssets:              dto.TotalAssets,
			TotalLiabilities:         dto.TotalLiabilities,
			Equity:                   dto.Equity,
			Cash:                     dto.Cash,
			CurrentAssets:            dto.CurrentAssets,
			CurrentLiabilities:       dto.CurrentLiabilities,
			SharesOutstanding:        dto.SharesOutstanding,
			WeightedShares:           dto.WeightedShares,
		},
	}, nil
}

func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// dedupeByDate sorts items by date and keeps the last occurrence of each
// date.
func dedupeByDate[T any](items []T, date func(T) time.Time) []T {
	sort.SliceStable(items, func(i, j int) bool { return date(items[i]).Before(date(items[j])) })
	out := items[:0]
	for i, it := range items {
		if i+1 < len(items) && date(items[i+1]).Equal(date(it)) {
			continue
		}
		out = append(out, it)
	}
	return out
}
