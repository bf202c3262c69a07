// Package valuation derives historical PE/PB bands and a target price range.
package valuation

import (
	"errors"
	"math"
	"time"

	"github.com/guregu/null/v6"

	"EquitySheet/internal/calculator"
	"EquitySheet/internal/model"
)

var absent = null.NewFloat(0, false)

// Config controls the band heuristics.
type Config struct {
	MedianYears int     `yaml:"median_years"`
	BandLow     float64 `yaml:"band_low"`
	BandHigh    float64 `yaml:"band_high"`
	// ReasonablePELow and ReasonablePEHigh override the median-derived band
	// when both are set.
	ReasonablePELow  *float64 `yaml:"reasonable_pe_low"`
	ReasonablePEHigh *float64 `yaml:"reasonable_pe_high"`
	HorizonYears     int      `yaml:"horizon_years"`
}

// DefaultConfig returns the 10-year median band of ±20% over a 4-year horizon.
func DefaultConfig() Config {
	return Config{
		MedianYears:  10,
		BandLow:      0.8,
		BandHigh:     1.2,
		HorizonYears: 4,
	}
}

// Validate checks the band parameters.
func (c Config) Validate() error {
	if c.MedianYears <= 0 {
		return errors.New("valuation.median_years must be positive")
	}
	if c.BandLow <= 0 || c.BandHigh < c.BandLow {
		return errors.New("valuation band multipliers must satisfy 0 < band_low <= band_high")
	}
	if (c.ReasonablePELow == nil) != (c.ReasonablePEHigh == nil) {
		return errors.New("valuation.reasonable_pe_low and reasonable_pe_high must be set together")
	}
	if c.ReasonablePELow != nil && (*c.ReasonablePELow <= 0 || *c.ReasonablePEHigh < *c.ReasonablePELow) {
		return errors.New("valuation reasonable PE override must satisfy 0 < low <= high")
	}
	if c.HorizonYears <= 0 {
		return errors.New("valuation.horizon_years must be positive")
	}
	return nil
}

// Input carries the current market quote and forward estimates.
type Input struct {
	AsOf           time.Time
	CurrentPrice   float64
	MarketMedianPE null.Float
	ForwardEPSLow  float64
	ForwardEPSHigh float64
	EPSTTM         null.Float
	BVPSTTM        null.Float
	DPSTTM         null.Float
}

// Estimate computes the valuation band. Year-end multiples use the last
// raw close inside each calendar year and exist only for years that have
// ended by in.AsOf, so a trailing row for the current year never enters the
// PE history.
func Estimate(rows []model.PerShareMetrics, prices []model.PricePoint, in Input, cfg Config) model.ValuationBand {
	band := model.ValuationBand{HorizonYears: cfg.HorizonYears}

	band.YearEndPE = make([]model.YearValue, len(rows))
	band.YearEndPB = make([]model.YearValue, len(rows))
	for i, r := range rows {
		band.YearEndPE[i] = model.YearValue{Year: r.Year, At: r.PeriodEnd, Value: absent}
		band.YearEndPB[i] = model.YearValue{Year: r.Year, At: r.PeriodEnd, Value: absent}
		if !yearEnded(r.Year, in.AsOf) {
			continue
		}
		p, ok := calculator.YearEndPrice(prices, r.Year, in.AsOf)
		if !ok {
			continue
		}
		band.YearEndPE[i].Value = Multiple(Quote(p), r.EPS)
		band.YearEndPB[i].Value = Multiple(Quote(p), r.BookValuePerShare)
	}

	band.PETTM = Multiple(in.CurrentPrice, in.EPSTTM)
	band.PBTTM = Multiple(in.CurrentPrice, in.BVPSTTM)

	history := recentPositive(band.YearEndPE, in.AsOf, cfg.MedianYears)
	if median, err := calculator.Median(history); err == nil {
		band.PE10YMedian = null.FloatFrom(median)
	}
	if band.PETTM.Valid {
		if rank, err := calculator.PercentileRank(history, band.PETTM.Float64); err == nil {
			band.PEPercentile = null.FloatFrom(rank)
		}
		if in.MarketMedianPE.Valid && in.MarketMedianPE.Float64 > 0 {
			band.PERelative = null.FloatFrom(band.PETTM.Float64 / in.MarketMedianPE.Float64)
		}
	}

	switch {
	case cfg.ReasonablePELow != nil && cfg.ReasonablePEHigh != nil:
		band.ReasonablePELow = null.FloatFrom(*cfg.ReasonablePELow)
		band.ReasonablePEHigh = null.FloatFrom(*cfg.ReasonablePEHigh)
	case band.PE10YMedian.Valid:
		band.ReasonablePELow = null.FloatFrom(band.PE10YMedian.Float64 * cfg.BandLow)
		band.ReasonablePEHigh = null.FloatFrom(band.PE10YMedian.Float64 * cfg.BandHigh)
	case band.PETTM.Valid:
		band.ReasonablePELow = band.PETTM
		band.ReasonablePEHigh = band.PETTM
		band.Degenerate = true
	}

	if band.ReasonablePELow.Valid && in.ForwardEPSLow > 0 && in.ForwardEPSHigh > 0 {
		band.TargetPriceLow = null.FloatFrom(in.ForwardEPSLow * band.ReasonablePELow.Float64)
		band.TargetPriceHigh = null.FloatFrom(in.ForwardEPSHigh * band.ReasonablePEHigh.Float64)
	}

	if in.CurrentPrice > 0 && in.DPSTTM.Valid {
		band.DividendYield = null.FloatFrom(in.DPSTTM.Float64 / in.CurrentPrice)
	}
	if band.TargetPriceLow.Valid && in.CurrentPrice > 0 && cfg.HorizonYears > 0 {
		band.TotalReturnLow, band.AnnualReturnLow = returns(band.TargetPriceLow.Float64, in.CurrentPrice, band.DividendYield, cfg.HorizonYears)
		band.TotalReturnHigh, band.AnnualReturnHigh = returns(band.TargetPriceHigh.Float64, in.CurrentPrice, band.DividendYield, cfg.HorizonYears)
	}
	return band
}

// returns folds dividends accumulated at the current yield over the horizon
// into the price change. Without a known yield the return is price-only.
func returns(target, price float64, yield null.Float, horizon int) (total, annual null.Float) {
	dividends := 0.0
	if yield.Valid {
		dividends = price * yield.Float64 * float64(horizon)
	}
	t := (target+dividends)/price - 1
	total = null.FloatFrom(t)
	if 1+t > 0 {
		annual = null.FloatFrom(math.Pow(1+t, 1/float64(horizon)) - 1)
	}
	return total, annual
}

// Multiple divides a price by a per-share figure; absent unless the
// figure is positive.
func Multiple(price float64, perShare null.Float) null.Float {
	if price <= 0 || !perShare.Valid || perShare.Float64 <= 0 {
		return absent
	}
	return null.FloatFrom(price / perShare.Float64)
}

// Quote returns the raw close, falling back to the adjusted close when the
// provider did not supply one.
func Quote(p model.PricePoint) float64 {
	if p.Close > 0 {
		return p.Close
	}
	return p.AdjClose
}

// yearEnded reports whether Dec 31 of year is on or before asOf.
func yearEnded(year int, asOf time.Time) bool {
	return !time.Date(year, 12, 31, 0, 0, 0, 0, asOf.Location()).After(asOf)
}

// recentPositive keeps the present, positive values of the last n calendar
// years ended by asOf.

func recentPositive(series []model.YearValue, asOf time.Time, n int) []float64 {
	latest := 0
	for _, v := range series {
		if yearEnded(v.Year, asOf) && v.Year > latest {
			latest = v.Year
		}
	}
	if latest == 0 {
		return nil
	}
	var out []float64
	for _, v := range series {
		if v.Year <= latest-n || !v.Value.Valid || v.Value.Float64 <= 0 {
			continue
		}
		out = append(out, v.Value.Float64)
	}
	return out
}
