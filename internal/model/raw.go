package model

import "github.com/guregu/null/v6"

// RawInputs is everything the engine needs for one security, already
// fetched and validated by the caller.
type RawInputs struct {
	Profile        SecurityProfile
	Prices         []PricePoint
	Periods        []FinancialPeriod
	Benchmark      []BenchmarkPoint
	MarketMedianPE []DatedValue
	ForwardEPSLow  null.Float
	ForwardEPSHigh null.Float
}
