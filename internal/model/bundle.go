package model

import "github.com/guregu/null/v6"

// SchemaVersion versions the bundle contract shared with renderers.
const SchemaVersion = "1"

// ReportBundle is the assembled single-page equity report for one
// (security, as-of date). It is never mutated after assembly.
type ReportBundle struct {
	Meta             Meta             `json:"meta"`
	Ranks            Ranks            `json:"ranks"`
	TopMetrics       TopMetrics       `json:"top_metrics"`
	Chart            Chart            `json:"chart"`
	StatisticalArray []StatisticalRow `json:"statistical_array"`
	GrowthRates      []GrowthWindow   `json:"growth_rates"`
	CapitalStructure CapitalStructure `json:"capital_structure"`
	QuarterlyArray   []QuarterlyRow   `json:"quarterly_array"`
	SummaryScores    SummaryScores    `json:"summary_scores"`
}

// Meta describes the security and the bundle itself.
type Meta struct {
	Code             string      `json:"code"`
	Exchange         string      `json:"exchange"`
	Symbol           string      `json:"symbol"`
	Name             null.String `json:"name"`
	FullName         null.String `json:"full_name"`
	Industry         null.String `json:"industry"`
	Market           null.String `json:"market"`
	ListDate         null.String `json:"list_date"`
	AsOf             string      `json:"as_of"`
	SchemaVersion    string      `json:"schema_version"`
	LatestFiscalYear *int        `json:"latest_fiscal_year"`
	YearsCovered     int         `json:"years_covered"`
}

// Ranks is the headline rating box.
type Ranks struct {
	Timeliness int        `json:"timeliness"`
	Safety     int        `json:"safety"`
	Technical  int        `json:"technical"`
	Beta       null.Float `json:"beta"`
}

// TopMetrics is the header strip of the report.
type TopMetrics struct {
	RecentPrice   null.Float `json:"recent_price"`
	PETTM         null.Float `json:"pe_ttm"`
	PE10YMedian   null.Float `json:"pe_10y_median"`
	PERelative    null.Float `json:"pe_relative"`
	PB            null.Float `json:"pb"`
	DividendYield null.Float `json:"div_yield"`
	MarketCap     null.Float `json:"market_cap"`
	High52W       null.Float `json:"high_52w"`
	Low52W        null.Float `json:"low_52w"`
}

// Chart holds month-end series for the price/valuation chart.
type Chart struct {
	Dates []string     `json:"dates"`
	Price []null.Float `json:"price"`
	PE    []null.Float `json:"pe"`
	PB    []null.Float `json:"pb"`
}

// StatisticalRow is one year of the statistical array.
type StatisticalRow struct {
	PerShareMetrics
	PEYearEnd null.Float `json:"pe_year_end"`
	PBYearEnd null.Float `json:"pb_year_end"`
}

// CapitalStructure summarises the latest known balance sheet.
type CapitalStructure struct {
	PeriodEnd        null.String `json:"period_end"`
	TotalAssets      null.Float  `json:"total_assets"`
	TotalLiabilities null.Float  `json:"total_liabilities"`
	Equity           null.Float  `json:"equity"`
	Cash             null.Float  `json:"cash"`
	TotalDebt        null.Float  `json:"total_debt"`
	DebtToAssets     null.Float  `json:"debt_to_assets"`
	CurrentRatio     null.Float  `json:"current_ratio"`
	MarketCap        null.Float  `json:"market_cap"`
}

// QuarterlyRow is one discrete fiscal quarter.
type QuarterlyRow struct {
	PeriodEnd string     `json:"period_end"`
	Revenue   null.Float `json:"revenue"`
	NetIncome null.Float `json:"net_income"`
	EPS       null.Float `json:"eps"`
	DPS       null.Float `json:"dps"`
}

// SummaryScores exposes the inputs behind the ranks and the valuation band.
type SummaryScores struct {
	Rating    RatingScore   `json:"rating"`
	Valuation ValuationBand `json:"valuation"`
}

// PublishedReport is a bundle with its generated commentary, as cached and
// served by the host service.
type PublishedReport struct {
	*ReportBundle
	Commentary string `json:"commentary"`
}
