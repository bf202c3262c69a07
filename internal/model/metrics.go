package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// PerShareMetrics is the derived per-share and ratio row for one year.
type PerShareMetrics struct {
	Year                int        `json:"year"`
	Source              YearSource `json:"source"`
	PeriodEnd           time.Time  `json:"-"`
	KnownAt             time.Time  `json:"-"`
	SalesPerShare       null.Float `json:"sales_per_share"`
	CashFlowPerShare    null.Float `json:"cash_flow_per_share"`
	EPS                 null.Float `json:"eps"`
	DPS                 null.Float `json:"dps"`
	BookValuePerShare   null.Float `json:"book_value_per_share"`
	GrossMargin         null.Float `json:"gross_margin"`
	NetMargin           null.Float `json:"net_margin"`
	ROE                 null.Float `json:"roe"`
	ROIC                null.Float `json:"roic"`
	CashFlowToNetIncome null.Float `json:"cash_flow_to_net_income"`
	DebtToAssets        null.Float `json:"debt_to_assets"`
	CurrentRatio        null.Float `json:"current_ratio"`
	PayoutRatio         null.Float `json:"payout_ratio"`
	SharesOutstanding   null.Float `json:"shares_outstanding"`
}

// YearValue is one observation of a yearly metric series.
type YearValue struct {
	Year  int
	At    time.Time // period end; zero when unknown
	Value null.Float
}

// GrowthWindow is a compound annual growth rate over a trailing window.
type GrowthWindow struct {
	Metric      string     `json:"metric"`
	WindowYears int        `json:"window_years"`
	Value       null.Float `json:"cagr"`
	StartYear   *int       `json:"start_year"`
	EndYear     *int       `json:"end_year"`
	ActualYears null.Float `json:"actual_years"`
}

// ValuationBand is the output of the valuation estimator.
type ValuationBand struct {
	PETTM            null.Float `json:"pe_ttm"`
	PBTTM            null.Float `json:"pb_ttm"`
	PE10YMedian      null.Float `json:"pe_10y_median"`
	PERelative       null.Float `json:"pe_relative"`
	PEPercentile     null.Float `json:"pe_percentile"`
	ReasonablePELow  null.Float `json:"reasonable_pe_low"`
	ReasonablePEHigh null.Float `json:"reasonable_pe_high"`
	// Degenerate is set when no PE history exists and the band collapsed
	// to the current TTM PE.
	Degenerate       bool        `json:"degenerate"`
	TargetPriceLow   null.Float  `json:"target_price_low"`
	TargetPriceHigh  null.Float  `json:"target_price_high"`
	DividendYield    null.Float  `json:"dividend_yield"`
	TotalReturnLow   null.Float  `json:"total_return_low"`
	TotalReturnHigh  null.Float  `json:"total_return_high"`
	AnnualReturnLow  null.Float  `json:"annual_return_low"`
	AnnualReturnHigh null.Float  `json:"annual_return_high"`
	HorizonYears     int         `json:"horizon_years"`
	YearEndPE        []YearValue `json:"-"`
	YearEndPB        []YearValue `json:"-"`
}

// RatingDimension names a discrete rating.
type RatingDimension string

const (
	DimensionTimeliness RatingDimension = "timeliness"
	DimensionSafety     RatingDimension = "safety"
	DimensionTechnical  RatingDimension = "technical"
)

// RatingComponent is one bucketed input of a rating, kept for the summary
// scores section.
type RatingComponent struct {
	Dimension RatingDimension `json:"dimension"`
	Name      string          `json:"name"`
	Raw       null.Float      `json:"raw"`
	Score     *int            `json:"score"`
	Weight    float64         `json:"weight"`
}

// RatingScore holds the three 1..5 ranks (1 is best) and beta.
type RatingScore struct {
	Timeliness          int               `json:"timeliness"`
	Safety              int               `json:"safety"`
	Technical           int               `json:"technical"`
	Beta                null.Float        `json:"beta"`
	TimelinessComposite null.Float        `json:"timeliness_composite"`
	SafetyComposite     null.Float        `json:"safety_composite"` // mean bucket score
	TechnicalComposite  null.Float        `json:"technical_composite"`
	BetaObservations    int               `json:"beta_observations"`
	Components          []RatingComponent `json:"components"`
}
