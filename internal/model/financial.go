package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// PeriodType distinguishes annual from quarterly reports.
type PeriodType string

const (
	PeriodAnnual    PeriodType = "annual"
	PeriodQuarterly PeriodType = "quarterly"
)

// Statement is the set of reported line items shared by financial periods
// and aligned years. Every field may be absent.
type Statement struct {
	Revenue                  null.Float
	GrossProfit              null.Float
	NetIncome                null.Float
	EPS                      null.Float
	DPS                      null.Float
	BookValuePerShare        null.Float
	OperatingCashFlow        null.Float
	DepreciationAmortization null.Float
	NOPAT                    null.Float // tax-adjusted operating income
	InvestedCapital          null.Float
	TotalDebt                null.Float
	TotalAssets              null.Float
	TotalLiabilities         null.Float
	Equity                   null.Float
	Cash                     null.Float
	CurrentAssets            null.Float
	CurrentLiabilities       null.Float
	SharesOutstanding        null.Float // period end
	WeightedShares           null.Float // weighted average over the period
}

// FinancialPeriod is one reported fiscal period. Periods are keyed by
// (security, PeriodEnd, PeriodType); a later ReportDate for the same key is
// a restatement.
type FinancialPeriod struct {
	Security   SecurityKey
	PeriodEnd  time.Time
	PeriodType PeriodType
	ReportDate time.Time
	// Cumulative marks quarterly flow figures reported year-to-date.
	Cumulative bool
	Statement
}

// KnownAt returns the date the figures became public. Providers that omit
// the filing date are assumed to publish on the period end.
func (p FinancialPeriod) KnownAt() time.Time {
	if p.ReportDate.IsZero() {
		return p.PeriodEnd
	}
	return p.ReportDate
}

// YearSource records how an AlignedYear was built.
type YearSource string

const (
	SourceAnnual YearSource = "annual"
	SourceTTM    YearSource = "ttm"
	SourceAbsent YearSource = "absent"
)

// AlignedYear is one calendar year of reconciled figures for a security.
type AlignedYear struct {
	Year      int
	Source    YearSource
	PeriodEnd time.Time
	KnownAt   time.Time
	Statement
}

// Present reports whether the year carries data.
func (y AlignedYear) Present() bool {
	return y.Source != SourceAbsent
}
