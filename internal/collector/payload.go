package collector

import "github.com/guregu/null/v6"

// Payload is the wire shape shared by the file and HTTP providers. Dates
// are YYYYMMDD or YYYY-MM-DD strings.
type Payload struct {
	Profile        ProfileDTO  `json:"profile"`
	Prices         []PriceDTO  `json:"prices"`
	Periods        []PeriodDTO `json:"periods"`
	Benchmark      []DatedDTO  `json:"benchmark"`
	MarketMedianPE []DatedDTO  `json:"market_median_pe"`
	ForwardEPSLow  null.Float  `json:"forward_eps_low"`
	ForwardEPSHigh null.Float  `json:"forward_eps_high"`
}

// ProfileDTO is the security's reference data.
type ProfileDTO struct {
	TSCode   string `json:"ts_code"`
	Name     string `json:"name"`
	FullName string `json:"fullname"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
	ListDate string `json:"list_date"`
}

// PriceDTO is one trading day. AdjClose defaults to Close when missing.
type PriceDTO struct {
	TradeDate  string     `json:"trade_date"`
	Close      float64    `json:"close"`
	AdjClose   null.Float `json:"adj_close"`
	Volume     float64    `json:"vol"`
	TotalShare float64    `json:"total_share"`
}

// DatedDTO is a generic dated observation.
type DatedDTO struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// PeriodDTO is one reported fiscal period.
type PeriodDTO struct {
	EndDate    string `json:"end_date"`
	AnnDate    string `json:"ann_date"`
	Type       string `json:"type"`
	Cumulative bool   `json:"cumulative"`

	Revenue                  null.Float `json:"revenue"`
	GrossProfit              null.Float `json:"gross_profit"`
	NetIncome                null.Float `json:"net_income"`
	EPS                      null.Float `json:"eps"`
	DPS                      null.Float `json:"dps"`
	BookValuePerShare        null.Float `json:"bvps"`
	OperatingCashFlow        null.Float `json:"operating_cash_flow"`
	DepreciationAmortization null.Float `json:"depreciation_amortization"`
	NOPAT                    null.Float `json:"nopat"`
	InvestedCapital          null.Float `json:"invested_capital"`
	TotalDebt                null.Float `json:"total_debt"`
	TotalAssets              null.Float `json:"total_assets"`
	TotalLiabilities         null.Float `json:"total_liabilities"`
	Equity                   null.Float `json:"equity"`
	Cash                     null.Float `json:"cash"`
	CurrentAssets            null.Float `json:"current_assets"`
	CurrentLiabilities       null.Float `json:"current_liabilities"`
	SharesOutstanding        null.Float `json:"shares_outstanding"`
	WeightedShares           null.Float `json:"weighted_shares"`
}
