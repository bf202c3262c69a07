package rating

import "errors"

// Config holds the rating weights, look-back windows and bucket tables.
type Config struct {
	ValueWeight    float64 `yaml:"value_weight"`
	MomentumWeight float64 `yaml:"momentum_weight"`
	MomentumMonths int     `yaml:"momentum_months"`
	// MomentumScale maps a period return onto [0, 1] as 0.5 + m*scale.
	MomentumScale float64 `yaml:"momentum_scale"`

	SMAShort      int `yaml:"sma_short"`
	SMALong       int `yaml:"sma_long"`
	TurnoverShort int `yaml:"turnover_short"`
	TurnoverLong  int `yaml:"turnover_long"`
	// MaxTurnoverAmplifier bounds the recent/long turnover ratio to
	// [1/max, max].
	MaxTurnoverAmplifier float64 `yaml:"max_turnover_amplifier"`

	BetaWeeks           int `yaml:"beta_weeks"`
	MinBetaObservations int `yaml:"min_beta_observations"`

	NeutralScore int `yaml:"neutral_score"`

	Timeliness   BucketTable `yaml:"timeliness"`
	Leverage     BucketTable `yaml:"leverage"`
	CashCoverage BucketTable `yaml:"cash_coverage"`
	Volatility   BucketTable `yaml:"volatility"`
	Technical    BucketTable `yaml:"technical"`
}

// DefaultConfig returns the built-in cutoffs. Rank 1 is best.
func DefaultConfig() Config {
	return Config{
		ValueWeight:          0.6,
		MomentumWeight:       0.4,
		MomentumMonths:       6,
		MomentumScale:        2,
		SMAShort:             50,
		SMALong:              200,
		TurnoverShort:        20,
		TurnoverLong:         250,
		MaxTurnoverAmplifier: 2,
		BetaWeeks:            104,
		MinBetaObservations:  52,
		NeutralScore:         3,
		Timeliness: BucketTable{
			Cutoffs: []Cutoff{{0.8, 1}, {0.6, 2}, {0.4, 3}, {0.2, 4}},
			Default: 5,
		},
		// debt / assets: more leverage is riskier
		Leverage: BucketTable{
			Cutoffs: []Cutoff{{0.7, 5}, {0.55, 4}, {0.4, 3}, {0.25, 2}},
			Default: 1,
		},
		// operating cash flow / net income
		CashCoverage: BucketTable{
			Cutoffs: []Cutoff{{1.2, 1}, {1.0, 2}, {0.7, 3}, {0.3, 4}},
			Default: 5,
		},
		// annualised daily-return volatility
		Volatility: BucketTable{
			Cutoffs: []Cutoff{{0.6, 5}, {0.45, 4}, {0.35, 3}, {0.25, 2}},
			Default: 1,
		},
		Technical: BucketTable{
			Cutoffs: []Cutoff{{0.10, 1}, {0.03, 2}, {-0.03, 3}, {-0.10, 4}},
			Default: 5,
		},
	}
}

// Validate checks weights, windows and every bucket table.
func (c Config) Validate() error {
	if c.ValueWeight < 0 || c.MomentumWeight < 0 || c.ValueWeight+c.MomentumWeight == 0 {
		return errors.New("rating weights must be non-negative and not both zero")
	}
	if c.MomentumMonths <= 0 || c.MomentumScale <= 0 {
		return errors.New("rating.momentum_months and momentum_scale must be positive")
	}
	if c.SMAShort <= 0 || c.SMALong <= c.SMAShort {
		return errors.New("rating SMA windows must satisfy 0 < sma_short < sma_long")
	}
	if c.TurnoverShort <= 0 || c.TurnoverLong < c.TurnoverShort {
		return errors.New("rating turnover windows must satisfy 0 < turnover_short <= turnover_long")
	}
	if c.MaxTurnoverAmplifier < 1 {
		return errors.New("rating.max_turnover_amplifier must be at least 1")
	}
	if c.BetaWeeks <= 0 || c.MinBetaObservations < 2 || c.MinBetaObservations > c.BetaWeeks {
		return errors.New("rating beta window must satisfy 2 <= min_beta_observations <= beta_weeks")
	}
	if !validScore(c.NeutralScore) {
		return errors.New("rating.neutral_score must be within 1..5")
	}
	tables := []struct {
		name  string
		table BucketTable
	}{
		{"timeliness", c.Timeliness},
		{"leverage", c.Leverage},
		{"cash_coverage", c.CashCoverage},
		{"volatility", c.Volatility},
		{"technical", c.Technical},
	}
	for _, t := range tables {
		if err := t.table.Validate(t.name); err != nil {
			return err
		}
	}
	return nil
}
