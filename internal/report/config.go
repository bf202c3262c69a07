package report

import (
	"errors"
	"fmt"

	"EquitySheet/internal/aligner"
	"EquitySheet/internal/rating"
	"EquitySheet/internal/valuation"
)

// Config gathers every engine tunable. It is decoded from the engine:
// section of the service configuration.
type Config struct {
	Aligner       aligner.Config   `yaml:"aligner"`
	GrowthWindows []int            `yaml:"growth_windows"`
	Valuation     valuation.Config `yaml:"valuation"`
	Rating        rating.Config    `yaml:"rating"`
	QuarterlyRows int              `yaml:"quarterly_rows"`
	ChartYears    int              `yaml:"chart_years"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Aligner:       aligner.DefaultConfig(),
		GrowthWindows: []int{5, 10},
		Valuation:     valuation.DefaultConfig(),
		Rating:        rating.DefaultConfig(),
		QuarterlyRows: 8,
		ChartYears:    10,
	}
}

// Validate checks the engine configuration.
func (c Config) Validate() error {
	if c.Aligner.MaxYears <= 0 {
		return errors.New("engine.aligner.max_years must be positive")
	}
	if len(c.GrowthWindows) == 0 {
		return errors.New("engine.growth_windows must not be empty")
	}
	for _, w := range c.GrowthWindows {
		if w <= 0 {
			return fmt.Errorf("engine.growth_windows: invalid window %d", w)
		}
	}
	if c.QuarterlyRows <= 0 || c.ChartYears <= 0 {
		return errors.New("engine.quarterly_rows and chart_years must be positive")
	}
	if err := c.Valuation.Validate(); err != nil {
		return err
	}
	return c.Rating.Validate()
}
