package rating

import (
	"errors"
	"fmt"
)

// Cutoff maps values at or above Threshold to Score.
type Cutoff struct {
	Threshold float64 `yaml:"threshold"`
	Score     int     `yaml:"score"`
}

// BucketTable is walked top-down; the first cutoff whose threshold the value
// reaches wins, otherwise Default applies.
type BucketTable struct {
	Cutoffs []Cutoff `yaml:"cutoffs"`
	Default int      `yaml:"default"`
}

// Bucket maps v to a 1..5 score.
func (t BucketTable) Bucket(v float64) int {
	for _, c := range t.Cutoffs {
		if v >= c.Threshold {
			return c.Score
		}
	}
	return t.Default
}

// Validate checks that thresholds are strictly descending and that every
// score is within 1..5.
func (t BucketTable) Validate(name string) error {
	if len(t.Cutoffs) == 0 {
		return fmt.Errorf("rating table %s: no cutoffs", name)
	}
	if !validScore(t.Default) {
		return fmt.Errorf("rating table %s: default score %d out of range 1..5", name, t.Default)
	}
	for i, c := range t.Cutoffs {
		if !validScore(c.Score) {
			return fmt.Errorf("rating table %s: cutoff %d score %d out of range 1..5", name, i, c.Score)
		}
		if i > 0 && c.Threshold >= t.Cutoffs[i-1].Threshold {
			return fmt.Errorf("rating table %s: %w", name, errNotDescending)
		}
	}
	return nil
}

var errNotDescending = errors.New("thresholds must be strictly descending")

func validScore(s int) bool {
	return s >= 1 && s <= 5
}
