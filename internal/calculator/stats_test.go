package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even averages middle pair", []float64{10, 12, 15, 18, 20, 9, 11, 14, 16, 17}, 14.5},
		{"single", []float64{7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Median(tt.values)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, err := Median(nil)
	assert.Error(t, err)
}

func TestMedian_DoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Median(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestPercentileRank(t *testing.T) {
	history := []float64{10, 20, 30, 40}
	tests := []struct {
		x    float64
		want float64
	}{
		{5, 0},
		{45, 1},
		{25, 0.5},
		{20, 0.375},
	}
	for _, tt := range tests {
		got, err := PercentileRank(history, tt.x)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, "x=%v", tt.x)
	}

	got, err := PercentileRank([]float64{5, 5, 5}, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 1e-12)

	_, err = PercentileRank(nil, 1)
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.3, Clamp(0.3, 0, 1))
}
