package temperature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name       string
		samples    []float64
		mean       float64
		min        float64
		max        float64
		std        float64
		fromKelvin bool
	}{
		{"constant Kelvin", []float64{300, 300, 300, 300}, 26.85, 26.85, 26.85, 0, true},
		{"constant Celsius", []float64{25, 25, 25}, 25, 25, 25, 0, false},
		{"mixed Kelvin", []float64{270, 280, 290, 300}, 11.85, -3.15, 26.85, math.Sqrt(125), true},
		{"NaN ignored", []float64{math.NaN(), 10, 20, math.Inf(1)}, 15, 10, 20, 5, false},
		{"threshold is exclusive", []float64{200, 190}, 195, 190, 200, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := Summarize(tt.samples)
			require.NoError(t, err)
			assert.InDelta(t, tt.mean, stats.Mean, 1e-9)
			assert.InDelta(t, tt.min, stats.Min, 1e-9)
			assert.InDelta(t, tt.max, stats.Max, 1e-9)
			assert.InDelta(t, tt.std, stats.Std, 1e-9)
			assert.Equal(t, tt.fromKelvin, stats.FromKelvin)
		})
	}
}

func TestSummarizeDoesNotModifyInput(t *testing.T) {
	samples := []float64{300, 301}
	_, err := Summarize(samples)
	require.NoError(t, err)
	assert.Equal(t, []float64{300, 301}, samples)
}

func TestSummarizeWithoutSamples(t *testing.T) {
	_, err := Summarize([]float64{math.NaN()})
	assert.ErrorIs(t, err, ErrNoSamples)

	_, err = Summarize(nil)
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestMetrics(t *testing.T) {
	stats := &Stats{Mean: 1, Min: 2, Max: 3, Std: 4}
	assert.Equal(t, []Metric{
		{"mean_temp", 1},
		{"min_temp", 2},
		{"max_temp", 3},
		{"std_temp", 4},
	}, stats.Metrics())
}

func TestResolveVariable(t *testing.T) {
	tests := []struct {
		name     string
		declared []string
		want     string
	}{
		{"short name", []string{"latitude", "longitude", "t2m"}, "t2m"},
		{"GRIB name", []string{"2t", "valid_time"}, "2t"},
		{"long name", []string{"temperature_2m"}, "temperature_2m"},
		{"first alias wins", []string{"temperature_2m", "t2m"}, "t2m"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveVariable(tt.declared)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := ResolveVariable([]string{"u10", "v10"})
		var notFound *VariableNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, []string{"u10", "v10"}, notFound.Available)
		assert.Contains(t, err.Error(), "u10, v10")
	})
}
