package temperature

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	// KelvinThreshold is the maximum above which samples are taken as Kelvin.
	// This is a magnitude heuristic, not a check of the declared unit: a
	// Celsius grid never reaches 200 and a Kelvin grid never drops below it.
	KelvinThreshold = 200.0
	KelvinOffset    = 273.15
)

var ErrNoSamples = errors.New("no valid temperature samples")

// Stats are population statistics of a temperature grid in degrees Celsius.
type Stats struct {
	Mean    float64
	Min     float64
	Max     float64
	Std     float64
	Samples int
	// FromKelvin is set when the input was converted from Kelvin.
	FromKelvin bool
}

// Metric is a named statistic as persisted in summaries.
type Metric struct {
	Name  string
	Value float64
}

// Metrics returns the statistics under their persisted names.
func (s *Stats) Metrics() []Metric {
	return []Metric{
		{"mean_temp", s.Mean},
		{"min_temp", s.Min},
		{"max_temp", s.Max},
		{"std_temp", s.Std},
	}
}

// Summarize computes Celsius statistics over samples, ignoring NaN and Inf.
func Summarize(samples []float64) (*Stats, error) {
	valid := make([]float64, 0, len(samples))
	for _, v := range samples {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoSamples
	}

	kelvin := floats.Max(valid) > KelvinThreshold
	if kelvin {
		floats.AddConst(-KelvinOffset, valid)
	}
	mean, variance := stat.PopMeanVariance(valid, nil)
	return &Stats{
		Mean:       mean,
		Min:        floats.Min(valid),
		Max:        floats.Max(valid),
		Std:        math.Sqrt(variance),
		Samples:    len(valid),
		FromKelvin: kelvin,
	}, nil
}
