// Package stats holds the robust statistics used by the dispersion metrics.
package stats

import (
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Iron-Ham/archmetrics/internal/errors"
)

// ErrEmptySample is returned for statistics of an empty sample.
var ErrEmptySample = errors.New("empty sample")

// Median returns the sample median. For an even number of values it is the
// mean of the two middle values. The input is not modified.
func Median(values []float64) (float64, error) {
	n := len(values)
	if n == 0 {
		return 0, ErrEmptySample
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

// MAD returns the median absolute deviation from the median, together with
// the median itself.
func MAD(values []float64) (mad, median float64, err error) {
	median, err = Median(values)
	if err != nil {
		return 0, 0, err
	}

	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = v - median
		if deviations[i] < 0 {
			deviations[i] = -deviations[i]
		}
	}
	mad, err = Median(deviations)
	return mad, median, err
}

// DispersionScore maps a non-negative MAD to (0, 1]: 1 - mad/(mad+k).
// It is 1 when mad is 0 and decreases strictly as mad grows, for k > 0.
func DispersionScore(mad, k float64) float64 {
	if mad+k == 0 {
		return 1
	}
	return 1 - mad/(mad+k)
}

// Mean returns the arithmetic mean.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySample
	}
	return stat.Mean(values, nil), nil
}

// Range returns the smallest and largest value.
func Range(values []float64) (lo, hi float64, err error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptySample
	}
	return floats.Min(values), floats.Max(values), nil
}

// Floats converts integer samples, such as partition sizes or path depths.
func Floats(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
