package stats

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
		{"single", []float64{5}, 5},
		{"odd", []float64{9, 1, 4}, 4},
		{"even takes mean of middles", []float64{10, 2, 4, 4}, 4},
		{"even with distinct middles", []float64{2, 0, 0, 6}, 1},
		{"fractional", []float64{1, 2}, 1.5},
		{"negative", []float64{-3, -1, -2}, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Median(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMedian_DoesNotModifyInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, err := Median(values)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestEmptySample(t *testing.T) {
	_, err := Median(nil)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, _, err = MAD([]float64{})
	assert.ErrorIs(t, err, ErrEmptySample)

	_, err = Mean(nil)
	assert.ErrorIs(t, err, ErrEmptySample)

	_, _, err = Range(nil)
	assert.ErrorIs(t, err, ErrEmptySample)
}

func TestMAD(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		wantMAD    float64
		wantMedian float64
	}{
		{"partition sizes", []float64{2, 4, 4, 10}, 1, 4},
		{"story depths", []float64{2, 0}, 1, 1},
		{"constant", []float64{3, 3, 3}, 0, 3},
		{"outlier is ignored", []float64{1, 2, 3, 4, 100}, 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mad, median, err := MAD(tt.values)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMAD, mad)
			assert.Equal(t, tt.wantMedian, median)
		})
	}
}

func TestDispersionScore(t *testing.T) {
	assert.Equal(t, 1.0, DispersionScore(0, 7))
	assert.Equal(t, 0.875, DispersionScore(1, 7))
	assert.InDelta(t, 2.0/3.0, DispersionScore(1, 2), 1e-12)
	assert.Equal(t, 1.0, DispersionScore(0, 0))

	prev := DispersionScore(0, 2)
	for mad := 0.5; mad <= 50; mad += 0.5 {
		cur := DispersionScore(mad, 2)
		assert.Less(t, cur, prev, "score must decrease as MAD grows (mad=%v)", mad)
		assert.Greater(t, cur, 0.0)
		prev = cur
	}
}

func TestMeanAndRange(t *testing.T) {
	mean, err := Mean([]float64{1, 2, 3, 6})
	require.NoError(t, err)
	assert.Equal(t, 3.0, mean)

	lo, hi, err := Range([]float64{4, -1, 9, 2})
	require.NoError(t, err)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 9.0, hi)
}

func TestFloats(t *testing.T) {
	assert.Equal(t, []float64{2, 0, 7}, Floats([]int{2, 0, 7}))
	assert.Empty(t, Floats(nil))
}
