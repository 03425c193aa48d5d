package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{name: "median of odd count", values: []float64{3, 1, 2}, p: 0.5, want: 2},
		{name: "median interpolates", values: []float64{1, 2, 3, 4}, p: 0.5, want: 2.5},
		{name: "minimum", values: []float64{5, 1, 9}, p: 0, want: 1},
		{name: "maximum", values: []float64{5, 1, 9}, p: 1, want: 9},
		{name: "p70 of ten", values: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, p: 0.7, want: 7.3},
		{name: "single value", values: []float64{42}, p: 0.9, want: 42},
		{name: "clamps below zero", values: []float64{1, 2}, p: -0.5, want: 1},
		{name: "clamps above one", values: []float64{1, 2}, p: 1.5, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.values, tt.p), 1e-9)
		})
	}
}

func TestPercentileDegenerate(t *testing.T) {
	assert.True(t, math.IsNaN(Percentile([]float64(nil), 0.5)))
	assert.True(t, math.IsNaN(Percentile([]float64{1, 2}, math.NaN())))
}

func TestPercentileIntegerValues(t *testing.T) {
	values := []int64{10, 20, 30, 40}
	assert.InDelta(t, 25, Percentile(values, 0.5), 1e-9)
	assert.InDelta(t, 25, Median(values), 1e-9)
}

func TestMean(t *testing.T) {
	assert.InDelta(t, 2, Mean([]float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, 15, Mean([]int64{10, 20}), 1e-9)
	assert.True(t, math.IsNaN(Mean([]float64(nil))))
}
