package feature

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// Numeric covers the column types the statistics helpers operate on.
type Numeric interface {
	constraints.Integer | constraints.Float
}

// Percentile returns the p-th percentile (p in [0,1]) of values using linear
// interpolation between order statistics. An empty input is a degenerate
// aggregate and yields NaN rather than an error; downstream consumers treat
// a NaN threshold as "feature unavailable".
func Percentile[T Numeric](values []T, p float64) float64 {
	if len(values) == 0 || math.IsNaN(p) {
		return math.NaN()
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	sorted := make([]float64, len(values))
	for i, v := range values {
		sorted[i] = float64(v)
	}
	sort.Float64s(sorted)

	pos := p * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

// Median is the 50th percentile.
func Median[T Numeric](values []T) float64 {
	return Percentile(values, 0.5)
}

// Mean returns the arithmetic mean, or NaN for an empty input.
func Mean[T Numeric](values []T) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += float64(v)
	}
	return sum / float64(len(values))
}
