package ml

import (
	"math/rand"
	"sort"
)

// OneHotEncoder maps categorical string levels onto indicator columns.
// Levels are ordered deterministically (sorted) and the last level is
// dropped so the encoding stays full-rank next to an intercept.
type OneHotEncoder struct {
	levels []string
	index  map[string]int
}

// FitOneHot learns the distinct levels of values.
func FitOneHot(values []string) *OneHotEncoder {
	seen := make(map[string]struct{})
	for _, v := range values {
		seen[v] = struct{}{}
	}
	levels := make([]string, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Strings(levels)

	index := make(map[string]int, len(levels))
	for i, level := range levels {
		index[level] = i
	}
	return &OneHotEncoder{levels: levels, index: index}
}

// Width returns the number of indicator columns produced per value.
func (e *OneHotEncoder) Width() int {
	if len(e.levels) <= 1 {
		return 0
	}
	return len(e.levels) - 1
}

// Levels returns the fitted levels in encoding order.
func (e *OneHotEncoder) Levels() []string {
	return append([]string(nil), e.levels...)
}

// Encode appends the indicator columns for value to dst and returns the
// extended slice. Unseen values encode as all zeros, same as the dropped
// last level.
func (e *OneHotEncoder) Encode(dst []float64, value string) []float64 {
	width := e.Width()
	start := len(dst)
	for i := 0; i < width; i++ {
		dst = append(dst, 0)
	}
	if idx, seen := e.index[value]; seen && idx < width {
		dst[start+idx] = 1
	}
	return dst
}

// TrainTestSplit shuffles [0,n) with the given seed and splits it into train
// and test index sets.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testSize := int(float64(n) * testFraction)
	if testSize < 1 && n > 1 {
		testSize = 1
	}
	return indices[testSize:], indices[:testSize]
}
