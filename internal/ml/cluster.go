package ml

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/errors"
)

const (
	// DefaultClusterCount matches the segmentation used in the reports.
	DefaultClusterCount = 5

	kmeansMaxIterations = 20
)

// ClusterSummary describes one cluster of the product space.
type ClusterSummary struct {
	Cluster     int
	Count       int
	AvgPrice    float64
	AvgRating   float64
	AvgReviews  float64
	AvgDiscount float64
	AvgQuality  float64
}

// ClusterResult is the outcome of product clustering. Assignments is
// parallel to the input slice.
type ClusterResult struct {
	Assignments []int
	Summaries   []ClusterSummary
}

func clusterFeatures(p *catalog.Product) []float64 {
	return []float64{p.Price, p.Rating, float64(p.ReviewCount), p.DiscountPct, p.QualityScore}
}

// ClusterProducts groups products by k-means over standardized price,
// rating, review volume, discount and quality features. The run is
// deterministic for a fixed seed.
func ClusterProducts(products []catalog.Product, k int, seed int64) (*ClusterResult, error) {
	if len(products) == 0 {
		return nil, errors.ErrEmptyCatalog
	}
	if k <= 0 {
		k = DefaultClusterCount
	}
	if k > len(products) {
		return nil, errors.NewInvalidInputError("cluster", "more clusters than products")
	}

	const dims = 5
	raw := mat.NewDense(len(products), dims, nil)
	for i := range products {
		raw.SetRow(i, clusterFeatures(&products[i]))
	}
	scaled, err := NewStandardScaler().FitTransform(raw)
	if err != nil {
		return nil, err
	}

	assignments := kmeans(scaled, k, seed)

	result := &ClusterResult{
		Assignments: assignments,
		Summaries:   make([]ClusterSummary, k),
	}
	for c := range result.Summaries {
		result.Summaries[c].Cluster = c
	}
	for i, c := range assignments {
		s := &result.Summaries[c]
		s.Count++
		s.AvgPrice += products[i].Price
		s.AvgRating += products[i].Rating
		s.AvgReviews += float64(products[i].ReviewCount)
		s.AvgDiscount += products[i].DiscountPct
		s.AvgQuality += products[i].QualityScore
	}
	for c := range result.Summaries {
		s := &result.Summaries[c]
		if s.Count == 0 {
			continue
		}
		n := float64(s.Count)
		s.AvgPrice /= n
		s.AvgRating /= n
		s.AvgReviews /= n
		s.AvgDiscount /= n
		s.AvgQuality /= n
	}
	sort.Slice(result.Summaries, func(i, j int) bool {
		return result.Summaries[i].Cluster < result.Summaries[j].Cluster
	})
	return result, nil
}

// kmeans runs Lloyd's algorithm. The first centroid is seeded randomly and
// the rest by greedy farthest-point selection, which keeps runs deterministic
// and well spread. Empty clusters are reseeded from the point farthest from
// its centroid.
func kmeans(x *mat.Dense, k int, seed int64) []int {
	rows, cols := x.Dims()
	rng := rand.New(rand.NewSource(seed))

	centroids := mat.NewDense(k, cols, nil)
	centroids.SetRow(0, x.RawRowView(rng.Intn(rows)))
	for c := 1; c < k; c++ {
		best, bestDist := 0, -1.0
		for i := 0; i < rows; i++ {
			d := math.Inf(1)
			for seeded := 0; seeded < c; seeded++ {
				d = math.Min(d, floats.Distance(x.RawRowView(i), centroids.RawRowView(seeded), 2))
			}
			if d > bestDist {
				bestDist = d
				best = i
			}
		}
		centroids.SetRow(c, x.RawRowView(best))
	}

	assignments := make([]int, rows)
	counts := make([]int, k)
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false
		for i := 0; i < rows; i++ {
			best := nearestCentroid(x.RawRowView(i), centroids, k)
			if best != assignments[i] || iter == 0 {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		centroids.Zero()
		for c := range counts {
			counts[c] = 0
		}
		for i := 0; i < rows; i++ {
			c := assignments[i]
			counts[c]++
			row := centroids.RawRowView(c)
			floats.Add(row, x.RawRowView(i))
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				centroids.SetRow(c, x.RawRowView(farthestPoint(x, centroids, assignments)))
				continue
			}
			floats.Scale(1/float64(counts[c]), centroids.RawRowView(c))
		}
	}
	return assignments
}

func nearestCentroid(point []float64, centroids *mat.Dense, k int) int {
	best := 0
	bestDist := math.Inf(1)
	for c := 0; c < k; c++ {
		d := floats.Distance(point, centroids.RawRowView(c), 2)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func farthestPoint(x *mat.Dense, centroids *mat.Dense, assignments []int) int {
	rows, _ := x.Dims()
	best := 0
	bestDist := -1.0
	for i := 0; i < rows; i++ {
		d := floats.Distance(x.RawRowView(i), centroids.RawRowView(assignments[i]), 2)
		if d > bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}
