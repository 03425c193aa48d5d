package ml

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/catalog"
)

// blob generates products tightly packed around a feature-space center.
func blob(n int, price, rating float64, reviews int64, seed int64) []catalog.Product {
	rng := rand.New(rand.NewSource(seed))
	products := make([]catalog.Product, n)
	for i := range products {
		products[i] = catalog.Product{
			Name:         "P",
			MainCategory: "c",
			Price:        price + rng.Float64()*10,
			Rating:       rating + rng.Float64()*0.05,
			ReviewCount:  reviews + int64(rng.Intn(10)),
			DiscountPct:  10 + rng.Float64(),
			QualityScore: rating * 0.6,
		}
	}
	return products
}

func TestClusterProductsSeparatedBlobs(t *testing.T) {
	var products []catalog.Product
	products = append(products, blob(30, 100, 4.8, 40000, 1)...)
	products = append(products, blob(30, 5000, 2.0, 10, 2)...)
	products = append(products, blob(30, 1500, 4.0, 1000, 3)...)

	result, err := ClusterProducts(products, 3, 42)
	require.NoError(t, err)
	require.Len(t, result.Assignments, 90)
	require.Len(t, result.Summaries, 3)

	// every blob lands in exactly one cluster
	for b := 0; b < 3; b++ {
		first := result.Assignments[b*30]
		for i := 1; i < 30; i++ {
			assert.Equal(t, first, result.Assignments[b*30+i], "blob %d split", b)
		}
	}
	// and the blobs land in distinct clusters
	assert.NotEqual(t, result.Assignments[0], result.Assignments[30])
	assert.NotEqual(t, result.Assignments[30], result.Assignments[60])
	assert.NotEqual(t, result.Assignments[0], result.Assignments[60])
}

func TestClusterSummaries(t *testing.T) {
	var products []catalog.Product
	products = append(products, blob(20, 100, 4.8, 40000, 1)...)
	products = append(products, blob(20, 5000, 2.0, 10, 2)...)

	result, err := ClusterProducts(products, 2, 42)
	require.NoError(t, err)
	require.Len(t, result.Summaries, 2)

	total := 0
	for i, s := range result.Summaries {
		assert.Equal(t, i, s.Cluster)
		total += s.Count
		if s.Count > 0 {
			assert.Positive(t, s.AvgPrice)
			assert.Positive(t, s.AvgRating)
		}
	}
	assert.Equal(t, 40, total)
}

func TestClusterProductsDeterministic(t *testing.T) {
	products := blob(50, 1000, 4.0, 500, 9)

	r1, err := ClusterProducts(products, 5, 42)
	require.NoError(t, err)
	r2, err := ClusterProducts(products, 5, 42)
	require.NoError(t, err)

	assert.Equal(t, r1.Assignments, r2.Assignments)
}

func TestClusterProductsErrors(t *testing.T) {
	_, err := ClusterProducts(nil, 5, 42)
	assert.Error(t, err, "empty catalog")

	_, err = ClusterProducts(blob(3, 100, 4.0, 10, 1), 5, 42)
	assert.Error(t, err, "more clusters than products")
}

func TestClusterProductsDefaultCount(t *testing.T) {
	products := blob(40, 1000, 4.0, 500, 9)

	result, err := ClusterProducts(products, 0, 42)
	require.NoError(t, err)
	assert.Len(t, result.Summaries, DefaultClusterCount)
}
