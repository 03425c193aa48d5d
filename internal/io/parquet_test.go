package io

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/testutil"
)

func TestProductsToTable(t *testing.T) {
	products := testutil.CreateDerivedProducts(testutil.WithProductCount(8))

	tbl := ProductsToTable(products, memory.NewGoAllocator())
	defer tbl.Release()

	assert.Equal(t, len(products), tbl.Len())
	// identity columns plus every derived column
	assert.Equal(t, 3+len(catalog.DerivedColumns()), tbl.Width())
	assert.True(t, tbl.HasColumn(catalog.ColName))
	assert.True(t, tbl.HasColumn(catalog.ColMainCategory))
	assert.True(t, tbl.HasColumn(catalog.ColSubCategory))
	for _, name := range catalog.DerivedColumns() {
		assert.True(t, tbl.HasColumn(name), "missing column %s", name)
	}
}

func TestWriteReadProductsRoundTrip(t *testing.T) {
	products := testutil.CreateDerivedProducts(testutil.WithProductCount(25))

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, products, DefaultParquetOptions()))

	got, err := ReadProducts(context.Background(), &buf)
	require.NoError(t, err)
	require.Len(t, got, len(products))

	for i := range products {
		want := products[i]
		assert.Equal(t, want.Name, got[i].Name)
		assert.Equal(t, want.MainCategory, got[i].MainCategory)
		assert.InDelta(t, want.Price, got[i].Price, 1e-9)
		assert.InDelta(t, want.Rating, got[i].Rating, 1e-9)
		assert.Equal(t, want.ReviewCount, got[i].ReviewCount)
		assert.InDelta(t, want.QualityScore, got[i].QualityScore, 1e-9)
		assert.InDelta(t, want.ValueScore, got[i].ValueScore, 1e-9)
		assert.Equal(t, want.PriceSegment, got[i].PriceSegment)
		assert.Equal(t, want.RatingCategory, got[i].RatingCategory)
		assert.Equal(t, want.PopularityRank, got[i].PopularityRank)
		assert.Equal(t, want.Successful, got[i].Successful)
	}

	mem := memory.NewGoAllocator()
	wantTable := ProductsToTable(products, mem)
	defer wantTable.Release()
	gotTable := ProductsToTable(got, mem)
	defer gotTable.Release()
	assert.True(t, wantTable.SameSchema(gotTable))
}

func TestWriteProductsFileCreatesDirectories(t *testing.T) {
	products := testutil.CreateDerivedProducts(testutil.WithProductCount(5))
	path := filepath.Join(t.TempDir(), "out", "nested", "processed_data.parquet")

	require.NoError(t, WriteProductsFile(path, products, DefaultParquetOptions()))

	got, err := ReadProductsFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestWriteClustersValidatesLength(t *testing.T) {
	products := testutil.CreateDerivedProducts(testutil.WithProductCount(4))

	var buf bytes.Buffer
	err := WriteClusters(&buf, products, []int{0, 1}, DefaultParquetOptions())
	assert.Error(t, err)
}

func TestWriteClusters(t *testing.T) {
	products := testutil.CreateDerivedProducts(testutil.WithProductCount(6))
	assignments := []int{0, 1, 2, 0, 1, 2}

	path := filepath.Join(t.TempDir(), "product_clusters.parquet")
	require.NoError(t, WriteClustersFile(path, products, assignments, DefaultParquetOptions()))

	// the cluster file carries its own narrow schema; being readable as
	// Parquet at all is what matters here
	info, err := filepath.Glob(path)
	require.NoError(t, err)
	assert.Len(t, info, 1)
}

func TestParquetCompressionCodecs(t *testing.T) {
	products := testutil.CreateDerivedProducts(testutil.WithProductCount(5))

	for _, codec := range []string{"snappy", "gzip", "zstd", "uncompressed"} {
		t.Run(codec, func(t *testing.T) {
			opts := DefaultParquetOptions()
			opts.Compression = codec

			var buf bytes.Buffer
			require.NoError(t, WriteProducts(&buf, products, opts))

			got, err := ReadProducts(context.Background(), &buf)
			require.NoError(t, err)
			assert.Len(t, got, 5)
		})
	}
}
