package io

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/table"
)

// ParquetOptions configures Parquet persistence.
type ParquetOptions struct {
	Compression string // snappy, gzip, lz4, zstd, uncompressed
	BatchSize   int
	Allocator   memory.Allocator // nil means a fresh Go allocator per call
}

// DefaultParquetOptions returns snappy compression with a 1024-row batch.
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{Compression: "snappy", BatchSize: 1024}
}

func (o ParquetOptions) allocator() memory.Allocator {
	if o.Allocator != nil {
		return o.Allocator
	}
	return memory.NewGoAllocator()
}

// ProductsToTable converts the derived working set into its columnar form,
// one column per schema entry.
func ProductsToTable(products []catalog.Product, mem memory.Allocator) *table.Table {
	n := len(products)
	names := make([]string, n)
	mainCategories := make([]string, n)
	subCategories := make([]string, n)
	prices := make([]float64, n)
	actualPrices := make([]float64, n)
	ratings := make([]float64, n)
	reviews := make([]int64, n)
	discountPcts := make([]float64, n)
	pricePerRatings := make([]float64, n)
	reviewDensities := make([]float64, n)
	qualityScores := make([]float64, n)
	valueScores := make([]float64, n)
	segments := make([]string, n)
	ratingCategories := make([]string, n)
	reviewVolumes := make([]string, n)
	categoryAvgRatings := make([]float64, n)
	categoryAvgPrices := make([]float64, n)
	ratingDeviations := make([]float64, n)
	priceDeviations := make([]float64, n)
	popularityRanks := make([]int64, n)
	ratingRanks := make([]int64, n)
	successFlags := make([]bool, n)

	for i := range products {
		p := &products[i]
		names[i] = p.Name
		mainCategories[i] = p.MainCategory
		subCategories[i] = p.SubCategory
		prices[i] = p.Price
		actualPrices[i] = p.ActualPrice
		ratings[i] = p.Rating
		reviews[i] = p.ReviewCount
		discountPcts[i] = p.DiscountPct
		pricePerRatings[i] = p.PricePerRating
		reviewDensities[i] = p.ReviewDensity
		qualityScores[i] = p.QualityScore
		valueScores[i] = p.ValueScore
		segments[i] = p.PriceSegment
		ratingCategories[i] = p.RatingCategory
		reviewVolumes[i] = p.ReviewVolume
		categoryAvgRatings[i] = p.CategoryAvgRating
		categoryAvgPrices[i] = p.CategoryAvgPrice
		ratingDeviations[i] = p.RatingVsCategory
		priceDeviations[i] = p.PriceVsCategory
		popularityRanks[i] = p.PopularityRank
		ratingRanks[i] = p.RatingRank
		successFlags[i] = p.Successful
	}

	return table.New(
		table.NewColumn(catalog.ColName, names, mem),
		table.NewColumn(catalog.ColMainCategory, mainCategories, mem),
		table.NewColumn(catalog.ColSubCategory, subCategories, mem),
		table.NewColumn(catalog.ColPriceClean, prices, mem),
		table.NewColumn(catalog.ColActualPriceClean, actualPrices, mem),
		table.NewColumn(catalog.ColRatingClean, ratings, mem),
		table.NewColumn(catalog.ColReviewCountClean, reviews, mem),
		table.NewColumn(catalog.ColDiscountPct, discountPcts, mem),
		table.NewColumn(catalog.ColPricePerRating, pricePerRatings, mem),
		table.NewColumn(catalog.ColReviewDensity, reviewDensities, mem),
		table.NewColumn(catalog.ColQualityScore, qualityScores, mem),
		table.NewColumn(catalog.ColValueScore, valueScores, mem),
		table.NewColumn(catalog.ColPriceSegment, segments, mem),
		table.NewColumn(catalog.ColRatingCategory, ratingCategories, mem),
		table.NewColumn(catalog.ColReviewVolume, reviewVolumes, mem),
		table.NewColumn(catalog.ColCategoryAvgRating, categoryAvgRatings, mem),
		table.NewColumn(catalog.ColCategoryAvgPrice, categoryAvgPrices, mem),
		table.NewColumn(catalog.ColRatingVsCategory, ratingDeviations, mem),
		table.NewColumn(catalog.ColPriceVsCategory, priceDeviations, mem),
		table.NewColumn(catalog.ColPopularityRank, popularityRanks, mem),
		table.NewColumn(catalog.ColRatingRank, ratingRanks, mem),
		table.NewColumn(catalog.ColIsSuccessful, successFlags, mem),
	)
}

// WriteProducts writes the feature table to w in Parquet format.
func WriteProducts(w io.Writer, products []catalog.Product, opts ParquetOptions) error {
	t := ProductsToTable(products, opts.allocator())
	defer t.Release()
	return writeTable(w, t, opts)
}

// WriteProductsFile writes the feature table to path, creating parent
// directories as needed.
func WriteProductsFile(path string, products []catalog.Product, opts ParquetOptions) error {
	return writeFile(path, func(f *os.File) error {
		return WriteProducts(f, products, opts)
	})
}

// WriteClusters writes the per-record cluster assignment table: name,
// category, rating, price, quality score and cluster id.
func WriteClusters(w io.Writer, products []catalog.Product, assignments []int, opts ParquetOptions) error {
	if len(assignments) != len(products) {
		return fmt.Errorf("writing clusters: %d assignments for %d products", len(assignments), len(products))
	}

	n := len(products)
	names := make([]string, n)
	categories := make([]string, n)
	ratings := make([]float64, n)
	prices := make([]float64, n)
	qualities := make([]float64, n)
	clusters := make([]int64, n)
	for i := range products {
		p := &products[i]
		names[i] = p.Name
		categories[i] = p.MainCategory
		ratings[i] = p.Rating
		prices[i] = p.Price
		qualities[i] = p.QualityScore
		clusters[i] = int64(assignments[i])
	}

	mem := opts.allocator()
	t := table.New(
		table.NewColumn(catalog.ColName, names, mem),
		table.NewColumn(catalog.ColMainCategory, categories, mem),
		table.NewColumn(catalog.ColRatingClean, ratings, mem),
		table.NewColumn(catalog.ColPriceClean, prices, mem),
		table.NewColumn(catalog.ColQualityScore, qualities, mem),
		table.NewColumn(catalog.ColCluster, clusters, mem),
	)
	defer t.Release()
	return writeTable(w, t, opts)
}

// WriteClustersFile writes the cluster assignment table to path.
func WriteClustersFile(path string, products []catalog.Product, assignments []int, opts ParquetOptions) error {
	return writeFile(path, func(f *os.File) error {
		return WriteClusters(f, products, assignments, opts)
	})
}

// ReadProducts reads a feature table previously written by WriteProducts.
// Every derived column is restored.
func ReadProducts(ctx context.Context, r io.Reader) ([]catalog.Product, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	arrowTable, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer arrowTable.Release()

	return arrowTableToProducts(arrowTable)
}

// ReadProductsFile reads a feature table from path.
func ReadProductsFile(ctx context.Context, path string) ([]catalog.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return ReadProducts(ctx, f)
}

func writeFile(path string, write func(*os.File) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeTable writes a columnar table to w in Parquet format.
func writeTable(w io.Writer, t *table.Table, opts ParquetOptions) error {
	arrowTable, err := tableToArrow(t)
	if err != nil {
		return fmt.Errorf("converting table to Arrow: %w", err)
	}
	defer arrowTable.Release()

	var compression compress.Compression
	switch opts.Compression {
	case "gzip":
		compression = compress.Codecs.Gzip
	case "lz4":
		compression = compress.Codecs.Lz4Raw
	case "zstd":
		compression = compress.Codecs.Zstd
	case "uncompressed":
		compression = compress.Codecs.Uncompressed
	default:
		compression = compress.Codecs.Snappy
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compression),
		parquet.WithBatchSize(int64(opts.BatchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(opts.allocator()))

	writer, err := pqarrow.NewFileWriter(arrowTable.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	if err := writer.WriteTable(arrowTable, int64(t.Len())); err != nil {
		writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}
	return writer.Close()
}

// tableToArrow converts a columnar table to an Arrow table.
func tableToArrow(t *table.Table) (arrow.Table, error) {
	fields := make([]arrow.Field, 0, t.Width())
	columns := make([]arrow.Column, 0, t.Width())

	for _, name := range t.Columns() {
		col, exists := t.Column(name)
		if !exists {
			continue
		}

		arr := col.Array()
		field := arrow.Field{Name: name, Type: arr.DataType()}
		fields = append(fields, field)

		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arrowColumn := arrow.NewColumn(field, chunked)
		columns = append(columns, *arrowColumn)
		arr.Release()
	}

	schema := arrow.NewSchema(fields, nil)
	return array.NewTable(schema, columns, int64(t.Len())), nil
}

// arrowTableToProducts reassembles products from a feature table read back
// from Parquet.
func arrowTableToProducts(arrowTable arrow.Table) ([]catalog.Product, error) {
	n := int(arrowTable.NumRows())
	products := make([]catalog.Product, n)
	if n == 0 {
		return products, nil
	}

	schema := arrowTable.Schema()
	for i := range int(arrowTable.NumCols()) {
		name := schema.Field(i).Name
		column := arrowTable.Column(i)
		if err := fillColumn(products, name, column); err != nil {
			return nil, fmt.Errorf("restoring column %s: %w", name, err)
		}
	}
	return products, nil
}

func fillColumn(products []catalog.Product, name string, column *arrow.Column) error {
	setter, exists := columnSetters[name]
	if !exists {
		// Unknown column written by a later schema: ignore.
		return nil
	}

	row := 0
	for _, chunk := range column.Data().Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if err := setter(&products[row], chunk, i); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

// columnSetters maps each persisted column to the Product field it restores.
var columnSetters = map[string]func(*catalog.Product, arrow.Array, int) error{
	catalog.ColName:              stringSetter(func(p *catalog.Product, v string) { p.Name = v }),
	catalog.ColMainCategory:      stringSetter(func(p *catalog.Product, v string) { p.MainCategory = v }),
	catalog.ColSubCategory:       stringSetter(func(p *catalog.Product, v string) { p.SubCategory = v }),
	catalog.ColPriceClean:        floatSetter(func(p *catalog.Product, v float64) { p.Price = v }),
	catalog.ColActualPriceClean:  floatSetter(func(p *catalog.Product, v float64) { p.ActualPrice = v }),
	catalog.ColRatingClean:       floatSetter(func(p *catalog.Product, v float64) { p.Rating = v }),
	catalog.ColReviewCountClean:  intSetter(func(p *catalog.Product, v int64) { p.ReviewCount = v }),
	catalog.ColDiscountPct:       floatSetter(func(p *catalog.Product, v float64) { p.DiscountPct = v }),
	catalog.ColPricePerRating:    floatSetter(func(p *catalog.Product, v float64) { p.PricePerRating = v }),
	catalog.ColReviewDensity:     floatSetter(func(p *catalog.Product, v float64) { p.ReviewDensity = v }),
	catalog.ColQualityScore:      floatSetter(func(p *catalog.Product, v float64) { p.QualityScore = v }),
	catalog.ColValueScore:        floatSetter(func(p *catalog.Product, v float64) { p.ValueScore = v }),
	catalog.ColPriceSegment:      stringSetter(func(p *catalog.Product, v string) { p.PriceSegment = v }),
	catalog.ColRatingCategory:    stringSetter(func(p *catalog.Product, v string) { p.RatingCategory = v }),
	catalog.ColReviewVolume:      stringSetter(func(p *catalog.Product, v string) { p.ReviewVolume = v }),
	catalog.ColCategoryAvgRating: floatSetter(func(p *catalog.Product, v float64) { p.CategoryAvgRating = v }),
	catalog.ColCategoryAvgPrice:  floatSetter(func(p *catalog.Product, v float64) { p.CategoryAvgPrice = v }),
	catalog.ColRatingVsCategory:  floatSetter(func(p *catalog.Product, v float64) { p.RatingVsCategory = v }),
	catalog.ColPriceVsCategory:   floatSetter(func(p *catalog.Product, v float64) { p.PriceVsCategory = v }),
	catalog.ColPopularityRank:    intSetter(func(p *catalog.Product, v int64) { p.PopularityRank = v }),
	catalog.ColRatingRank:        intSetter(func(p *catalog.Product, v int64) { p.RatingRank = v }),
	catalog.ColIsSuccessful:      boolSetter(func(p *catalog.Product, v bool) { p.Successful = v }),
}

func stringSetter(set func(*catalog.Product, string)) func(*catalog.Product, arrow.Array, int) error {
	return func(p *catalog.Product, arr arrow.Array, i int) error {
		typed, ok := arr.(*array.String)
		if !ok {
			return fmt.Errorf("expected string array, got %T", arr)
		}
		set(p, typed.Value(i))
		return nil
	}
}

func floatSetter(set func(*catalog.Product, float64)) func(*catalog.Product, arrow.Array, int) error {
	return func(p *catalog.Product, arr arrow.Array, i int) error {
		typed, ok := arr.(*array.Float64)
		if !ok {
			return fmt.Errorf("expected float64 array, got %T", arr)
		}
		if typed.IsNull(i) {
			set(p, math.NaN())
			return nil
		}
		set(p, typed.Value(i))
		return nil
	}
}

func intSetter(set func(*catalog.Product, int64)) func(*catalog.Product, arrow.Array, int) error {
	return func(p *catalog.Product, arr arrow.Array, i int) error {
		typed, ok := arr.(*array.Int64)
		if !ok {
			return fmt.Errorf("expected int64 array, got %T", arr)
		}
		set(p, typed.Value(i))
		return nil
	}
}

func boolSetter(set func(*catalog.Product, bool)) func(*catalog.Product, arrow.Array, int) error {
	return func(p *catalog.Product, arr arrow.Array, i int) error {
		typed, ok := arr.(*array.Boolean)
		if !ok {
			return fmt.Errorf("expected boolean array, got %T", arr)
		}
		set(p, typed.Value(i))
		return nil
	}
}
