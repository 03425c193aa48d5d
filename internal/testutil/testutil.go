// Package testutil provides common testing utilities to reduce code
// duplication across test files in the ProdLens pipeline.
//
// This package consolidates the recurring setup patterns:
// - Synthetic raw catalog records in scraped-export form
// - Cleaned and fully derived product working sets
// - CSV fixtures on disk for loader and pipeline tests
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/feature"
)

const (
	// defaultProductCount is the default number of rows in synthetic catalogs.
	defaultProductCount = 60

	defaultSeed = 7
)

// defaultCategories mirrors the category mix of real catalog exports.
var defaultCategories = []string{"electronics", "home & kitchen", "sports & fitness"}

// CatalogOption configures synthetic catalog generation.
type CatalogOption func(*catalogConfig)

type catalogConfig struct {
	count      int
	categories []string
	seed       int64
}

// WithProductCount sets the number of generated products.
func WithProductCount(count int) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.count = count
	}
}

// WithCategories sets the category mix of the generated products.
func WithCategories(categories ...string) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.categories = categories
	}
}

// WithSeed sets the seed for the generated values.
func WithSeed(seed int64) CatalogOption {
	return func(cfg *catalogConfig) {
		cfg.seed = seed
	}
}

func newCatalogConfig(opts ...CatalogOption) *catalogConfig {
	cfg := &catalogConfig{
		count:      defaultProductCount,
		categories: defaultCategories,
		seed:       defaultSeed,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// CreateTestProducts generates a deterministic cleaned working set with
// prices, ratings and review counts in realistic ranges. Derived fields
// are zero; use CreateDerivedProducts when they matter.
func CreateTestProducts(opts ...CatalogOption) []catalog.Product {
	cfg := newCatalogConfig(opts...)
	rng := rand.New(rand.NewSource(cfg.seed))

	products := make([]catalog.Product, cfg.count)
	for i := range products {
		price := 100 + rng.Float64()*9900
		rating := 1 + float64(rng.Intn(41))/10
		reviews := int64(rng.Intn(50000))
		products[i] = catalog.Product{
			Name:         fmt.Sprintf("Product %03d", i+1),
			MainCategory: cfg.categories[i%len(cfg.categories)],
			SubCategory:  "general",
			Price:        price,
			ActualPrice:  price * (1 + rng.Float64()),
			Rating:       rating,
			ReviewCount:  reviews,
		}
	}
	return products
}

// CreateDerivedProducts generates a deterministic working set with all
// derived metrics, segments and the success label applied.
func CreateDerivedProducts(opts ...CatalogOption) []catalog.Product {
	return feature.Derive(CreateTestProducts(opts...), feature.DefaultOptions()).Products
}

// CreateRawRecords generates scraped-export records with currency noise
// in the price fields, matching what CreateTestProducts would clean to.
func CreateRawRecords(opts ...CatalogOption) []catalog.RawRecord {
	cfg := newCatalogConfig(opts...)
	rng := rand.New(rand.NewSource(cfg.seed))

	records := make([]catalog.RawRecord, cfg.count)
	for i := range records {
		price := 100 + rng.Float64()*9900
		rating := 1 + float64(rng.Intn(41))/10
		reviews := int64(rng.Intn(50000))
		records[i] = catalog.RawRecord{
			Name:          fmt.Sprintf("Product %03d", i+1),
			MainCategory:  cfg.categories[i%len(cfg.categories)],
			SubCategory:   "general",
			Ratings:       fmt.Sprintf("%.1f", rating),
			ReviewCount:   fmt.Sprintf("%d", reviews),
			DiscountPrice: fmt.Sprintf("₹%.2f", price),
			ActualPrice:   fmt.Sprintf("₹%.2f", price*(1+rng.Float64())),
		}
	}
	return records
}

// WriteCatalogCSV writes raw records as a scraped-export CSV under dir
// and returns the file path.
func WriteCatalogCSV(tb testing.TB, dir string, records []catalog.RawRecord) string {
	tb.Helper()

	var sb strings.Builder
	sb.WriteString("name,main_category,sub_category,ratings,no_of_ratings,discount_price,actual_price\n")
	for _, r := range records {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s\n",
			csvQuote(r.Name), csvQuote(r.MainCategory), csvQuote(r.SubCategory),
			r.Ratings, csvQuote(r.ReviewCount), csvQuote(r.DiscountPrice), csvQuote(r.ActualPrice)))
	}

	path := filepath.Join(dir, "catalog.csv")
	require.NoError(tb, os.WriteFile(path, []byte(sb.String()), 0o644))
	return path
}

func csvQuote(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}
