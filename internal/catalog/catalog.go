package catalog

import (
	"math"
	"sort"
)

// RawRecord is a single scraped row before cleaning. All fields are kept as
// the source strings; parsing happens in the clean package.
type RawRecord struct {
	Name          string
	MainCategory  string
	SubCategory   string
	Ratings       string
	ReviewCount   string
	DiscountPrice string
	ActualPrice   string
}

// Product is a cleaned catalog record with its derived features. Cleaned
// fields are guaranteed valid by construction: Price > 0, Rating in [1,5],
// ReviewCount >= 0, MainCategory non-empty. ActualPrice is NaN when the raw
// field was unparsable; DiscountPct is 0 in that case.
type Product struct {
	Name         string
	MainCategory string
	SubCategory  string

	Price       float64 // cleaned discount price
	ActualPrice float64 // NaN when missing
	Rating      float64
	ReviewCount int64

	DiscountPct    float64
	PricePerRating float64
	ReviewDensity  float64
	QualityScore   float64
	ValueScore     float64

	PriceSegment   string
	RatingCategory string
	ReviewVolume   string

	CategoryAvgRating float64
	CategoryAvgPrice  float64
	RatingVsCategory  float64
	PriceVsCategory   float64

	PopularityRank int64
	RatingRank     int64

	Successful bool
}

// HasActualPrice reports whether the actual (pre-discount) price was present
// and parsable.
func (p Product) HasActualPrice() bool {
	return !math.IsNaN(p.ActualPrice)
}

// Catalog is the working set of cleaned products. Reporting stages treat it
// as read-only; the feature stage produces a new Catalog rather than
// mutating one in place.
type Catalog struct {
	products []Product
}

// NewCatalog wraps products in a Catalog. The slice is owned by the Catalog
// afterwards.
func NewCatalog(products []Product) *Catalog {
	return &Catalog{products: products}
}

// Len returns the number of products in the working set.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Products returns the underlying records. Callers must not mutate them.
func (c *Catalog) Products() []Product {
	return c.products
}

// Categories returns the distinct main categories in sorted order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	for i := range c.products {
		seen[c.products[i].MainCategory] = struct{}{}
	}
	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
