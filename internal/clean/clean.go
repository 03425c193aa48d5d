// Package clean transforms raw scraped string fields into typed numeric
// fields. All cleaners are pure: a malformed value yields a missing result,
// never an error, and the caller decides whether the record survives.
package clean

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/prodlens/prodlens/internal/catalog"
)

var (
	// priceNoise matches the currency symbol, thousands separators and
	// whitespace embedded in scraped price strings such as "₹1,234".
	priceNoise = regexp.MustCompile(`[₹,\s]`)

	// ratingPattern accepts a single digit 0-5 with exactly one decimal
	// place. Anything else ("Get", "FREE", "4.35") is missing.
	ratingPattern = regexp.MustCompile(`^[0-5]\.[0-9]$`)
)

// Price strips the currency symbol and separators and parses the remainder
// as a float. The second return is false when the value is missing.
func Price(raw string) (float64, bool) {
	stripped := priceNoise.ReplaceAllString(raw, "")
	if stripped == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Rating parses a rating string, accepting only values shaped like "4.3".
func Rating(raw string) (float64, bool) {
	if !ratingPattern.MatchString(raw) {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ReviewCount strips thousands separators and parses the remainder as an
// integer.
func ReviewCount(raw string) (int64, bool) {
	stripped := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if stripped == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(stripped, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// Stats summarizes a cleaning pass over the raw working set.
type Stats struct {
	Input      int // raw rows seen
	Duplicates int // rows dropped by deduplication
	Dropped    int // rows dropped for missing or out-of-range fields
	Kept       int // rows surviving into the working set
}

// Records deduplicates and cleans raw rows into typed products.
//
// Deduplication keys on (name, main_category, discount_price) keeping the
// first occurrence. A row is dropped, silently, when its price, rating or
// review count is unparsable, its main category is empty, its price is not
// positive, or its rating falls outside [1,5]. A missing actual price is
// tolerated: the record is kept with ActualPrice set to NaN.
func Records(raws []catalog.RawRecord) ([]catalog.Product, Stats) {
	stats := Stats{Input: len(raws)}
	seen := make(map[uint64]struct{}, len(raws))
	products := make([]catalog.Product, 0, len(raws))

	for i := range raws {
		raw := &raws[i]

		key := dedupeKey(raw)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}

		product, ok := cleanRecord(raw)
		if !ok {
			stats.Dropped++
			continue
		}
		products = append(products, product)
	}

	stats.Kept = len(products)
	return products, stats
}

// dedupeKey hashes the identity columns of a raw row. The separator keeps
// ("ab","c") and ("a","bc") from colliding.
func dedupeKey(raw *catalog.RawRecord) uint64 {
	var d xxhash.Digest
	_, _ = d.WriteString(raw.Name)
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(raw.MainCategory)
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(raw.DiscountPrice)
	return d.Sum64()
}

func cleanRecord(raw *catalog.RawRecord) (catalog.Product, bool) {
	if strings.TrimSpace(raw.MainCategory) == "" {
		return catalog.Product{}, false
	}

	price, priceOK := Price(raw.DiscountPrice)
	rating, ratingOK := Rating(raw.Ratings)
	reviews, reviewsOK := ReviewCount(raw.ReviewCount)

	if !priceOK || !ratingOK || !reviewsOK {
		return catalog.Product{}, false
	}
	if price <= 0 || rating < 1 || rating > 5 || reviews < 0 {
		return catalog.Product{}, false
	}

	actual := math.NaN()
	if parsed, ok := Price(raw.ActualPrice); ok {
		actual = parsed
	}

	return catalog.Product{
		Name:         raw.Name,
		MainCategory: raw.MainCategory,
		SubCategory:  raw.SubCategory,
		Price:        price,
		ActualPrice:  actual,
		Rating:       rating,
		ReviewCount:  reviews,
	}, true
}
