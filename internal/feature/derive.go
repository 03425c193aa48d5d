// Package feature computes derived numeric features from cleaned catalog
// records. Derivation is pure: the input slice is never mutated, and a new
// working set is returned together with the dataset-relative thresholds that
// were resolved during the pass.
package feature

import (
	"math"
	"sort"

	"github.com/prodlens/prodlens/internal/catalog"
)

// SegmentPolicy selects how continuous prices map to named segments.
type SegmentPolicy string

const (
	// SegmentFixed partitions prices at absolute breakpoints into five
	// tiers: Budget, Economy, Mid-Range, Premium, Luxury.
	SegmentFixed SegmentPolicy = "fixed"
	// SegmentTertile partitions prices at the dataset's empirical 33rd and
	// 66th percentiles into Budget, Mid-Range, Premium.
	SegmentTertile SegmentPolicy = "tertile"
)

// Fixed segment breakpoints (upper bounds, exclusive of the last tier).
const (
	fixedBudgetMax   = 500.0
	fixedEconomyMax  = 1000.0
	fixedMidRangeMax = 2000.0
	fixedPremiumMax  = 5000.0
)

// Rating category and review volume breakpoints.
const (
	ratingExcellentMin = 4.5
	ratingGoodMin      = 4.0
	ratingAverageMin   = 3.5

	reviewVolumeHighPercentile = 0.8
)

// Options configures a derivation pass.
type Options struct {
	SegmentPolicy           SegmentPolicy
	SuccessRatingThreshold  float64 // fixed rating floor for the success label
	SuccessReviewPercentile float64 // dataset-relative review-count percentile
}

// DefaultOptions returns the derivation defaults: tertile segmentation,
// success at rating >= 4.0 and review count >= the 70th percentile.
func DefaultOptions() Options {
	return Options{
		SegmentPolicy:           SegmentTertile,
		SuccessRatingThreshold:  4.0,
		SuccessReviewPercentile: 0.70,
	}
}

// Derived bundles the feature table with the thresholds resolved against the
// current working set. The thresholds are data-dependent: rerunning over a
// differently filtered working set moves them, which can relabel records
// whose own fields are unchanged.
type Derived struct {
	Products []catalog.Product

	SuccessReviewThreshold float64 // review-count cutoff backing the label
	PriceP33               float64 // tertile bounds (NaN under SegmentFixed)
	PriceP66               float64
	ReviewMedian           float64
	ReviewP80              float64
}

// Derive computes every derived feature over products and returns a new
// working set.
func Derive(products []catalog.Product, opts Options) Derived {
	out := make([]catalog.Product, len(products))
	copy(out, products)

	for i := range out {
		p := &out[i]
		p.DiscountPct = DiscountPct(p.ActualPrice, p.Price)
		p.PricePerRating = p.Price / p.Rating
		p.ReviewDensity = math.Log(float64(p.ReviewCount)+1) * p.Rating
		p.QualityScore = QualityScore(p.Rating, p.ReviewCount)
		p.ValueScore = p.QualityScore / (p.Price / 1000)
		p.RatingCategory = ratingCategory(p.Rating)
	}

	d := Derived{
		Products: out,
		PriceP33: math.NaN(),
		PriceP66: math.NaN(),
	}

	applySegments(&d, opts.SegmentPolicy)
	applyReviewVolume(&d)
	applyCategoryStats(out)
	applyRanks(out)
	applySuccessLabel(&d, opts)

	return d
}

// DiscountPct computes the discount percentage, guarding against a missing
// or non-positive actual price. The result is never negative.
func DiscountPct(actual, discounted float64) float64 {
	if math.IsNaN(actual) || actual <= 0 || actual <= discounted {
		return 0
	}
	return (actual - discounted) / actual * 100
}

// QualityScore blends rating with log-scaled review volume. The ln(x+1)
// keeps a zero-review product defined.
func QualityScore(rating float64, reviews int64) float64 {
	return rating*0.6 + (math.Log(float64(reviews)+1)/10)*0.4
}

func ratingCategory(rating float64) string {
	switch {
	case rating >= ratingExcellentMin:
		return "Excellent"
	case rating >= ratingGoodMin:
		return "Good"
	case rating >= ratingAverageMin:
		return "Average"
	default:
		return "Poor"
	}
}

// FixedSegment maps a price onto the five absolute tiers.
func FixedSegment(price float64) string {
	switch {
	case price <= fixedBudgetMax:
		return "Budget"
	case price <= fixedEconomyMax:
		return "Economy"
	case price <= fixedMidRangeMax:
		return "Mid-Range"
	case price <= fixedPremiumMax:
		return "Premium"
	default:
		return "Luxury"
	}
}

func applySegments(d *Derived, policy SegmentPolicy) {
	if policy == SegmentFixed {
		for i := range d.Products {
			d.Products[i].PriceSegment = FixedSegment(d.Products[i].Price)
		}
		return
	}

	prices := make([]float64, len(d.Products))
	for i := range d.Products {
		prices[i] = d.Products[i].Price
	}
	d.PriceP33 = Percentile(prices, 0.33)
	d.PriceP66 = Percentile(prices, 0.66)

	// Degenerate working set: leave records unsegmented.
	if math.IsNaN(d.PriceP33) || math.IsNaN(d.PriceP66) {
		return
	}

	for i := range d.Products {
		p := &d.Products[i]
		switch {
		case p.Price <= d.PriceP33:
			p.PriceSegment = "Budget"
		case p.Price <= d.PriceP66:
			p.PriceSegment = "Mid-Range"
		default:
			p.PriceSegment = "Premium"
		}
	}
}

func applyReviewVolume(d *Derived) {
	reviews := make([]int64, len(d.Products))
	for i := range d.Products {
		reviews[i] = d.Products[i].ReviewCount
	}
	d.ReviewMedian = Median(reviews)
	d.ReviewP80 = Percentile(reviews, reviewVolumeHighPercentile)

	if math.IsNaN(d.ReviewMedian) || math.IsNaN(d.ReviewP80) {
		return
	}

	for i := range d.Products {
		p := &d.Products[i]
		switch {
		case float64(p.ReviewCount) >= d.ReviewP80:
			p.ReviewVolume = "High"
		case float64(p.ReviewCount) >= d.ReviewMedian:
			p.ReviewVolume = "Medium"
		default:
			p.ReviewVolume = "Low"
		}
	}
}

// applyCategoryStats computes per-category mean rating and price, then each
// record's deviation from its category mean: absolute for rating, percentage
// for price.
func applyCategoryStats(products []catalog.Product) {
	type acc struct {
		ratingSum float64
		priceSum  float64
		n         int
	}
	byCategory := make(map[string]*acc)
	for i := range products {
		a := byCategory[products[i].MainCategory]
		if a == nil {
			a = &acc{}
			byCategory[products[i].MainCategory] = a
		}
		a.ratingSum += products[i].Rating
		a.priceSum += products[i].Price
		a.n++
	}

	for i := range products {
		p := &products[i]
		a := byCategory[p.MainCategory]
		p.CategoryAvgRating = a.ratingSum / float64(a.n)
		p.CategoryAvgPrice = a.priceSum / float64(a.n)
		p.RatingVsCategory = p.Rating - p.CategoryAvgRating
		p.PriceVsCategory = (p.Price - p.CategoryAvgPrice) / p.CategoryAvgPrice * 100
	}
}

// applyRanks assigns popularity and rating ranks within each category,
// ordered descending. Ties keep the working set's input order.
func applyRanks(products []catalog.Product) {
	byCategory := make(map[string][]int)
	for i := range products {
		category := products[i].MainCategory
		byCategory[category] = append(byCategory[category], i)
	}

	for _, indices := range byCategory {
		byReviews := append([]int(nil), indices...)
		sort.SliceStable(byReviews, func(a, b int) bool {
			return products[byReviews[a]].ReviewCount > products[byReviews[b]].ReviewCount
		})
		for rank, idx := range byReviews {
			products[idx].PopularityRank = int64(rank + 1)
		}

		byRating := append([]int(nil), indices...)
		sort.SliceStable(byRating, func(a, b int) bool {
			return products[byRating[a]].Rating > products[byRating[b]].Rating
		})
		for rank, idx := range byRating {
			products[idx].RatingRank = int64(rank + 1)
		}
	}
}

func applySuccessLabel(d *Derived, opts Options) {
	reviews := make([]int64, len(d.Products))
	for i := range d.Products {
		reviews[i] = d.Products[i].ReviewCount
	}
	d.SuccessReviewThreshold = Percentile(reviews, opts.SuccessReviewPercentile)

	// NaN threshold means the aggregate was degenerate; the label stays
	// false for every record instead of defaulting the cutoff to zero.
	if math.IsNaN(d.SuccessReviewThreshold) {
		return
	}

	for i := range d.Products {
		p := &d.Products[i]
		p.Successful = p.Rating >= opts.SuccessRatingThreshold &&
			float64(p.ReviewCount) >= d.SuccessReviewThreshold
	}
}
