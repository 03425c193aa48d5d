// Package report provides read-only reducers over the feature table:
// category summaries, market opportunity rankings and pricing candidates.
// Nothing in this package mutates the working set.
package report

import (
	"math"
	"sort"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/feature"
)

// Market gap cutoffs: a niche is underserved when it holds few products but
// a strong demand signal.
const (
	gapMaxProducts = 20
	gapMinDemand   = 500
)

// Pricing/improvement cutoffs.
const (
	underpricedRatingMin   = 4.5
	underpricedDeviation   = -20.0
	improvementRatingMax   = 4.0
	improvementReviewFloor = 100
)

// CategoryPerformance summarizes one main category.
type CategoryPerformance struct {
	Category         string
	ProductCount     int
	AvgRating        float64
	AvgPrice         float64
	TotalReviews     int64
	AvgQuality       float64
	AvgDiscount      float64
	SubcategoryCount int
}

// Categories aggregates per main category, sorted by average quality score
// descending.
func Categories(products []catalog.Product) []CategoryPerformance {
	type acc struct {
		CategoryPerformance
		subcategories map[string]struct{}
	}
	byCategory := make(map[string]*acc)

	for i := range products {
		p := &products[i]
		a := byCategory[p.MainCategory]
		if a == nil {
			a = &acc{
				CategoryPerformance: CategoryPerformance{Category: p.MainCategory},
				subcategories:       make(map[string]struct{}),
			}
			byCategory[p.MainCategory] = a
		}
		a.ProductCount++
		a.AvgRating += p.Rating
		a.AvgPrice += p.Price
		a.TotalReviews += p.ReviewCount
		a.AvgQuality += p.QualityScore
		a.AvgDiscount += p.DiscountPct
		a.subcategories[p.SubCategory] = struct{}{}
	}

	rows := make([]CategoryPerformance, 0, len(byCategory))
	for _, a := range byCategory {
		n := float64(a.ProductCount)
		a.AvgRating /= n
		a.AvgPrice /= n
		a.AvgQuality /= n
		a.AvgDiscount /= n
		a.SubcategoryCount = len(a.subcategories)
		rows = append(rows, a.CategoryPerformance)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AvgQuality > rows[j].AvgQuality
	})
	return rows
}

// PriceBucket summarizes one category x fixed price bucket cell.
type PriceBucket struct {
	Category     string
	Bucket       string
	ProductCount int
	AvgRating    float64
	AvgReviews   float64
}

// priceBucket labels a price with the fixed elasticity buckets.
func priceBucket(price float64) string {
	switch {
	case price < 500:
		return "Under 500"
	case price < 1000:
		return "500-1000"
	case price < 2000:
		return "1000-2000"
	case price < 5000:
		return "2000-5000"
	default:
		return "Above 5000"
	}
}

// PriceElasticity aggregates per category and fixed price bucket, sorted by
// category then bucket label.
func PriceElasticity(products []catalog.Product) []PriceBucket {
	type acc struct {
		PriceBucket
		reviews int64
	}
	cells := make(map[uint64]*acc)

	for i := range products {
		p := &products[i]
		bucket := priceBucket(p.Price)
		key := groupKey(p.MainCategory, bucket)
		a := cells[key]
		if a == nil {
			a = &acc{PriceBucket: PriceBucket{Category: p.MainCategory, Bucket: bucket}}
			cells[key] = a
		}
		a.ProductCount++
		a.AvgRating += p.Rating
		a.reviews += p.ReviewCount
	}

	rows := make([]PriceBucket, 0, len(cells))
	for _, a := range cells {
		n := float64(a.ProductCount)
		a.AvgRating /= n
		a.AvgReviews = float64(a.reviews) / n
		rows = append(rows, a.PriceBucket)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Category != rows[j].Category {
			return rows[i].Category < rows[j].Category
		}
		return rows[i].Bucket < rows[j].Bucket
	})
	return rows
}

// Opportunity scores a category x subcategory niche: the demand signal (sum
// of review counts) divided by the number of products competing for it.
type Opportunity struct {
	Category     string
	SubCategory  string
	ProductCount int
	AvgRating    float64
	DemandSignal int64
	Score        float64
}

// Opportunities aggregates per subcategory and ranks by opportunity score
// descending.
func Opportunities(products []catalog.Product) []Opportunity {
	type acc struct {
		Opportunity
		ratingSum float64
	}
	niches := make(map[uint64]*acc)

	for i := range products {
		p := &products[i]
		key := groupKey(p.MainCategory, p.SubCategory)
		a := niches[key]
		if a == nil {
			a = &acc{Opportunity: Opportunity{Category: p.MainCategory, SubCategory: p.SubCategory}}
			niches[key] = a
		}
		a.ProductCount++
		a.ratingSum += p.Rating
		a.DemandSignal += p.ReviewCount
	}

	rows := make([]Opportunity, 0, len(niches))
	for _, a := range niches {
		a.AvgRating = a.ratingSum / float64(a.ProductCount)
		a.Score = float64(a.DemandSignal) / float64(a.ProductCount)
		rows = append(rows, a.Opportunity)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})
	return rows
}

// MarketGaps filters opportunities down to underserved niches: few products,
// high demand signal. The input must already be score-sorted (as returned by
// Opportunities).
func MarketGaps(opportunities []Opportunity, topN int) []Opportunity {
	gaps := make([]Opportunity, 0, topN)
	for _, o := range opportunities {
		if o.ProductCount < gapMaxProducts && o.DemandSignal > gapMinDemand {
			gaps = append(gaps, o)
			if len(gaps) == topN {
				break
			}
		}
	}
	return gaps
}

// PricingCandidate is a product flagged by a pricing heuristic.
type PricingCandidate struct {
	Name            string
	Category        string
	Rating          float64
	Price           float64
	ReviewCount     int64
	PriceVsCategory float64
}

// Underpriced returns high-rating products priced at or below their category
// median, ranked by review count descending.
func Underpriced(products []catalog.Product, topN int) []PricingCandidate {
	pricesByCategory := make(map[string][]float64)
	for i := range products {
		p := &products[i]
		pricesByCategory[p.MainCategory] = append(pricesByCategory[p.MainCategory], p.Price)
	}
	medians := make(map[string]float64, len(pricesByCategory))
	for category, prices := range pricesByCategory {
		medians[category] = feature.Median(prices)
	}

	var rows []PricingCandidate
	for i := range products {
		p := &products[i]
		median := medians[p.MainCategory]
		if math.IsNaN(median) {
			continue
		}
		if p.Rating >= underpricedRatingMin && p.Price <= median {
			rows = append(rows, candidate(p))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ReviewCount > rows[j].ReviewCount
	})
	return truncate(rows, topN)
}

// PricingCandidates returns high-rating products priced far below their
// category mean (deviation under -20%), most underpriced first.
func PricingCandidates(products []catalog.Product, topN int) []PricingCandidate {
	var rows []PricingCandidate
	for i := range products {
		p := &products[i]
		if p.Rating >= underpricedRatingMin && p.PriceVsCategory < underpricedDeviation {
			rows = append(rows, candidate(p))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].PriceVsCategory < rows[j].PriceVsCategory
	})
	return truncate(rows, topN)
}

// ImprovementTargets returns high-volume, low-rating products: demand exists
// but quality lags, ranked by review count descending.
func ImprovementTargets(products []catalog.Product, topN int) []PricingCandidate {
	var rows []PricingCandidate
	for i := range products {
		p := &products[i]
		if p.Rating < improvementRatingMax && p.ReviewCount > improvementReviewFloor {
			rows = append(rows, candidate(p))
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].ReviewCount > rows[j].ReviewCount
	})
	return truncate(rows, topN)
}

// SuccessRate is the share of success-labeled products in one category.
type SuccessRate struct {
	Category   string
	Successful int
	Total      int
	Rate       float64
}

// SuccessRates aggregates the success label per category, sorted by rate
// descending.
func SuccessRates(products []catalog.Product) []SuccessRate {
	byCategory := make(map[string]*SuccessRate)
	for i := range products {
		p := &products[i]
		r := byCategory[p.MainCategory]
		if r == nil {
			r = &SuccessRate{Category: p.MainCategory}
			byCategory[p.MainCategory] = r
		}
		r.Total++
		if p.Successful {
			r.Successful++
		}
	}

	rows := make([]SuccessRate, 0, len(byCategory))
	for _, r := range byCategory {
		r.Rate = float64(r.Successful) / float64(r.Total) * 100
		rows = append(rows, *r)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Rate > rows[j].Rate
	})
	return rows
}

// Summary holds the executive key metrics of a run.
type Summary struct {
	TotalProducts int
	CategoryCount int
	AvgRating     float64
	AvgPrice      float64
	TotalReviews  int64
	SuccessRate   float64
}

// Summarize computes the executive summary. Averages are NaN for an empty
// working set.
func Summarize(products []catalog.Product) Summary {
	s := Summary{TotalProducts: len(products)}
	if len(products) == 0 {
		s.AvgRating = math.NaN()
		s.AvgPrice = math.NaN()
		s.SuccessRate = math.NaN()
		return s
	}

	categories := make(map[string]struct{})
	successful := 0
	for i := range products {
		p := &products[i]
		categories[p.MainCategory] = struct{}{}
		s.AvgRating += p.Rating
		s.AvgPrice += p.Price
		s.TotalReviews += p.ReviewCount
		if p.Successful {
			successful++
		}
	}

	n := float64(len(products))
	s.CategoryCount = len(categories)
	s.AvgRating /= n
	s.AvgPrice /= n
	s.SuccessRate = float64(successful) / n * 100
	return s
}

func candidate(p *catalog.Product) PricingCandidate {
	return PricingCandidate{
		Name:            p.Name,
		Category:        p.MainCategory,
		Rating:          p.Rating,
		Price:           p.Price,
		ReviewCount:     p.ReviewCount,
		PriceVsCategory: p.PriceVsCategory,
	}
}

func truncate(rows []PricingCandidate, topN int) []PricingCandidate {
	if topN > 0 && len(rows) > topN {
		return rows[:topN]
	}
	return rows
}

// groupKey hashes a composite (category, subgroup) pair into a map key. The
// unit separator keeps adjacent fields from colliding.
func groupKey(category, subgroup string) uint64 {
	var d xxhash.Digest
	_, _ = d.WriteString(category)
	_, _ = d.WriteString("\x1f")
	_, _ = d.WriteString(subgroup)
	return d.Sum64()
}
