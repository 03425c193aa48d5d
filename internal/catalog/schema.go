// Package catalog defines the typed record schema for the product catalog.
// Raw and derived column names are enumerated here so every stage refers to
// the same versioned schema instead of threading ad-hoc string keys.
package catalog

// SchemaVersion identifies the derived-column layout written to columnar
// output. Bump when derived columns are added, removed or renamed.
const SchemaVersion = 1

// Raw input columns expected in the scraped CSV files.
const (
	ColName          = "name"
	ColMainCategory  = "main_category"
	ColSubCategory   = "sub_category"
	ColRatings       = "ratings"
	ColReviewCount   = "no_of_ratings"
	ColDiscountPrice = "discount_price"
	ColActualPrice   = "actual_price"
)

// Derived columns produced by the cleaning and feature stages.
const (
	ColPriceClean        = "discount_price_clean"
	ColActualPriceClean  = "actual_price_clean"
	ColRatingClean       = "ratings_clean"
	ColReviewCountClean  = "no_of_ratings_clean"
	ColDiscountPct       = "discount_percentage"
	ColPricePerRating    = "price_per_rating"
	ColReviewDensity     = "review_density_score"
	ColQualityScore      = "quality_score"
	ColValueScore        = "value_score"
	ColPriceSegment      = "price_segment"
	ColRatingCategory    = "rating_category"
	ColReviewVolume      = "review_volume"
	ColCategoryAvgRating = "category_avg_rating"
	ColCategoryAvgPrice  = "category_avg_price"
	ColRatingVsCategory  = "rating_vs_category_avg"
	ColPriceVsCategory   = "price_vs_category_avg"
	ColPopularityRank    = "popularity_rank"
	ColRatingRank        = "rating_rank"
	ColIsSuccessful      = "is_successful"
	ColCluster           = "cluster"
)

// RequiredColumns are the raw columns a record must provide to survive
// cleaning. Files missing one of these for a row produce a dropped row, not
// an error.
func RequiredColumns() []string {
	return []string{ColName, ColMainCategory, ColRatings, ColReviewCount, ColDiscountPrice}
}

// RawColumns returns all recognized input columns in canonical order.
// Unknown columns in input files are ignored.
func RawColumns() []string {
	return []string{
		ColName, ColMainCategory, ColSubCategory,
		ColRatings, ColReviewCount, ColDiscountPrice, ColActualPrice,
	}
}

// DerivedColumns returns the derived columns of the feature table in the
// order they are persisted.
func DerivedColumns() []string {
	return []string{
		ColPriceClean, ColActualPriceClean, ColRatingClean, ColReviewCountClean,
		ColDiscountPct, ColPricePerRating, ColReviewDensity,
		ColQualityScore, ColValueScore,
		ColPriceSegment, ColRatingCategory, ColReviewVolume,
		ColCategoryAvgRating, ColCategoryAvgPrice,
		ColRatingVsCategory, ColPriceVsCategory,
		ColPopularityRank, ColRatingRank,
		ColIsSuccessful,
	}
}
