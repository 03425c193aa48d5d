package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prodlens/prodlens/internal/catalog"
)

// Bundle collects every report computed for a run.
type Bundle struct {
	Summary       Summary
	Categories    []CategoryPerformance
	Elasticity    []PriceBucket
	Opportunities []Opportunity
	MarketGaps    []Opportunity
	Underpriced   []PricingCandidate
	Improvements  []PricingCandidate
	SuccessRates  []SuccessRate
}

// Build computes the full report bundle over the feature table. topN bounds
// the ranked lists; the category and elasticity tables are always complete.
func Build(products []catalog.Product, topN int) *Bundle {
	opportunities := Opportunities(products)
	return &Bundle{
		Summary:       Summarize(products),
		Categories:    Categories(products),
		Elasticity:    PriceElasticity(products),
		Opportunities: opportunities,
		MarketGaps:    MarketGaps(opportunities, topN),
		Underpriced:   Underpriced(products, topN),
		Improvements:  ImprovementTargets(products, topN),
		SuccessRates:  SuccessRates(products),
	}
}

// Render writes the human-readable report tables. topN bounds how many rows
// of each ranked table are printed.
func (b *Bundle) Render(w io.Writer, topN int) {
	fmt.Fprintln(w, "EXECUTIVE SUMMARY")
	fmt.Fprintf(w, "  products: %d  categories: %d\n", b.Summary.TotalProducts, b.Summary.CategoryCount)
	fmt.Fprintf(w, "  avg rating: %.2f  avg price: %.2f\n", b.Summary.AvgRating, b.Summary.AvgPrice)
	fmt.Fprintf(w, "  total reviews: %d  success rate: %.1f%%\n", b.Summary.TotalReviews, b.Summary.SuccessRate)
	fmt.Fprintln(w)

	renderCategories(w, b.Categories, topN)
	renderOpportunities(w, "MARKET OPPORTUNITIES", b.Opportunities, topN)
	renderOpportunities(w, "MARKET GAPS (high demand, low competition)", b.MarketGaps, topN)
	renderCandidates(w, "UNDERPRICED HIGH-QUALITY PRODUCTS", b.Underpriced, topN)
	renderCandidates(w, "IMPROVEMENT TARGETS (high volume, low rating)", b.Improvements, topN)
	renderSuccessRates(w, b.SuccessRates, topN)
}

func renderCategories(w io.Writer, rows []CategoryPerformance, topN int) {
	fmt.Fprintln(w, "CATEGORY PERFORMANCE")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "category\tproducts\tavg rating\tavg price\treviews\tquality\tdiscount%\tsubcats")
	for i, r := range rows {
		if topN > 0 && i == topN {
			break
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%d\t%.3f\t%.1f\t%d\n",
			r.Category, r.ProductCount, r.AvgRating, r.AvgPrice,
			r.TotalReviews, r.AvgQuality, r.AvgDiscount, r.SubcategoryCount)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func renderOpportunities(w io.Writer, title string, rows []Opportunity, topN int) {
	fmt.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "category\tsubcategory\tproducts\tavg rating\tdemand\tscore")
	for i, r := range rows {
		if topN > 0 && i == topN {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%d\t%.1f\n",
			r.Category, r.SubCategory, r.ProductCount, r.AvgRating, r.DemandSignal, r.Score)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func renderCandidates(w io.Writer, title string, rows []PricingCandidate, topN int) {
	fmt.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "name\tcategory\trating\tprice\treviews\tprice vs category%")
	for i, r := range rows {
		if topN > 0 && i == topN {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.2f\t%d\t%.1f\n",
			r.Name, r.Category, r.Rating, r.Price, r.ReviewCount, r.PriceVsCategory)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func renderSuccessRates(w io.Writer, rows []SuccessRate, topN int) {
	fmt.Fprintln(w, "SUCCESS RATE BY CATEGORY")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "category\tsuccessful\ttotal\trate%")
	for i, r := range rows {
		if topN > 0 && i == topN {
			break
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", r.Category, r.Successful, r.Total, r.Rate)
	}
	tw.Flush()
	fmt.Fprintln(w)
}
