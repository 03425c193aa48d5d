package ml

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/errors"
)

// RegressionMetrics reports the held-out evaluation of the rating model.
type RegressionMetrics struct {
	RMSE      float64
	TrainRows int
	TestRows  int
}

// RatingRegression predicts a product's rating from price, review volume,
// discount and category via ordinary least squares.
type RatingRegression struct {
	scaler  *StandardScaler
	encoder *OneHotEncoder
	weights *mat.VecDense
}

// ratingFeatures assembles the raw (unscaled) feature row for one product.
func ratingFeatures(p *catalog.Product, encoder *OneHotEncoder) []float64 {
	row := []float64{p.Price, float64(p.ReviewCount), p.DiscountPct}
	return encoder.Encode(row, p.MainCategory)
}

// TrainRatingRegression fits the rating model on a seeded train split and
// evaluates root-mean-squared error on the held-out rows.
func TrainRatingRegression(products []catalog.Product, cfg TrainConfig) (*RatingRegression, RegressionMetrics, error) {
	if len(products) == 0 {
		return nil, RegressionMetrics{}, errors.ErrEmptyCatalog
	}

	categories := make([]string, len(products))
	for i := range products {
		categories[i] = products[i].MainCategory
	}
	encoder := FitOneHot(categories)

	cols := 3 + encoder.Width()
	raw := mat.NewDense(len(products), cols, nil)
	labels := make([]float64, len(products))
	for i := range products {
		raw.SetRow(i, ratingFeatures(&products[i], encoder))
		labels[i] = products[i].Rating
	}

	trainIdx, testIdx := TrainTestSplit(len(products), cfg.TestFraction, cfg.Seed)
	if len(trainIdx) <= cols {
		return nil, RegressionMetrics{}, errors.NewInvalidInputError("train", "not enough rows for regression")
	}

	scaler := NewStandardScaler()
	trainRaw := selectRows(raw, trainIdx)
	trainX, err := scaler.FitTransform(trainRaw)
	if err != nil {
		return nil, RegressionMetrics{}, err
	}

	design := withIntercept(trainX)
	trainY := mat.NewVecDense(len(trainIdx), selectValues(labels, trainIdx))

	var qr mat.QR
	qr.Factorize(design)
	var solved mat.Dense
	if err := qr.SolveTo(&solved, false, trainY); err != nil {
		return nil, RegressionMetrics{}, errors.NewInternalError("train", err)
	}

	weights := mat.NewVecDense(cols+1, nil)
	for j := 0; j <= cols; j++ {
		weights.SetVec(j, solved.At(j, 0))
	}

	model := &RatingRegression{scaler: scaler, encoder: encoder, weights: weights}

	metrics := RegressionMetrics{TrainRows: len(trainIdx), TestRows: len(testIdx)}
	if len(testIdx) > 0 {
		testX, err := scaler.Transform(selectRows(raw, testIdx))
		if err != nil {
			return nil, RegressionMetrics{}, err
		}
		metrics.RMSE = rmse(model.predictMatrix(testX), selectValues(labels, testIdx))
	}

	return model, metrics, nil
}

// Predict estimates the rating for a single product.
func (m *RatingRegression) Predict(p *catalog.Product) (float64, error) {
	raw := mat.NewDense(1, 3+m.encoder.Width(), ratingFeatures(p, m.encoder))
	scaled, err := m.scaler.Transform(raw)
	if err != nil {
		return 0, err
	}
	return m.predictMatrix(scaled)[0], nil
}

func (m *RatingRegression) predictMatrix(x *mat.Dense) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := m.weights.AtVec(0)
		for j := 0; j < cols; j++ {
			sum += m.weights.AtVec(j+1) * x.At(i, j)
		}
		out[i] = sum
	}
	return out
}

func rmse(predicted, actual []float64) float64 {
	var sum float64
	for i := range predicted {
		diff := predicted[i] - actual[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(predicted)))
}

// withIntercept prepends a column of ones to x.
func withIntercept(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, 1)
		for j := 0; j < cols; j++ {
			out.Set(i, j+1, x.At(i, j))
		}
	}
	return out
}

func selectRows(x *mat.Dense, indices []int) *mat.Dense {
	_, cols := x.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	for i, idx := range indices {
		out.SetRow(i, x.RawRowView(idx))
	}
	return out
}

func selectValues(values []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return out
}
