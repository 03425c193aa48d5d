package ml

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/prodlens/prodlens/internal/catalog"
	"github.com/prodlens/prodlens/internal/errors"
)

// Hyperparameter grid searched during cross-validation.
var (
	lambdaGrid = []float64{0.01, 0.1, 1.0}
	alphaGrid  = []float64{0.0, 0.5, 1.0} // elastic-net mixing: 0=ridge, 1=lasso
)

const logisticLearningRate = 0.1

// HyperParams identifies one point of the regularization grid.
type HyperParams struct {
	Lambda float64 // regularization strength
	Alpha  float64 // elastic-net mixing
}

// ClassificationMetrics reports model selection and held-out evaluation.
type ClassificationMetrics struct {
	AUC       float64 // area under ROC on the held-out split
	CVAUC     float64 // mean cross-validated AUC of the selected grid point
	Best      HyperParams
	TrainRows int
	TestRows  int
	Positives int
}

// SuccessClassifier predicts the success label from price and
// category-relative features via elastic-net logistic regression.
type SuccessClassifier struct {
	scaler          *StandardScaler
	categoryEncoder *OneHotEncoder
	segmentEncoder  *OneHotEncoder
	weights         []float64 // bias first
}

func successFeatures(p *catalog.Product, categories, segments *OneHotEncoder) []float64 {
	row := []float64{p.Price, p.DiscountPct, p.PriceVsCategory}
	row = categories.Encode(row, p.MainCategory)
	return segments.Encode(row, p.PriceSegment)
}

// TrainSuccessClassifier grid-searches regularization strength and
// elastic-net mixing with k-fold cross-validation on the train split,
// selecting by mean AUC, then reports AUC on the held-out split.
func TrainSuccessClassifier(products []catalog.Product, cfg TrainConfig) (*SuccessClassifier, ClassificationMetrics, error) {
	if len(products) == 0 {
		return nil, ClassificationMetrics{}, errors.ErrEmptyCatalog
	}

	categoryValues := make([]string, len(products))
	segmentValues := make([]string, len(products))
	for i := range products {
		categoryValues[i] = products[i].MainCategory
		segmentValues[i] = products[i].PriceSegment
	}
	categories := FitOneHot(categoryValues)
	segments := FitOneHot(segmentValues)

	cols := 3 + categories.Width() + segments.Width()
	raw := mat.NewDense(len(products), cols, nil)
	labels := make([]float64, len(products))
	positives := 0
	for i := range products {
		raw.SetRow(i, successFeatures(&products[i], categories, segments))
		if products[i].Successful {
			labels[i] = 1
			positives++
		}
	}
	if positives == 0 || positives == len(products) {
		return nil, ClassificationMetrics{}, errors.NewInvalidInputError("train",
			"success label is single-class on this working set")
	}

	trainIdx, testIdx := TrainTestSplit(len(products), cfg.TestFraction, cfg.Seed)
	if len(trainIdx) < cfg.Folds || len(trainIdx) <= cols {
		return nil, ClassificationMetrics{}, errors.NewInvalidInputError("train", "not enough rows for classification")
	}

	scaler := NewStandardScaler()
	trainX, err := scaler.FitTransform(selectRows(raw, trainIdx))
	if err != nil {
		return nil, ClassificationMetrics{}, err
	}
	trainY := selectValues(labels, trainIdx)

	best := HyperParams{Lambda: lambdaGrid[0], Alpha: alphaGrid[0]}
	bestAUC := math.Inf(-1)
	for _, lambda := range lambdaGrid {
		for _, alpha := range alphaGrid {
			score := crossValidateAUC(trainX, trainY, HyperParams{lambda, alpha}, cfg)
			if score > bestAUC {
				bestAUC = score
				best = HyperParams{lambda, alpha}
			}
		}
	}

	weights := fitLogistic(trainX, trainY, best, cfg.MaxIterations)
	model := &SuccessClassifier{
		scaler:          scaler,
		categoryEncoder: categories,
		segmentEncoder:  segments,
		weights:         weights,
	}

	metrics := ClassificationMetrics{
		CVAUC:     bestAUC,
		Best:      best,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Positives: positives,
	}
	if len(testIdx) > 0 {
		testX, err := scaler.Transform(selectRows(raw, testIdx))
		if err != nil {
			return nil, ClassificationMetrics{}, err
		}
		metrics.AUC = auc(scoreMatrix(weights, testX), selectValues(labels, testIdx))
	}

	return model, metrics, nil
}

// PredictProbability returns the success probability for one product.
func (m *SuccessClassifier) PredictProbability(p *catalog.Product) (float64, error) {
	raw := mat.NewDense(1, 3+m.categoryEncoder.Width()+m.segmentEncoder.Width(),
		successFeatures(p, m.categoryEncoder, m.segmentEncoder))
	scaled, err := m.scaler.Transform(raw)
	if err != nil {
		return 0, err
	}
	return scoreMatrix(m.weights, scaled)[0], nil
}

// crossValidateAUC returns the mean AUC of params over k folds, skipping
// single-class folds.
func crossValidateAUC(x *mat.Dense, y []float64, params HyperParams, cfg TrainConfig) float64 {
	rows, _ := x.Dims()
	folds := cfg.Folds
	if folds < 2 {
		folds = 2
	}

	var sum float64
	scored := 0
	for fold := 0; fold < folds; fold++ {
		var holdIdx, fitIdx []int
		for i := 0; i < rows; i++ {
			if i%folds == fold {
				holdIdx = append(holdIdx, i)
			} else {
				fitIdx = append(fitIdx, i)
			}
		}
		holdY := selectValues(y, holdIdx)
		if singleClass(holdY) || singleClass(selectValues(y, fitIdx)) {
			continue
		}

		weights := fitLogistic(selectRows(x, fitIdx), selectValues(y, fitIdx), params, cfg.MaxIterations)
		sum += auc(scoreMatrix(weights, selectRows(x, holdIdx)), holdY)
		scored++
	}

	if scored == 0 {
		return math.Inf(-1)
	}
	return sum / float64(scored)
}

// fitLogistic trains elastic-net logistic regression by proximal gradient
// descent. The bias term (index 0) is unpenalized.
func fitLogistic(x *mat.Dense, y []float64, params HyperParams, iterations int) []float64 {
	rows, cols := x.Dims()
	weights := make([]float64, cols+1)
	grad := make([]float64, cols+1)
	if iterations <= 0 {
		iterations = 100
	}

	for iter := 0; iter < iterations; iter++ {
		for j := range grad {
			grad[j] = 0
		}

		for i := 0; i < rows; i++ {
			margin := weights[0]
			for j := 0; j < cols; j++ {
				margin += weights[j+1] * x.At(i, j)
			}
			residual := sigmoid(margin) - y[i]
			grad[0] += residual
			for j := 0; j < cols; j++ {
				grad[j+1] += residual * x.At(i, j)
			}
		}

		n := float64(rows)
		weights[0] -= logisticLearningRate * grad[0] / n
		ridge := params.Lambda * (1 - params.Alpha)
		for j := 1; j <= cols; j++ {
			weights[j] -= logisticLearningRate * (grad[j]/n + ridge*weights[j])
			weights[j] = softThreshold(weights[j], logisticLearningRate*params.Lambda*params.Alpha)
		}
	}
	return weights
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

// softThreshold is the proximal operator of the L1 penalty.
func softThreshold(w, t float64) float64 {
	switch {
	case w > t:
		return w - t
	case w < -t:
		return w + t
	default:
		return 0
	}
}

func scoreMatrix(weights []float64, x *mat.Dense) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		margin := weights[0]
		for j := 0; j < cols; j++ {
			margin += weights[j+1] * x.At(i, j)
		}
		out[i] = sigmoid(margin)
	}
	return out
}

// auc computes the area under the ROC curve for scores against binary
// labels.
func auc(scores, labels []float64) float64 {
	type pair struct {
		score float64
		pos   bool
	}
	pairs := make([]pair, len(scores))
	for i := range scores {
		pairs[i] = pair{score: scores[i], pos: labels[i] > 0.5}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	y := make([]float64, len(pairs))
	classes := make([]bool, len(pairs))
	for i, p := range pairs {
		y[i] = p.score
		classes[i] = p.pos
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}

func singleClass(y []float64) bool {
	if len(y) == 0 {
		return true
	}
	first := y[0]
	for _, v := range y[1:] {
		if v != first {
			return false
		}
	}
	return true
}
