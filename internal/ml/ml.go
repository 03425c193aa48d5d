// Package ml trains the statistical models over the feature table: a rating
// regression, a success classifier and a product clustering. The package owns
// feature-vector assembly (encoding, scaling, splitting); the numerical
// machinery is delegated to gonum.
package ml

// TrainConfig carries the knobs shared by model training.
type TrainConfig struct {
	TestFraction  float64 // held-out share for evaluation
	Folds         int     // cross-validation folds for the classifier
	Seed          int64
	MaxIterations int
}

// DefaultTrainConfig mirrors the canonical run: 80/20 split, 5-fold CV,
// fixed seed.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		TestFraction:  0.2,
		Folds:         5,
		Seed:          42,
		MaxIterations: 100,
	}
}
