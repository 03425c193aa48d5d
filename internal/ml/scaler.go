package ml

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/prodlens/prodlens/internal/errors"
)

// StandardScaler standardizes feature columns to zero mean and unit
// variance. A constant column is centered but left unscaled.
type StandardScaler struct {
	mean []float64
	std  []float64
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit learns per-column mean and standard deviation from x.
func (s *StandardScaler) Fit(x *mat.Dense) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewInvalidInputError("scale", "cannot fit scaler on empty matrix")
	}

	s.mean = make([]float64, cols)
	s.std = make([]float64, cols)

	column := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(column, j, x)
		mean, std := stat.MeanStdDev(column, nil)
		s.mean[j] = mean
		if std == 0 || rows == 1 {
			std = 1
		}
		s.std[j] = std
	}
	return nil
}

// Transform returns a standardized copy of x using the fitted statistics.
func (s *StandardScaler) Transform(x *mat.Dense) (*mat.Dense, error) {
	if s.mean == nil {
		return nil, errors.NewInvalidInputError("scale", "scaler is not fitted")
	}
	rows, cols := x.Dims()
	if cols != len(s.mean) {
		return nil, errors.NewInvalidInputError("scale", "column count does not match fitted scaler")
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			out.Set(i, j, (x.At(i, j)-s.mean[j])/s.std[j])
		}
	}
	return out, nil
}

// FitTransform fits the scaler and standardizes x in one step.
func (s *StandardScaler) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	if err := s.Fit(x); err != nil {
		return nil, err
	}
	return s.Transform(x)
}
