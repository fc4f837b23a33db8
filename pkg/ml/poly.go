package ml

import (
	"fmt"
	"math"

	"github.com/sajari/regression"
)

// PolyFit is a least-squares polynomial in one variable.
type PolyFit struct {
	Degree int
	// Coefficients are ordered by power, intercept first.
	Coefficients []float64
	R2           float64
	// Fitted holds the prediction for every training x.
	Fitted []float64

	reg *regression.Regression
}

// FitPolynomial fits y = b0 + b1*x + ... + bd*x^d by expanding x into its
// powers and running an ordinary linear regression over them.
func FitPolynomial(x, y []float64, degree int) (*PolyFit, error) {
	if degree < 1 {
		return nil, fmt.Errorf("%w: degree must be >= 1", ErrInvalidParams)
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d inputs, %d targets", ErrDimensionMismatch, len(x), len(y))
	}
	if len(x) <= degree {
		return nil, fmt.Errorf("%w: need more than %d points", ErrEmptyInput, degree)
	}

	r := new(regression.Regression)
	r.SetObserved("y")
	for p := 1; p <= degree; p++ {
		r.SetVar(p-1, fmt.Sprintf("x^%d", p))
	}
	for i := range x {
		r.Train(regression.DataPoint(y[i], powers(x[i], degree)))
	}
	if err := r.Run(); err != nil {
		return nil, fmt.Errorf("polynomial fit: %w", err)
	}

	fit := &PolyFit{
		Degree:       degree,
		Coefficients: r.GetCoeffs(),
		reg:          r,
		Fitted:       make([]float64, len(x)),
	}
	var sse, sst, mean float64
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))
	for i := range x {
		v, err := r.Predict(powers(x[i], degree))
		if err != nil {
			return nil, fmt.Errorf("polynomial predict: %w", err)
		}
		fit.Fitted[i] = v
		sse += (y[i] - v) * (y[i] - v)
		sst += (y[i] - mean) * (y[i] - mean)
	}

	fit.R2 = r.R2
	if math.IsNaN(fit.R2) || math.IsInf(fit.R2, 0) {
		// constant targets: a perfect fit scores 1
		fit.R2 = 0
		if sst == 0 && sse < 1e-12 {
			fit.R2 = 1
		}
	}
	return fit, nil
}

// Predict evaluates the fitted polynomial at x.
func (p *PolyFit) Predict(x float64) (float64, error) {
	if p.reg == nil {
		return 0, ErrNotFitted
	}
	return p.reg.Predict(powers(x, p.Degree))
}

func powers(x float64, degree int) []float64 {
	v := make([]float64, degree)
	acc := 1.0
	for i := range v {
		acc *= x
		v[i] = acc
	}
	return v
}
