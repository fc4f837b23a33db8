// Package ml provides the small set of estimators used by the analytics
// pipeline: CART trees, random forests, an isolation forest, a standard
// scaler, stratified folds and classification metrics.
//
// Estimators follow a Fit/Predict shape over gonum matrices. Every
// randomized estimator takes an explicit seed so repeated fits on the same
// data give the same model.
package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NewMatrix builds a dense matrix from equally sized rows.
func NewMatrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyInput
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// SelectRows returns the rows of X at idx as a new matrix.
func SelectRows(X mat.Matrix, idx []int) *mat.Dense {
	_, cols := X.Dims()
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		for j := 0; j < cols; j++ {
			out.Set(i, j, X.At(r, j))
		}
	}
	return out
}

// Select returns the values of v at idx.
func Select[T any](v []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, r := range idx {
		out[i] = v[r]
	}
	return out
}

// rowMajor returns the matrix contents as one row-major slice.
// The result must be treated as read-only.
func rowMajor(X mat.Matrix) []float64 {
	rows, cols := X.Dims()
	if d, ok := X.(*mat.Dense); ok {
		raw := d.RawMatrix()
		if raw.Stride == cols {
			return raw.Data[:rows*cols]
		}
	}
	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = X.At(i, j)
		}
	}
	return data
}

func checkXY(X mat.Matrix, n int) (rows, cols int, err error) {
	rows, cols = X.Dims()
	if rows == 0 || cols == 0 {
		return 0, 0, ErrEmptyInput
	}
	if rows != n {
		return 0, 0, fmt.Errorf("%w: %d rows, %d targets", ErrDimensionMismatch, rows, n)
	}
	return rows, cols, nil
}
