package model

import (
	"errors"
	"fmt"
	"math"
)

// SegmentFitter estimates regression coefficients for one band over a design
// matrix. Implementations must be deterministic: identical inputs produce
// identical coefficients.
type SegmentFitter interface {
	Fit(X [][]float64, y []float64) ([]float64, error)
}

// OLSFitter solves ordinary least squares through the normal equations.
type OLSFitter struct{}

// Fit returns the OLS coefficient vector for y over X.
func (OLSFitter) Fit(X [][]float64, y []float64) ([]float64, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("design matrix has %d rows but %d observations", len(X), len(y))
	}
	k := len(X[0])
	if len(X) < k {
		return nil, fmt.Errorf("underdetermined fit: %d observations for %d columns", len(X), k)
	}

	// Normal equations: (X'X) beta = X'y.
	A := make([][]float64, k)
	b := make([]float64, k)
	for i := range A {
		A[i] = make([]float64, k)
	}
	for r := range X {
		for i := 0; i < k; i++ {
			b[i] += X[r][i] * y[r]
			for j := i; j < k; j++ {
				A[i][j] += X[r][i] * X[r][j]
			}
		}
	}
	for i := 1; i < k; i++ {
		for j := 0; j < i; j++ {
			A[i][j] = A[j][i]
		}
	}

	beta, err := solve(A, b)
	if err != nil {
		return nil, err
	}
	return beta, nil
}

var errSingular = errors.New("singular design matrix")

// solve performs Gaussian elimination with partial pivoting in place.
func solve(A [][]float64, b []float64) ([]float64, error) {
	n := len(A)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(A[r][col]) > math.Abs(A[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(A[pivot][col]) < 1e-12 {
			return nil, errSingular
		}
		A[col], A[pivot] = A[pivot], A[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < n; r++ {
			f := A[r][col] / A[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < n; c++ {
				A[r][c] -= f * A[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		v := b[i]
		for j := i + 1; j < n; j++ {
			v -= A[i][j] * x[j]
		}
		x[i] = v / A[i][i]
	}
	return x, nil
}

// LassoFitter is an L1-regularized least squares fit by cyclic coordinate
// descent. The intercept column (column 0) is never penalized.
type LassoFitter struct {
	Alpha   float64
	MaxIter int
	Tol     float64
}

// NewLassoFitter returns a fitter with the historical default penalty.
func NewLassoFitter() LassoFitter {
	return LassoFitter{Alpha: 20, MaxIter: 500, Tol: 1e-6}
}

// Fit returns the lasso coefficient vector for y over X.
func (f LassoFitter) Fit(X [][]float64, y []float64) ([]float64, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, fmt.Errorf("design matrix has %d rows but %d observations", len(X), len(y))
	}
	k := len(X[0])
	n := len(X)

	maxIter := f.MaxIter
	if maxIter <= 0 {
		maxIter = 500
	}
	tol := f.Tol
	if tol <= 0 {
		tol = 1e-6
	}

	norms := make([]float64, k)
	for j := 0; j < k; j++ {
		for i := 0; i < n; i++ {
			norms[j] += X[i][j] * X[i][j]
		}
		if norms[j] == 0 {
			norms[j] = 1
		}
	}

	beta := make([]float64, k)
	resid := make([]float64, n)
	copy(resid, y)

	for iter := 0; iter < maxIter; iter++ {
		var maxDelta float64
		for j := 0; j < k; j++ {
			var rho float64
			for i := 0; i < n; i++ {
				rho += X[i][j] * (resid[i] + X[i][j]*beta[j])
			}

			var next float64
			if j == 0 {
				next = rho / norms[j]
			} else {
				next = softThreshold(rho, f.Alpha) / norms[j]
			}

			delta := next - beta[j]
			if delta != 0 {
				for i := 0; i < n; i++ {
					resid[i] -= X[i][j] * delta
				}
				beta[j] = next
			}
			if d := math.Abs(delta); d > maxDelta {
				maxDelta = d
			}
		}
		if maxDelta < tol {
			break
		}
	}
	return beta, nil
}

func softThreshold(v, alpha float64) float64 {
	switch {
	case v > alpha:
		return v - alpha
	case v < -alpha:
		return v + alpha
	default:
		return 0
	}
}

// rmse computes the root mean squared error of a fitted coefficient vector.
func rmse(X [][]float64, beta, y []float64) float64 {
	if len(X) == 0 {
		return 0
	}
	var ss float64
	for i := range X {
		var p float64
		for j := range beta {
			p += X[i][j] * beta[j]
		}
		d := y[i] - p
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(X)))
}
