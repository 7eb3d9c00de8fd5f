package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func lineData(n int, intercept, slope float64) ([][]float64, []float64) {
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x := float64(i)
		X[i] = []float64{1, x}
		y[i] = intercept + slope*x
	}
	return X, y
}

func TestOLSRecoversExactLine(t *testing.T) {
	X, y := lineData(20, 2, 3)

	beta, err := OLSFitter{}.Fit(X, y)
	require.NoError(t, err)
	require.InDelta(t, 2, beta[0], 1e-9)
	require.InDelta(t, 3, beta[1], 1e-9)
}

func TestOLSSingularMatrix(t *testing.T) {
	// Two identical columns cannot be separated.
	X := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	y := []float64{1, 2, 3}

	_, err := OLSFitter{}.Fit(X, y)
	require.ErrorIs(t, err, errSingular)
}

func TestOLSUnderdetermined(t *testing.T) {
	X := [][]float64{{1, 0, 0}}
	_, err := OLSFitter{}.Fit(X, []float64{1})
	require.Error(t, err)
}

func TestOLSShapeMismatch(t *testing.T) {
	X, _ := lineData(5, 0, 1)
	_, err := OLSFitter{}.Fit(X, []float64{1, 2})
	require.Error(t, err)
}

func TestLassoInterceptUnpenalized(t *testing.T) {
	// Constant response: the intercept column absorbs it fully even though
	// the penalty would zero any other coefficient of this size.
	n := 30
	X := make([][]float64, n)
	y := make([]float64, n)
	for i := range X {
		X[i] = []float64{1, float64(i)}
		y[i] = 500
	}

	beta, err := NewLassoFitter().Fit(X, y)
	require.NoError(t, err)
	require.InDelta(t, 500, beta[0], 1e-3)
	require.InDelta(t, 0, beta[1], 1e-3)
}

func TestLassoShrinksTowardOLS(t *testing.T) {
	X, y := lineData(20, 2, 3)

	ols, err := OLSFitter{}.Fit(X, y)
	require.NoError(t, err)
	lasso, err := NewLassoFitter().Fit(X, y)
	require.NoError(t, err)

	// The penalized slope never exceeds the unpenalized one in magnitude.
	require.LessOrEqual(t, math.Abs(lasso[1]), math.Abs(ols[1])+1e-9)
	require.InDelta(t, ols[1], lasso[1], 0.5)
}

func TestLassoZeroPenaltyMatchesOLS(t *testing.T) {
	X, y := lineData(20, 2, 3)

	ols, err := OLSFitter{}.Fit(X, y)
	require.NoError(t, err)
	lasso, err := LassoFitter{Alpha: 0, MaxIter: 5000, Tol: 1e-10}.Fit(X, y)
	require.NoError(t, err)

	require.InDelta(t, ols[0], lasso[0], 1e-4)
	require.InDelta(t, ols[1], lasso[1], 1e-4)
}

func TestRMSE(t *testing.T) {
	X := [][]float64{{1}, {1}, {1}, {1}}
	beta := []float64{2}
	y := []float64{1, 3, 1, 3}
	require.InDelta(t, 1, rmse(X, beta, y), 1e-12)
}
