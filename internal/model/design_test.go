package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNumColumns(t *testing.T) {
	require.Equal(t, 4, DefaultDesign().NumColumns())
	require.Equal(t, 8, SavedDesign().NumColumns())
	require.Equal(t, 2, Design{Trend: true}.NumColumns())
	require.Equal(t, 1, Design{}.NumColumns())
	require.Equal(t, 6, Design{Trend: true, Harmonics: []int{1}, Categories: 2}.NumColumns())
}

func TestRetainedColumnsExcludeCategories(t *testing.T) {
	d := Design{Trend: true, Harmonics: []int{1}, Categories: 2}
	require.Equal(t, []int{0, 1, 2, 3}, d.RetainedColumns())

	// Without categoricals every column survives.
	require.Equal(t, []int{0, 1, 2, 3}, DefaultDesign().RetainedColumns())
}

func TestMatrixRowValues(t *testing.T) {
	d := DefaultDesign()
	x := 729390.0
	X := d.Matrix([]int{int(x)}, nil)
	require.Len(t, X, 1)
	require.Len(t, X[0], 4)

	w := 2 * math.Pi / DefaultPeriod
	require.Equal(t, 1.0, X[0][0])
	require.Equal(t, x, X[0][1])
	require.InDelta(t, math.Cos(w*x), X[0][2], 1e-12)
	require.InDelta(t, math.Sin(w*x), X[0][3], 1e-12)
}

func TestMatrixCategoricalColumns(t *testing.T) {
	d := Design{Trend: true, Categories: 2}
	X := d.Matrix([]int{100, 200}, []int{0, 1})
	require.Len(t, X[0], 4)

	require.Equal(t, 1.0, X[0][2])
	require.Equal(t, 0.0, X[0][3])
	require.Equal(t, 0.0, X[1][2])
	require.Equal(t, 1.0, X[1][3])
}

func TestEvaluateHonorsTruncatedCoefficients(t *testing.T) {
	d := SavedDesign()

	// Saved records may carry fewer coefficient rows than the full basis;
	// trailing columns are treated as zero.
	coef := [][]float64{{5}, {0.5}}
	got := d.evaluate(coef, 0, 10)
	require.InDelta(t, 5+0.5*10, got, 1e-12)
}
