package model

import "math"

// DefaultPeriod is the days-in-year constant for the harmonic terms,
// accounting for leap years.
const DefaultPeriod = 365.25

// Design describes the regression basis: a constant, an optional linear
// trend, one cos/sin pair per harmonic frequency, and optionally trailing
// categorical indicator columns (for example per-sensor intercepts).
//
// Categorical columns take part in fitting but are never used for
// prediction; RetainedColumns is the single source of truth for which
// columns survive, shared by fit and predict.
type Design struct {
	Trend      bool
	Harmonics  []int
	Period     float64
	Categories int
}

// DefaultDesign is the "1 + x + harm(x, 1)" basis.
func DefaultDesign() Design {
	return Design{Trend: true, Harmonics: []int{1}, Period: DefaultPeriod}
}

// SavedDesign is the fixed 8-column basis used by precomputed result files:
// constant, trend and annual plus two higher harmonics.
func SavedDesign() Design {
	return Design{Trend: true, Harmonics: []int{1, 2, 3}, Period: DefaultPeriod}
}

func (d Design) period() float64 {
	if d.Period <= 0 {
		return DefaultPeriod
	}
	return d.Period
}

// NumColumns is the full design-matrix width including categorical columns.
func (d Design) NumColumns() int {
	n := 1 + 2*len(d.Harmonics) + d.Categories
	if d.Trend {
		n++
	}
	return n
}

// RetainedColumns returns the indices of the columns used for prediction:
// every column except the trailing categorical ones.
func (d Design) RetainedColumns() []int {
	n := d.NumColumns() - d.Categories
	cols := make([]int, n)
	for i := range cols {
		cols[i] = i
	}
	return cols
}

// baseRow evaluates the non-categorical basis at ordinal date x, in retained
// column order.
func (d Design) baseRow(x float64) []float64 {
	row := make([]float64, 0, d.NumColumns()-d.Categories)
	row = append(row, 1)
	if d.Trend {
		row = append(row, x)
	}
	w := 2 * math.Pi / d.period()
	for _, h := range d.Harmonics {
		wh := w * float64(h)
		row = append(row, math.Cos(wh*x), math.Sin(wh*x))
	}
	return row
}

// Matrix builds the observation x column design matrix for the given ordinal
// dates. categories assigns each observation to a categorical level in
// [0, Categories); it may be nil when Categories is 0.
func (d Design) Matrix(dates []int, categories []int) [][]float64 {
	X := make([][]float64, len(dates))
	for i, x := range dates {
		row := d.baseRow(float64(x))
		if d.Categories > 0 {
			dummies := make([]float64, d.Categories)
			if categories != nil && categories[i] >= 0 && categories[i] < d.Categories {
				dummies[categories[i]] = 1
			}
			row = append(row, dummies...)
		}
		X[i] = row
	}
	return X
}

// evaluate computes the predicted value at ordinal date x for one band,
// using only retained columns. Coefficient vectors shorter than the basis
// (truncated saved results) use as many leading columns as they carry.
func (d Design) evaluate(coef [][]float64, band int, x float64) float64 {
	base := d.baseRow(float64(x))
	retained := d.RetainedColumns()

	var v float64
	for j, col := range retained {
		if j >= len(base) || col >= len(coef) {
			break
		}
		v += coef[col][band] * base[j]
	}
	return v
}
