package model

import (
	"fmt"
	"math"
)

// FitParams controls the iterative breakpoint-detection fit.
type FitParams struct {
	// MinObs is the number of clear observations needed before a segment
	// can be fit.
	MinObs int
	// Consecutive is how many successive anomalous observations confirm a
	// structural break.
	Consecutive int
	// Threshold is the normalized-residual magnitude above which an
	// observation counts as anomalous.
	Threshold float64
	// TestBands are the band indices whose residuals feed the break test.
	// Empty means every band.
	TestBands []int
	// MinRMSE floors the per-band RMSE used to normalize residuals, so
	// near-perfect fits do not flag noise as change. Zero disables it.
	MinRMSE float64
	// Reverse fits the series backwards in time.
	Reverse bool
	// Fitter estimates per-band coefficients. Defaults to the lasso.
	Fitter SegmentFitter
}

func (p FitParams) withDefaults() FitParams {
	if p.MinObs <= 0 {
		p.MinObs = 16
	}
	if p.Consecutive <= 0 {
		p.Consecutive = 5
	}
	if p.Threshold <= 0 {
		p.Threshold = 4.0
	}
	if p.Fitter == nil {
		p.Fitter = NewLassoFitter()
	}
	return p
}

// FitSegments runs an iterative piecewise regression over clear
// observations: it fits a sliding window of at least MinObs observations per
// band, tests the next Consecutive observations against a
// normalized-residual threshold, and on a confirmed break closes the current
// segment and starts a new one after the break date.
//
// dates must be sorted ascending; Y is indexed [band][observation] and must
// be aligned with dates. Fewer than MinObs observations produce zero
// segments, which is a normal outcome rather than an error.
func FitSegments(dates []int, Y [][]float64, design Design, params FitParams) ([]Segment, error) {
	p := params.withDefaults()

	n := len(dates)
	if len(Y) == 0 {
		return nil, fmt.Errorf("no bands to fit")
	}
	for b := range Y {
		if len(Y[b]) != n {
			return nil, fmt.Errorf("band %d has %d observations, want %d", b, len(Y[b]), n)
		}
	}
	if n < p.MinObs {
		return nil, nil
	}

	if p.Reverse {
		dates = reversedInts(dates)
		flipped := make([][]float64, len(Y))
		for b := range Y {
			flipped[b] = reversedFloats(Y[b])
		}
		Y = flipped
	}

	testBands := p.TestBands
	if len(testBands) == 0 {
		testBands = make([]int, len(Y))
		for b := range testBands {
			testBands[b] = b
		}
	}
	for _, b := range testBands {
		if b < 0 || b >= len(Y) {
			return nil, fmt.Errorf("test band %d out of range (%d bands)", b, len(Y))
		}
	}

	X := design.Matrix(dates, nil)

	fitWindow := func(lo, hi int) ([][]float64, []float64, error) {
		coef := make([][]float64, len(X[0]))
		for c := range coef {
			coef[c] = make([]float64, len(Y))
		}
		errs := make([]float64, len(Y))

		Xw := X[lo:hi]
		for b := range Y {
			beta, err := p.Fitter.Fit(Xw, Y[b][lo:hi])
			if err != nil {
				return nil, nil, fmt.Errorf("band %d window %d:%d: %w", b, lo, hi, err)
			}
			for c := range beta {
				coef[c][b] = beta[c]
			}
			errs[b] = rmse(Xw, beta, Y[b][lo:hi])
		}
		return coef, errs, nil
	}

	// Normalized residual magnitude of observation i against a window fit.
	score := func(coef [][]float64, errs []float64, i int) float64 {
		var ss float64
		for _, b := range testBands {
			var pred float64
			for c := range X[i] {
				pred += coef[c][b] * X[i][c]
			}
			denom := math.Max(errs[b], p.MinRMSE)
			if denom == 0 {
				denom = 1
			}
			r := (Y[b][i] - pred) / denom
			ss += r * r
		}
		return math.Sqrt(ss)
	}

	var segments []Segment
	start := 0
	end := start + p.MinObs

	coef, errs, err := fitWindow(start, end)
	if err != nil {
		return nil, err
	}

	for {
		if end >= n || n-end < p.Consecutive {
			// Tail too short to confirm another break; absorb it.
			coef, errs, err = fitWindow(start, n)
			if err != nil {
				return nil, err
			}
			segments = append(segments, Segment{
				Start: dates[start],
				End:   dates[n-1],
				Coef:  coef,
				RMSE:  errs,
			})
			break
		}

		broke := true
		for j := end; j < end+p.Consecutive; j++ {
			if score(coef, errs, j) <= p.Threshold {
				broke = false
				break
			}
		}

		if broke {
			segments = append(segments, Segment{
				Start: dates[start],
				End:   dates[end-1],
				Break: dates[end],
				Coef:  coef,
				RMSE:  errs,
			})
			start = end
			if n-start < p.MinObs {
				// Not enough observations left to model the new regime.
				break
			}
			end = start + p.MinObs
		} else {
			end++
		}
		if end > n {
			end = n
		}

		coef, errs, err = fitWindow(start, end)
		if err != nil {
			return nil, err
		}
	}

	return segments, nil
}

func reversedInts(v []int) []int {
	out := make([]int, len(v))
	for i := range v {
		out[i] = v[len(v)-1-i]
	}
	return out
}

func reversedFloats(v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range v {
		out[i] = v[len(v)-1-i]
	}
	return out
}
