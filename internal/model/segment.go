// Package model is the segmented time-series model layer: it fits piecewise
// harmonic regressions to per-pixel observations, loads precomputed segment
// records from disk, and answers prediction, breakpoint and residual queries
// uniformly regardless of where the segments came from.
package model

// Segment is one time-bounded regression fit. Start, End and Break are
// ordinal dates; Break is 0 when the segment was not terminated by a
// detected change. Coef is indexed [designColumn][band].
type Segment struct {
	Start int
	End   int
	Break int
	Coef  [][]float64
	RMSE  []float64
}

// HasBreak reports whether the segment ends at a detected change point.
func (s Segment) HasBreak() bool { return s.Break != 0 }

// NumBands returns how many bands the segment carries coefficients for.
func (s Segment) NumBands() int {
	if len(s.Coef) == 0 {
		return 0
	}
	return len(s.Coef[0])
}

// foreignOffsetDays converts the MATLAB datenum convention (days since year
// 0) used by saved result files to the local proleptic Gregorian ordinal.
const foreignOffsetDays = 366

// FromForeignOrdinal converts a MATLAB-style datenum to a local ordinal
// date. All saved-result ingestion goes through here so the rest of the
// package only ever sees one ordinal convention.
func FromForeignOrdinal(d int) int {
	if d == 0 {
		return 0
	}
	return d - foreignOffsetDays
}
