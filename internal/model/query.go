package model

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

// Curve is one segment's worth of dated values.
type Curve struct {
	Dates  []time.Time
	Values []float64
}

// Points is a set of dated scatter values, such as break points.
type Points struct {
	Dates  []time.Time
	Values []float64
}

// Predict evaluates the model curve of every segment for one band. When
// dates is non-nil only the supplied ordinal dates falling inside a
// segment's validity interval are evaluated; otherwise a dense daily range
// from segment start to end is used. Segments whose intersection with the
// supplied dates is empty contribute no curve.
func Predict(segments []Segment, band int, design Design, dates []int) []Curve {
	var curves []Curve
	for _, seg := range segments {
		if band >= seg.NumBands() {
			log.Debug("no model results for band", "band", band)
			continue
		}

		var xs []int
		if dates != nil {
			lo, hi := seg.Start, seg.End
			if seg.Break > hi {
				hi = seg.Break
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			for _, x := range dates {
				if x >= lo && x <= hi {
					xs = append(xs, x)
				}
			}
		} else {
			step := 1
			if seg.End < seg.Start {
				step = -1
			}
			for x := seg.Start; x != seg.End; x += step {
				xs = append(xs, x)
			}
		}
		if len(xs) == 0 {
			continue
		}

		curve := Curve{
			Dates:  make([]time.Time, len(xs)),
			Values: make([]float64, len(xs)),
		}
		for i, x := range xs {
			curve.Dates[i] = imagery.FromOrdinal(x)
			curve.Values[i] = design.evaluate(seg.Coef, band, float64(x))
		}
		curves = append(curves, curve)
	}
	return curves
}

// Breaks pairs every real break date with the observed value at the exact
// matching image date. Break dates with no matching observation are skipped
// rather than paired with a neighbor.
func Breaks(segments []Segment, band int, images []imagery.ImageRecord, data [][]float64) Points {
	var out Points
	if band < 0 || band >= len(data) {
		return out
	}

	for _, seg := range segments {
		if !seg.HasBreak() {
			continue
		}
		idx := -1
		for i, img := range images {
			if img.Ordinal == seg.Break {
				idx = i
				break
			}
		}
		if idx < 0 || idx >= len(data[band]) {
			log.Warn("could not determine breakpoint observation", "break", seg.Break)
			continue
		}
		out.Dates = append(out.Dates, imagery.FromOrdinal(seg.Break))
		out.Values = append(out.Values, data[band][idx])
	}
	return out
}

// Residuals returns observed minus predicted values per segment, evaluated
// at the observed dates covered by each segment's validity interval.
// Segments covering none of the observed dates contribute nothing.
func Residuals(segments []Segment, band int, dates []int, values []float64, design Design) []Curve {
	observed := make(map[int]float64, len(dates))
	for i, d := range dates {
		observed[d] = values[i]
	}

	curves := Predict(segments, band, design, dates)
	out := make([]Curve, 0, len(curves))
	for _, c := range curves {
		resid := Curve{
			Dates:  c.Dates,
			Values: make([]float64, len(c.Values)),
		}
		for i, d := range c.Dates {
			ord := imagery.ToOrdinal(d)
			resid.Values[i] = observed[ord] - c.Values[i]
		}
		out = append(out, resid)
	}
	return out
}
