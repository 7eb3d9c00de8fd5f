package driver

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/terravue/terravue-pixel-poc/internal/model"
)

func init() {
	Register("live", func(location string, overrides map[string]any) (Driver, error) {
		return NewLiveDriver(location, overrides)
	})
}

func defaultLiveConfig() *Config {
	return defaultStackedConfig().
		Add("consecutive", "Consecutive", 5).
		Add("min_obs", "Min obs", 16).
		Add("threshold", "Threshold", 4.0).
		Add("test_bands", "Test bands", []int{2, 3, 4}).
		Add("min_rmse", "Min RMSE", 100.0).
		Add("harmonics", "Harmonic frequencies", []int{1}).
		Add("period", "Harmonic period", 365.25).
		Add("reverse", "Run in reverse", false).
		Add("regression", "Regression type", "lasso").
		Add("min_values", "Min data values", []float64{0}).
		Add("max_values", "Max data values", []float64{10000})
}

// LiveDriver fits the change model on demand for the current pixel instead
// of reading precomputed records. The mask band is expected to be the last
// band of the stack and is excluded from fitting.
type LiveDriver struct {
	*StackedDriver

	design     model.Design
	results    []model.Segment
	hasResults bool
}

// NewLiveDriver opens a stacked timeseries for on-demand change detection.
func NewLiveDriver(location string, overrides map[string]any) (*LiveDriver, error) {
	sd, err := newStacked(location, overrides, defaultLiveConfig(), "Live change detection")
	if err != nil {
		return nil, err
	}
	d := &LiveDriver{StackedDriver: sd}
	d.design = model.Design{
		Trend:     true,
		Harmonics: sd.config.Ints("harmonics"),
		Period:    sd.config.Float("period"),
	}
	sd.onFetchComplete = func() {
		d.results = nil
		d.hasResults = false
	}
	return d, nil
}

// FetchResults fits the change model over the clear observations of the
// current pixel. Too few clear observations yield zero segments, which is a
// normal outcome rather than an error.
func (d *LiveDriver) FetchResults() error {
	s := d.series[0]

	clear := d.clearObservations()
	var dates []int
	for i, ok := range clear {
		if ok {
			dates = append(dates, s.Images[i].Ordinal)
		}
	}

	nBands := len(s.Data)
	maskBands := d.config.Ints("mask_band")
	maskRow := -1
	if len(maskBands) > 0 && maskBands[0] >= 1 && maskBands[0] <= nBands {
		maskRow = maskBands[0] - 1
	}

	var Y [][]float64
	for b := 0; b < nBands; b++ {
		if b == maskRow {
			continue
		}
		row := make([]float64, 0, len(dates))
		for i, ok := range clear {
			if ok {
				row = append(row, s.Data[b][i])
			}
		}
		Y = append(Y, row)
	}

	var fitter model.SegmentFitter
	switch reg := d.config.String("regression"); reg {
	case "lasso":
		fitter = model.NewLassoFitter()
	case "ols":
		fitter = model.OLSFitter{}
	default:
		return fmt.Errorf("unknown regression type %q", reg)
	}

	segments, err := model.FitSegments(dates, Y, d.design, model.FitParams{
		MinObs:      d.config.Int("min_obs"),
		Consecutive: d.config.Int("consecutive"),
		Threshold:   d.config.Float("threshold"),
		TestBands:   d.config.Ints("test_bands"),
		MinRMSE:     d.config.Float("min_rmse"),
		Reverse:     d.config.Bool("reverse"),
		Fitter:      fitter,
	})
	if err != nil {
		return err
	}
	d.results = segments
	d.hasResults = true
	log.Debug("fit live results", "segments", len(segments), "observations", len(dates))
	return nil
}

// clearObservations intersects the series mask with the per-band valid data
// range. A single min/max value broadcasts over every band.
func (d *LiveDriver) clearObservations() []bool {
	s := d.series[0]
	minVals := d.config.Floats("min_values")
	maxVals := d.config.Floats("max_values")
	bound := func(vals []float64, b int) (float64, bool) {
		if len(vals) == 1 {
			return vals[0], true
		}
		if b < len(vals) {
			return vals[b], true
		}
		return 0, false
	}

	maskBands := d.config.Ints("mask_band")
	maskRow := -1
	if len(maskBands) > 0 {
		maskRow = maskBands[0] - 1
	}

	clear := make([]bool, len(s.Mask))
	copy(clear, s.Mask)
	for b := range s.Data {
		if b == maskRow {
			continue
		}
		lo, hasLo := bound(minVals, b)
		hi, hasHi := bound(maxVals, b)
		for i, v := range s.Data[b] {
			if hasLo && v < lo {
				clear[i] = false
			}
			if hasHi && v > hi {
				clear[i] = false
			}
		}
	}
	return clear
}

// HasResults reports whether the model was fit for the current pixel.
func (d *LiveDriver) HasResults() bool { return d.hasResults }

// Results returns the current pixel's segments.
func (d *LiveDriver) Results() []model.Segment { return d.results }

// GetPrediction evaluates each segment's model curve for one band.
func (d *LiveDriver) GetPrediction(seriesIdx, band int, dates []int) ([]model.Curve, error) {
	if err := d.checkSeries(seriesIdx); err != nil {
		return nil, err
	}
	return model.Predict(d.results, band, d.design, dates), nil
}

// GetBreaks pairs each detected break with the observed value at the break
// date.
func (d *LiveDriver) GetBreaks(seriesIdx, band int) (model.Points, error) {
	if err := d.checkSeries(seriesIdx); err != nil {
		return model.Points{}, err
	}
	s := d.series[seriesIdx]
	return model.Breaks(d.results, band, s.Images, s.Data), nil
}

// GetResiduals returns observed minus predicted values per segment at the
// masked observation dates.
func (d *LiveDriver) GetResiduals(seriesIdx, band int) ([]model.Curve, error) {
	if err := d.checkSeries(seriesIdx); err != nil {
		return nil, err
	}
	records, values, err := d.series[seriesIdx].GetData(band, true, nil)
	if err != nil {
		return nil, err
	}
	dates := make([]int, len(records))
	for i, r := range records {
		dates[i] = r.Ordinal
	}
	return model.Residuals(d.results, band, dates, values, d.design), nil
}

func (d *LiveDriver) checkSeries(seriesIdx int) error {
	if seriesIdx < 0 || seriesIdx >= len(d.series) {
		return fmt.Errorf("series index %d out of range (%d series)", seriesIdx, len(d.series))
	}
	return nil
}
