package driver

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/terravue/terravue-pixel-poc/internal/model"
)

func init() {
	Register("ccdc", func(location string, overrides map[string]any) (Driver, error) {
		return NewCCDCDriver(location, overrides)
	})
}

func defaultCCDCConfig() *Config {
	return defaultStackedConfig().
		Add("results_folder", "Results folder", "TSFitMap").
		Add("results_pattern", "Results pattern", "record_change_*.json")
}

// CCDCDriver reads precomputed change detection results stored as one
// record file per raster row, keyed by single-index pixel position.
type CCDCDriver struct {
	*StackedDriver

	design     model.Design
	results    []model.Segment
	hasResults bool
}

// NewCCDCDriver opens a stacked timeseries whose dataset also carries saved
// change detection records.
func NewCCDCDriver(location string, overrides map[string]any) (*CCDCDriver, error) {
	sd, err := newStacked(location, overrides, defaultCCDCConfig(), "Saved change detection results")
	if err != nil {
		return nil, err
	}
	d := &CCDCDriver{
		StackedDriver: sd,
		design:        model.SavedDesign(),
	}
	sd.onFetchComplete = func() {
		d.results = nil
		d.hasResults = false
	}
	return d, nil
}

// FetchResults loads the saved segments covering the current pixel. A
// missing record file yields zero segments, not an error.
func (d *CCDCDriver) FetchResults() error {
	s := d.series[0]
	dir := filepath.Join(d.location, d.config.String("results_folder"))
	segments, err := model.LoadSegments(dir, d.config.String("results_pattern"), s.Py, s.Px, s.Width())
	if err != nil {
		return err
	}
	d.results = segments
	d.hasResults = true
	log.Debug("loaded saved results", "segments", len(segments), "row", s.Py, "col", s.Px)
	return nil
}

// HasResults reports whether results were loaded for the current pixel.
func (d *CCDCDriver) HasResults() bool { return d.hasResults }

// Results returns the current pixel's segments.
func (d *CCDCDriver) Results() []model.Segment { return d.results }

// GetPrediction evaluates each segment's model curve for one band. Non-nil
// dates restricts evaluation to those ordinal dates.
func (d *CCDCDriver) GetPrediction(seriesIdx, band int, dates []int) ([]model.Curve, error) {
	if err := d.checkSeries(seriesIdx); err != nil {
		return nil, err
	}
	return model.Predict(d.results, band, d.design, dates), nil
}

// GetBreaks pairs each detected break with the observed value at the break
// date.
func (d *CCDCDriver) GetBreaks(seriesIdx, band int) (model.Points, error) {
	if err := d.checkSeries(seriesIdx); err != nil {
		return model.Points{}, err
	}
	s := d.series[seriesIdx]
	return model.Breaks(d.results, band, s.Images, s.Data), nil
}

// GetResiduals returns observed minus predicted values per segment at the
// masked observation dates.
func (d *CCDCDriver) GetResiduals(seriesIdx, band int) ([]model.Curve, error) {
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

func (d *CCDCDriver) checkSeries(seriesIdx int) error {
	if seriesIdx < 0 || seriesIdx >= len(d.series) {
		return fmt.Errorf("series index %d out of range (%d series)", seriesIdx, len(d.series))
	}
	return nil
}
