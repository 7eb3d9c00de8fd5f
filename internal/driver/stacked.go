package driver

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/terravue/terravue-pixel-poc/internal/geo"
	"github.com/terravue/terravue-pixel-poc/internal/imagery"
	"github.com/terravue/terravue-pixel-poc/internal/model"
	"github.com/terravue/terravue-pixel-poc/internal/pixelcache"
	"github.com/terravue/terravue-pixel-poc/internal/series"
)

func init() {
	Register("stacked", func(location string, overrides map[string]any) (Driver, error) {
		return NewStackedDriver(location, overrides)
	})
}

func defaultStackedConfig() *Config {
	return NewConfig().
		Add("stack_pattern", "Stack pattern", "L*stack").
		Add("date_index", "Index of date in ID", []int{9, 16}).
		Add("date_format", "Date format", "2006002").
		Add("cache_folder", "Cache folder", "cache").
		Add("mask_band", "Mask band", []int{8}).
		Add("mask_values", "Mask values", []float64{2, 3, 4, 255})
}

// StackedDriver reads a "layer stacked" timeseries: every image shares the
// same bands, extent and geometry, one raster file per acquisition date. It
// carries no model results; result-capable drivers build on it.
type StackedDriver struct {
	description string
	location    string
	config      *Config
	series      []*series.Series

	cacheDir   string
	readCache  bool
	writeCache bool

	pixelPos string
	busy     atomic.Bool

	// onFetchComplete lets result-capable drivers invalidate their model
	// state when a new pixel arrives.
	onFetchComplete func()
}

// NewStackedDriver discovers imagery under location and opens the stack.
// Discovery and configuration failures are fatal: the driver is never left
// partially initialized.
func NewStackedDriver(location string, overrides map[string]any) (*StackedDriver, error) {
	return newStacked(location, overrides, defaultStackedConfig(), "Layer stacked timeseries")
}

func newStacked(location string, overrides map[string]any, cfg *Config, description string) (*StackedDriver, error) {
	if err := cfg.Apply(overrides); err != nil {
		return nil, err
	}

	ignore := []string{cfg.String("cache_folder")}
	if rf := cfg.String("results_folder"); rf != "" {
		ignore = append(ignore, rf)
	}

	paths, err := imagery.Discover(location, cfg.String("stack_pattern"), ignore, -1)
	if err != nil {
		return nil, err
	}

	idx := cfg.Ints("date_index")
	if len(idx) != 2 {
		return nil, fmt.Errorf("option date_index must hold exactly 2 values, got %d", len(idx))
	}

	s, err := series.New(paths,
		imagery.DateSpec{Start: idx[0], End: idx[1], Format: cfg.String("date_format")},
		series.Options{
			Description:    "Stacked series",
			SymbologyBands: [3]int{3, 2, 1},
			SymbologyMin:   0,
			SymbologyMax:   10000,
		})
	if err != nil {
		return nil, err
	}

	d := &StackedDriver{
		description: description,
		location:    location,
		config:      cfg,
		series:      []*series.Series{s},
		cacheDir:    filepath.Join(location, cfg.String("cache_folder")),
	}
	d.readCache, d.writeCache = pixelcache.Probe(d.cacheDir)
	log.Debug("initialized driver", "description", description, "images", s.NumImages(),
		"readCache", d.readCache, "writeCache", d.writeCache)
	return d, nil
}

// Description names the driver variant.
func (d *StackedDriver) Description() string { return d.description }

// Location returns the dataset root directory.
func (d *StackedDriver) Location() string { return d.location }

// Series returns the driver's series.
func (d *StackedDriver) Series() []*series.Series { return d.series }

// Config exposes the driver's configuration surface.
func (d *StackedDriver) Config() *Config { return d.config }

// PixelPos describes the most recently fetched pixel position.
func (d *StackedDriver) PixelPos() string { return d.pixelPos }

// FetchData starts a retrieval for the pixel under map coordinate mx/my
// expressed in the given CRS. Only one retrieval may be in flight; a second
// call while busy returns ErrBusy.
func (d *StackedDriver) FetchData(mx, my float64, crsWKT string) (*Fetch, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	fetch := &Fetch{release: func() { d.busy.Store(false) }}

	type position struct {
		desc   string
		rowcol string
	}
	var positions []position

	for _, s := range d.series {
		x, y, err := geo.ReprojectPoint(mx, my, crsWKT, s.Projection())
		if err != nil {
			d.busy.Store(false)
			return nil, err
		}
		col, row := geo.PointToPixel(x, y, s.GeoTransform())

		sf, err := s.StartFetch(col, row, d.cacheDir, d.readCache, d.writeCache)
		if err != nil {
			d.busy.Store(false)
			return nil, err
		}
		fetch.fetches = append(fetch.fetches, sf)
		fetch.total += s.NumImages()
		positions = append(positions, position{s.Description, fmt.Sprintf("%d/%d", row, col)})
	}

	fetch.complete = func() {
		// Collapse series sharing the same row/col into one entry.
		var entries []string
		seen := map[string][]string{}
		var order []string
		for _, p := range positions {
			if _, ok := seen[p.rowcol]; !ok {
				order = append(order, p.rowcol)
			}
			seen[p.rowcol] = append(seen[p.rowcol], p.desc)
		}
		for _, rowcol := range order {
			entries = append(entries, strings.Join(seen[rowcol], "/")+" - "+rowcol)
		}
		d.pixelPos = "Row/Col: " + strings.Join(entries, "; ")

		d.UpdateMask(nil)
		if d.onFetchComplete != nil {
			d.onFetchComplete()
		}
	}
	return fetch, nil
}

// UpdateMask recomputes every series' observation mask. With nil
// maskValues the configured mask values are used.
func (d *StackedDriver) UpdateMask(maskValues []float64) {
	if maskValues == nil {
		maskValues = d.config.Floats("mask_values")
	}
	maskBands := d.config.Ints("mask_band")
	for i, s := range d.series {
		band := 0
		if i < len(maskBands) {
			band = maskBands[i]
		}
		s.ApplyMask(band, maskValues)
	}
}

// GetData returns dates and values of one band of one series, filtered by
// the observation mask intersected with the optional index subset.
func (d *StackedDriver) GetData(seriesIdx, band int, masked bool, indices []int) ([]imagery.ImageRecord, []float64, error) {
	if seriesIdx < 0 || seriesIdx >= len(d.series) {
		return nil, nil, fmt.Errorf("series index %d out of range (%d series)", seriesIdx, len(d.series))
	}
	return d.series[seriesIdx].GetData(band, masked, indices)
}

// FetchResults is a no-op: a plain stacked driver has no model layer.
func (d *StackedDriver) FetchResults() error { return nil }

// HasResults reports that this driver variant carries no model results.
func (d *StackedDriver) HasResults() bool { return false }

// Results returns the current pixel's model segments; always nil here.
func (d *StackedDriver) Results() []model.Segment { return nil }

// GetPrediction returns no curves: there is no model to evaluate.
func (d *StackedDriver) GetPrediction(seriesIdx, band int, dates []int) ([]model.Curve, error) {
	return nil, nil
}

// GetBreaks returns no break points.
func (d *StackedDriver) GetBreaks(seriesIdx, band int) (model.Points, error) {
	return model.Points{}, nil
}

// GetResiduals returns no residual curves.
func (d *StackedDriver) GetResiduals(seriesIdx, band int) ([]model.Curve, error) {
	return nil, nil
}

// GetGeometry returns the current pixel's footprint and the CRS of the
// first series, both as well-known text.
func (d *StackedDriver) GetGeometry() (string, string, error) {
	if len(d.series) == 0 {
		return "", "", fmt.Errorf("driver has no series")
	}
	geom, crs := d.series[0].Geometry()
	return geom, crs, nil
}

// WarmRowCache reads one full raster row across every series and persists
// row-level cache entries so later fetches on that row hit the cache.
func (d *StackedDriver) WarmRowCache(row int) error {
	if !d.writeCache {
		return fmt.Errorf("cache directory %s is not writable", d.cacheDir)
	}
	for _, s := range d.series {
		if err := pixelcache.WarmRow(d.cacheDir, row, s.Reader(), s.ImageIDs(), s.CachePrefix, s.CacheSuffix); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every series' raster handles.
func (d *StackedDriver) Close() error {
	var first error
	for _, s := range d.series {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
