// Package driver composes image discovery, pixel reading, caching and the
// change-model layer into named time-series drivers behind one polymorphic
// contract, so callers never special-case a driver type.
package driver

import (
	"errors"
	"sort"
	"sync"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
	"github.com/terravue/terravue-pixel-poc/internal/model"
	"github.com/terravue/terravue-pixel-poc/internal/series"
)

// ErrBusy is returned when a fetch is started while another one is still in
// flight; series data is shared mutable state with no internal locking.
var ErrBusy = errors.New("a fetch is already in progress")

// Driver is the contract every concrete time-series driver satisfies.
type Driver interface {
	// Description names the driver variant for display.
	Description() string

	Location() string
	// Series returns the driver's series in declaration order.
	Series() []*series.Series
	// FetchData starts retrieving all series data for the pixel under the
	// given map coordinate, returning a progress iterator.
	FetchData(mx, my float64, crsWKT string) (*Fetch, error)
	// FetchResults reads or computes model segments for the current pixel.
	FetchResults() error
	// HasResults reports whether this driver supports model results at all.
	HasResults() bool
	// Results returns the segments from the most recent FetchResults.
	Results() []model.Segment
	// GetData returns dates and values of one band, optionally masked and
	// subset; the filters compose by intersection.
	GetData(seriesIdx, band int, masked bool, indices []int) ([]imagery.ImageRecord, []float64, error)
	// GetPrediction evaluates the model curve per segment.
	GetPrediction(seriesIdx, band int, dates []int) ([]model.Curve, error)
	// GetBreaks pairs model break dates with observed values.
	GetBreaks(seriesIdx, band int) (model.Points, error)
	// GetResiduals returns observed minus predicted per segment.
	GetResiduals(seriesIdx, band int) ([]model.Curve, error)
	// GetGeometry returns the current pixel's footprint and CRS as WKT.
	GetGeometry() (geomWKT, crsWKT string, err error)
	// PixelPos is a human-readable description of the current pixel.
	PixelPos() string
	// Config exposes the driver's configuration surface.
	Config() *Config
	// Close releases raster handles; the driver is unusable afterwards.
	Close() error
}

// Factory builds a driver rooted at a dataset location, with configuration
// overrides applied before discovery.
type Factory func(location string, overrides map[string]any) (Driver, error)

var (
	registryMu sync.Mutex
	registry   = make(map[string]Factory)
)

// Register adds a driver factory under a name. Drivers register themselves
// from init functions; registering a duplicate name panics.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("driver: Register called twice for " + name)
	}
	registry[name] = factory
}

// New constructs a registered driver by name.
func New(name, location string, overrides map[string]any) (Driver, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, errors.New("unknown driver " + name)
	}
	return factory(location, overrides)
}

// Names lists the registered driver names, sorted.
func Names() []string {
	registryMu.Lock()
	defer registryMu.Unlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
