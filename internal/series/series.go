// Package series groups a homogeneous stack of same-geometry rasters into
// one named time series, holding the per-pixel data matrix and observation
// mask for the currently fetched pixel.
package series

import (
	"errors"
	"fmt"

	"github.com/terravue/terravue-pixel-poc/internal/geo"
	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

// Options carries the cosmetic and cache settings of a Series.
type Options struct {
	Description     string
	BandNames       []string
	SymbologyBands  [3]int
	SymbologyMin    float64
	SymbologyMax    float64
	CachePrefix     string
	CacheSuffix     string
}

// Series is one homogeneous raster stack. Data is the band x image matrix
// for the currently fetched pixel and is fully overwritten by every
// completed fetch; Mask marks which observations to keep.
type Series struct {
	Description string
	BandNames   []string
	Images      []imagery.ImageRecord

	Data [][]float64
	Mask []bool

	SymbologyBands [3]int
	SymbologyMin   float64
	SymbologyMax   float64

	CachePrefix string
	CacheSuffix string

	// Current pixel position, set by the most recent fetch.
	Px int
	Py int

	reader *imagery.StackReader
}

// New indexes the given image paths, opens the whole stack and initializes
// an all-zero data matrix and an all-true mask. Every mutable field is
// assigned here, never shared between instances.
func New(paths []string, date imagery.DateSpec, opts Options) (*Series, error) {
	if len(paths) == 0 {
		return nil, errors.New("cannot initialize a series of 0 images")
	}

	records, err := imagery.NewIndex(paths, date)
	if err != nil {
		return nil, err
	}

	reader, err := imagery.OpenStack(imagery.Paths(records))
	if err != nil {
		return nil, err
	}

	s := &Series{
		Description:    opts.Description,
		Images:         records,
		SymbologyBands: opts.SymbologyBands,
		SymbologyMin:   opts.SymbologyMin,
		SymbologyMax:   opts.SymbologyMax,
		CachePrefix:    opts.CachePrefix,
		CacheSuffix:    opts.CacheSuffix,
		reader:         reader,
	}
	if s.Description == "" {
		s.Description = "Stacked series"
	}

	s.BandNames = opts.BandNames
	if len(s.BandNames) == 0 {
		s.BandNames = make([]string, reader.NumBands())
		for i := range s.BandNames {
			s.BandNames[i] = fmt.Sprintf("Band %d", i+1)
		}
	} else if len(s.BandNames) != reader.NumBands() {
		reader.Close()
		return nil, fmt.Errorf("%d band names supplied for %d bands", len(s.BandNames), reader.NumBands())
	}

	s.Data = make([][]float64, reader.NumBands())
	for b := range s.Data {
		s.Data[b] = make([]float64, len(records))
	}
	s.Mask = make([]bool, len(records))
	for i := range s.Mask {
		s.Mask[i] = true
	}

	return s, nil
}

// NumImages returns how many imagery dates the series holds.
func (s *Series) NumImages() int { return len(s.Images) }

// NumBands returns the per-image band count.
func (s *Series) NumBands() int { return s.reader.NumBands() }

// Width returns the raster width shared by the stack.
func (s *Series) Width() int { return s.reader.Width() }

// Height returns the shared raster height.
func (s *Series) Height() int { return s.reader.Height() }

// GeoTransform returns the stack's affine geotransform.
func (s *Series) GeoTransform() [6]float64 { return s.reader.GeoTransform() }

// Projection returns the stack's CRS as well-known text.
func (s *Series) Projection() string { return s.reader.Projection() }

// Reader exposes the open stack reader, e.g. for cache warming.
func (s *Series) Reader() *imagery.StackReader { return s.reader }

// ImageIDs returns the image ID sequence in record order, the invalidation
// key for cache entries.
func (s *Series) ImageIDs() []string { return imagery.IDs(s.Images) }

// Ordinals returns the ordinal date of each image in record order.
func (s *Series) Ordinals() []int {
	out := make([]int, len(s.Images))
	for i, img := range s.Images {
		out[i] = img.Ordinal
	}
	return out
}

// Geometry returns the footprint of the current pixel and the series CRS,
// both as well-known text.
func (s *Series) Geometry() (geomWKT, crsWKT string) {
	return geo.PixelGeometryWKT(s.GeoTransform(), s.Px, s.Py), s.Projection()
}

// ApplyMask recomputes the observation mask: an observation is kept unless
// the mask band's value is a member of maskValues. maskBand is 1-based; a
// series with no mask band (maskBand <= 0) is fully unmasked.
func (s *Series) ApplyMask(maskBand int, maskValues []float64) {
	if maskBand <= 0 || maskBand > len(s.Data) {
		for i := range s.Mask {
			s.Mask[i] = true
		}
		return
	}

	masked := make(map[float64]bool, len(maskValues))
	for _, v := range maskValues {
		masked[v] = true
	}
	for i, v := range s.Data[maskBand-1] {
		s.Mask[i] = !masked[v]
	}
}

// GetData returns the image records and values of one band. With masked
// set, observations failing the mask are dropped; indices further restricts
// the result to the given observation indices. The two filters compose by
// intersection.
func (s *Series) GetData(band int, masked bool, indices []int) ([]imagery.ImageRecord, []float64, error) {
	if band < 0 || band >= len(s.Data) {
		return nil, nil, fmt.Errorf("band %d out of range (%d bands)", band, len(s.Data))
	}

	var keep []int
	if indices != nil {
		for _, i := range indices {
			if i < 0 || i >= len(s.Images) {
				return nil, nil, fmt.Errorf("observation index %d out of range (%d images)", i, len(s.Images))
			}
			if masked && !s.Mask[i] {
				continue
			}
			keep = append(keep, i)
		}
	} else {
		for i := range s.Images {
			if masked && !s.Mask[i] {
				continue
			}
			keep = append(keep, i)
		}
	}

	images := make([]imagery.ImageRecord, len(keep))
	values := make([]float64, len(keep))
	for j, i := range keep {
		images[j] = s.Images[i]
		values[j] = s.Data[band][i]
	}
	return images, values, nil
}

// Close releases the series' raster handles.
func (s *Series) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	return err
}
