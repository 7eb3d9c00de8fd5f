package imagery

import (
	"errors"
	"fmt"

	"github.com/airbusgeo/godal"
)

// RasterOpenError names the first raster file that could not be opened or
// that disagrees with the rest of the stack.
type RasterOpenError struct {
	Path string
	Err  error
}

func (e *RasterOpenError) Error() string {
	return fmt.Sprintf("cannot open raster %s: %v", e.Path, e.Err)
}

func (e *RasterOpenError) Unwrap() error { return e.Err }

// OutOfBoundsError reports a pixel read outside the raster's dimensions.
type OutOfBoundsError struct {
	Col    int
	Row    int
	Width  int
	Height int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("pixel %d/%d outside of dataset (%dx%d)", e.Col, e.Row, e.Width, e.Height)
}

var errInconsistent = errors.New("raster structure differs from first image in stack")

// StackReader holds one open GDAL dataset per imagery date so that repeated
// per-pixel reads never reopen files. Handles stay open until Close.
type StackReader struct {
	paths    []string
	datasets []*godal.Dataset
	bands    [][]godal.Band

	width  int
	height int
	nBands int
	gt     [6]float64
	crs    string
}

// OpenStack opens every path once and verifies that all rasters share the
// same width, height and band count. The first unopenable or mismatched
// file is reported through *RasterOpenError.
func OpenStack(paths []string) (*StackReader, error) {
	if len(paths) == 0 {
		return nil, errors.New("cannot open a stack of 0 images")
	}

	r := &StackReader{paths: paths}
	quiet := godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec <= godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("%s", msg)
	})

	for i, p := range paths {
		ds, err := godal.Open(p, quiet)
		if err != nil {
			r.Close()
			return nil, &RasterOpenError{Path: p, Err: err}
		}
		st := ds.Structure()
		bands := ds.Bands()

		if i == 0 {
			r.width = st.SizeX
			r.height = st.SizeY
			r.nBands = len(bands)

			gt, err := ds.GeoTransform()
			if err != nil {
				ds.Close()
				r.Close()
				return nil, &RasterOpenError{Path: p, Err: fmt.Errorf("no geotransform: %w", err)}
			}
			r.gt = gt

			if sr := ds.SpatialRef(); sr != nil {
				crs, err := sr.WKT()
				if err == nil {
					r.crs = crs
				}
				sr.Close()
			}
		} else if st.SizeX != r.width || st.SizeY != r.height || len(bands) != r.nBands {
			ds.Close()
			r.Close()
			return nil, &RasterOpenError{Path: p, Err: errInconsistent}
		}

		r.datasets = append(r.datasets, ds)
		r.bands = append(r.bands, bands)
	}
	return r, nil
}

// Width returns the raster width shared by every image in the stack.
func (r *StackReader) Width() int { return r.width }

// Height returns the shared raster height.
func (r *StackReader) Height() int { return r.height }

// NumBands returns the per-image band count.
func (r *StackReader) NumBands() int { return r.nBands }

// NumImages returns how many imagery dates are open.
func (r *StackReader) NumImages() int { return len(r.datasets) }

// GeoTransform returns the affine geotransform of the first image.
func (r *StackReader) GeoTransform() [6]float64 { return r.gt }

// Projection returns the CRS of the stack as well-known text.
func (r *StackReader) Projection() string { return r.crs }

func (r *StackReader) checkBounds(col, row int) error {
	if col < 0 || row < 0 || col >= r.width || row >= r.height {
		return &OutOfBoundsError{Col: col, Row: row, Width: r.width, Height: r.height}
	}
	return nil
}

// ReadPixel returns the value of every band at col/row for image i.
func (r *StackReader) ReadPixel(i, col, row int) ([]float64, error) {
	if i < 0 || i >= len(r.datasets) {
		return nil, fmt.Errorf("image index %d out of range (%d images)", i, len(r.datasets))
	}
	if err := r.checkBounds(col, row); err != nil {
		return nil, err
	}

	vals := make([]float64, r.nBands)
	buf := make([]float64, 1)
	for bi := range r.bands[i] {
		if err := r.bands[i][bi].Read(col, row, buf, 1, 1); err != nil {
			return nil, fmt.Errorf("failed to read band %d of %s: %w", bi+1, r.paths[i], err)
		}
		vals[bi] = buf[0]
	}
	return vals, nil
}

// ReadPixelSeries returns the full band x image matrix at col/row, images in
// the same order the stack was opened with.
func (r *StackReader) ReadPixelSeries(col, row int) ([][]float64, error) {
	if err := r.checkBounds(col, row); err != nil {
		return nil, err
	}

	out := make([][]float64, r.nBands)
	for b := range out {
		out[b] = make([]float64, len(r.datasets))
	}
	for i := range r.datasets {
		vals, err := r.ReadPixel(i, col, row)
		if err != nil {
			return nil, err
		}
		for b, v := range vals {
			out[b][i] = v
		}
	}
	return out, nil
}

// ReadRow returns all bands of one full raster row for image i, indexed
// [band][col].
func (r *StackReader) ReadRow(i, row int) ([][]float64, error) {
	if i < 0 || i >= len(r.datasets) {
		return nil, fmt.Errorf("image index %d out of range (%d images)", i, len(r.datasets))
	}
	if row < 0 || row >= r.height {
		return nil, &OutOfBoundsError{Col: 0, Row: row, Width: r.width, Height: r.height}
	}

	out := make([][]float64, r.nBands)
	for bi := range r.bands[i] {
		buf := make([]float64, r.width)
		if err := r.bands[i][bi].Read(0, row, buf, r.width, 1); err != nil {
			return nil, fmt.Errorf("failed to read row %d band %d of %s: %w", row, bi+1, r.paths[i], err)
		}
		out[bi] = buf
	}
	return out, nil
}

// Close releases every file handle held by the stack.
func (r *StackReader) Close() error {
	var first error
	for _, ds := range r.datasets {
		if ds == nil {
			continue
		}
		if err := ds.Close(); err != nil && first == nil {
			first = err
		}
	}
	r.datasets = nil
	r.bands = nil
	return first
}
