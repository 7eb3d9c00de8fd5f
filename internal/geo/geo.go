// Package geo converts between map coordinates, pixel coordinates and
// coordinate reference systems.
package geo

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ReprojectionError reports a coordinate transform that could not be built
// or applied between two CRS descriptions.
type ReprojectionError struct {
	From string
	To   string
	Err  error
}

func (e *ReprojectionError) Error() string {
	return fmt.Sprintf("cannot reproject point between CRS definitions: %v", e.Err)
}

func (e *ReprojectionError) Unwrap() error { return e.Err }

// PointToPixel converts a map coordinate to column/row pixel indices using
// the inverse of a 6-parameter affine geotransform.
//
// Rotated or skewed rasters (gt[2] or gt[4] nonzero) are not handled; the
// result is undefined for them. Indices are truncated toward zero.
func PointToPixel(x, y float64, gt [6]float64) (col, row int) {
	col = int((x - gt[0]) / gt[1])
	row = int((y - gt[3]) / gt[5])
	return col, row
}

// PixelToPoint returns the map coordinate of the upper-left corner of the
// pixel at col/row.
func PixelToPoint(gt [6]float64, col, row int) (x, y float64) {
	x = gt[0] + gt[1]*float64(col) + gt[2]*float64(row)
	y = gt[3] + gt[4]*float64(col) + gt[5]*float64(row)
	return x, y
}

// ReprojectPoint transforms a single point between two coordinate reference
// systems given as well-known text. A *ReprojectionError is returned when
// either CRS cannot be parsed or no transform path exists.
func ReprojectPoint(x, y float64, fromWKT, toWKT string) (float64, float64, error) {
	if fromWKT == toWKT {
		return x, y, nil
	}

	src, err := godal.NewSpatialRefFromWKT(fromWKT)
	if err != nil {
		return 0, 0, &ReprojectionError{From: fromWKT, To: toWKT, Err: fmt.Errorf("source CRS: %w", err)}
	}
	defer src.Close()

	dst, err := godal.NewSpatialRefFromWKT(toWKT)
	if err != nil {
		return 0, 0, &ReprojectionError{From: fromWKT, To: toWKT, Err: fmt.Errorf("target CRS: %w", err)}
	}
	defer dst.Close()

	tr, err := godal.NewTransform(src, dst)
	if err != nil {
		return 0, 0, &ReprojectionError{From: fromWKT, To: toWKT, Err: err}
	}
	defer tr.Close()

	xs := []float64{x}
	ys := []float64{y}
	if err := tr.TransformEx(xs, ys, nil, nil); err != nil {
		return 0, 0, &ReprojectionError{From: fromWKT, To: toWKT, Err: err}
	}

	return xs[0], ys[0], nil
}

// PixelGeometry returns the rectangular footprint of the pixel at col/row as
// a closed 5-vertex ring in the raster's native CRS.
func PixelGeometry(gt [6]float64, col, row int) orb.Polygon {
	ulx, uly := PixelToPoint(gt, col, row)
	lrx, lry := PixelToPoint(gt, col+1, row+1)

	ring := orb.Ring{
		{ulx, uly},
		{lrx, uly},
		{lrx, lry},
		{ulx, lry},
		{ulx, uly},
	}
	return orb.Polygon{ring}
}

// PixelGeometryWKT is PixelGeometry rendered as well-known text.
func PixelGeometryWKT(gt [6]float64, col, row int) string {
	return wkt.MarshalString(PixelGeometry(gt, col, row))
}
