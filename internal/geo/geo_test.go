package geo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testGT = [6]float64{1000, 30, 0, 2000, 0, -30}

func TestPointToPixelTruncates(t *testing.T) {
	col, row := PointToPixel(1095.9, 1910.1, testGT)
	require.Equal(t, 3, col)
	require.Equal(t, 2, row)
}

func TestPointToPixelUpperLeftCorner(t *testing.T) {
	col, row := PointToPixel(1000, 2000, testGT)
	require.Equal(t, 0, col)
	require.Equal(t, 0, row)
}

func TestPixelToPointRoundTrip(t *testing.T) {
	x, y := PixelToPoint(testGT, 4, 7)
	require.Equal(t, 1120.0, x)
	require.Equal(t, 1790.0, y)

	col, row := PointToPixel(x+1, y-1, testGT)
	require.Equal(t, 4, col)
	require.Equal(t, 7, row)
}

func TestReprojectPointIdentity(t *testing.T) {
	crs := `PROJCS["fake"]`
	x, y, err := ReprojectPoint(512000, 4.5e6, crs, crs)
	require.NoError(t, err)
	require.Equal(t, 512000.0, x)
	require.Equal(t, 4.5e6, y)
}

func TestPixelGeometryIsClosedRing(t *testing.T) {
	poly := PixelGeometry(testGT, 2, 3)
	require.Len(t, poly, 1)

	ring := poly[0]
	require.Len(t, ring, 5)
	require.Equal(t, ring[0], ring[4])

	// Upper-left and lower-right corners of pixel 2/3.
	require.Equal(t, 1060.0, ring[0][0])
	require.Equal(t, 1910.0, ring[0][1])
	require.Equal(t, 1090.0, ring[2][0])
	require.Equal(t, 1880.0, ring[2][1])
}

func TestPixelGeometryWKT(t *testing.T) {
	require.Contains(t, PixelGeometryWKT(testGT, 0, 0), "POLYGON")
}
