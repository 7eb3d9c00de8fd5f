package driver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/require"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
	"github.com/terravue/terravue-pixel-poc/internal/pixelcache"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

// imageID builds a Landsat-style ID carrying the i-th weekly date of 1997.
func imageID(i int) string {
	date := time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
	return "LT5022033" + date.Format("2006002")
}

func writeStack(t *testing.T, root, id string, width, height int, bandVals []float64) string {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, id+"_stack")

	ds, err := godal.Create(godal.GTiff, path, len(bandVals), godal.Float64, width, height)
	require.NoError(t, err)
	require.NoError(t, ds.SetGeoTransform([6]float64{1000, 30, 0, 2000, 0, -30}))
	for b, band := range ds.Bands() {
		buf := make([]float64, width*height)
		for j := range buf {
			buf[j] = bandVals[b]
		}
		require.NoError(t, band.Write(0, 0, buf, width, height))
	}
	require.NoError(t, ds.Close())
	return path
}

// newDataset builds a location with n constant-valued images; value decides
// the value of band b in image i.
func newDataset(t *testing.T, n, width, height, nBands int, value func(i, b int) float64) string {
	t.Helper()
	root := t.TempDir()
	for i := 0; i < n; i++ {
		vals := make([]float64, nBands)
		for b := range vals {
			vals[b] = value(i, b)
		}
		writeStack(t, root, imageID(i), width, height, vals)
	}
	return root
}

// bandTimesThousand writes (b+1)*1000+i everywhere.
func bandTimesThousand(i, b int) float64 {
	return float64((b+1)*1000 + i)
}

func openStacked(t *testing.T, location string, overrides map[string]any) Driver {
	t.Helper()
	drv, err := New("stacked", location, overrides)
	require.NoError(t, err)
	t.Cleanup(func() { drv.Close() })
	return drv
}

// fetchPixel retrieves the pixel under the given map coordinate and waits
// for completion.
func fetchPixel(t *testing.T, drv Driver, mx, my float64) *Fetch {
	t.Helper()
	f, err := drv.FetchData(mx, my, drv.Series()[0].Projection())
	require.NoError(t, err)
	for f.Next() {
	}
	require.NoError(t, f.Err())
	return f
}

func TestRegistryNames(t *testing.T) {
	names := Names()
	require.Contains(t, names, "stacked")
	require.Contains(t, names, "ccdc")
	require.Contains(t, names, "live")

	_, err := New("bogus", t.TempDir(), nil)
	require.Error(t, err)
}

func TestStackedDriverOpen(t *testing.T) {
	loc := newDataset(t, 4, 2, 2, 3, bandTimesThousand)
	drv := openStacked(t, loc, nil)

	require.Equal(t, "Layer stacked timeseries", drv.Description())
	require.Equal(t, loc, drv.Location())
	require.Len(t, drv.Series(), 1)
	require.Equal(t, 4, drv.Series()[0].NumImages())
	require.False(t, drv.HasResults())
}

func TestStackedDriverOpenEmptyLocation(t *testing.T) {
	_, err := New("stacked", t.TempDir(), nil)
	var notFound *imagery.NoImagesFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestStackedDriverBadOverride(t *testing.T) {
	loc := newDataset(t, 1, 2, 2, 1, bandTimesThousand)

	_, err := New("stacked", loc, map[string]any{"stack_pattern": 5})
	var typeErr *ConfigTypeError
	require.ErrorAs(t, err, &typeErr)
	require.Equal(t, "stack_pattern", typeErr.Option)
}

func TestStackedFetchData(t *testing.T) {
	loc := newDataset(t, 4, 2, 2, 3, bandTimesThousand)
	drv := openStacked(t, loc, nil)

	f, err := drv.FetchData(1015, 1985, drv.Series()[0].Projection())
	require.NoError(t, err)
	require.Equal(t, 4, f.Total())

	var lastProgress float64
	for f.Next() {
		require.GreaterOrEqual(t, f.Progress(), lastProgress)
		lastProgress = f.Progress()
	}
	require.NoError(t, f.Err())
	require.Equal(t, 1.0, f.Progress())

	_, values, err := drv.GetData(0, 0, false, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1000, 1001, 1002, 1003}, values)

	_, values, err = drv.GetData(0, 2, false, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{3000, 3001, 3002, 3003}, values)

	require.Contains(t, drv.PixelPos(), "0/0")
}

func TestStackedFetchBusy(t *testing.T) {
	loc := newDataset(t, 4, 2, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)
	crs := drv.Series()[0].Projection()

	f, err := drv.FetchData(1015, 1985, crs)
	require.NoError(t, err)

	_, err = drv.FetchData(1015, 1985, crs)
	require.ErrorIs(t, err, ErrBusy)

	for f.Next() {
	}
	require.NoError(t, f.Err())

	// Completion releases the driver.
	f2 := fetchPixel(t, drv, 1045, 1955)
	require.Equal(t, 1.0, f2.Progress())
}

func TestStackedFetchAbandonReleasesBusy(t *testing.T) {
	loc := newDataset(t, 4, 2, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)
	crs := drv.Series()[0].Projection()

	f, err := drv.FetchData(1015, 1985, crs)
	require.NoError(t, err)
	require.True(t, f.Next())
	f.Close()

	fetchPixel(t, drv, 1015, 1985)
}

func TestStackedFetchOutOfBounds(t *testing.T) {
	loc := newDataset(t, 2, 2, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)
	crs := drv.Series()[0].Projection()

	_, err := drv.FetchData(5000, 5000, crs)
	var oob *imagery.OutOfBoundsError
	require.ErrorAs(t, err, &oob)

	// The failed start must not leave the driver busy.
	fetchPixel(t, drv, 1015, 1985)
}

func TestStackedMaskApplied(t *testing.T) {
	// Band 2 is the mask band; image 1 carries the masked value.
	loc := newDataset(t, 4, 2, 2, 2, func(i, b int) float64 {
		if b == 1 {
			if i == 1 {
				return 5
			}
			return 0
		}
		return float64(1000 + i)
	})
	drv := openStacked(t, loc, map[string]any{
		"mask_band":   []int{2},
		"mask_values": []float64{5},
	})

	fetchPixel(t, drv, 1015, 1985)
	require.Equal(t, []bool{true, false, true, true}, drv.Series()[0].Mask)

	_, values, err := drv.GetData(0, 0, true, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1000, 1002, 1003}, values)
}

func TestStackedCacheServesSecondDriver(t *testing.T) {
	loc := newDataset(t, 3, 2, 2, 2, bandTimesThousand)

	drv := openStacked(t, loc, nil)
	fetchPixel(t, drv, 1015, 1985)

	entries, err := os.ReadDir(filepath.Join(loc, "cache"))
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	// A fresh driver over the same dataset reads the cached pixel.
	drv2 := openStacked(t, loc, nil)
	fetchPixel(t, drv2, 1015, 1985)

	_, values, err := drv2.GetData(0, 0, false, nil)
	require.NoError(t, err)
	require.Equal(t, []float64{1000, 1001, 1002}, values)
}

func TestStackedGeometry(t *testing.T) {
	loc := newDataset(t, 2, 2, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)
	fetchPixel(t, drv, 1045, 1955)

	geom, _, err := drv.GetGeometry()
	require.NoError(t, err)
	require.Contains(t, geom, "POLYGON")
}

func TestStackedNoResultLayer(t *testing.T) {
	loc := newDataset(t, 2, 2, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)

	require.NoError(t, drv.FetchResults())
	require.False(t, drv.HasResults())
	require.Nil(t, drv.Results())

	curves, err := drv.GetPrediction(0, 0, nil)
	require.NoError(t, err)
	require.Empty(t, curves)

	points, err := drv.GetBreaks(0, 0)
	require.NoError(t, err)
	require.Empty(t, points.Dates)
}

func TestStackedWarmRowCache(t *testing.T) {
	loc := newDataset(t, 3, 4, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)

	warmer, ok := drv.(interface{ WarmRowCache(int) error })
	require.True(t, ok)
	require.NoError(t, warmer.WarmRowCache(1))

	s := drv.Series()[0]
	data, hit := pixelcache.Read(filepath.Join(loc, "cache"), 2, 1, s.NumBands(), s.ImageIDs(), "", "")
	require.True(t, hit)
	require.Equal(t, []float64{1000, 1001, 1002}, data[0])
}

func TestStackedGetDataBadSeries(t *testing.T) {
	loc := newDataset(t, 2, 2, 2, 2, bandTimesThousand)
	drv := openStacked(t, loc, nil)

	_, _, err := drv.GetData(5, 0, false, nil)
	require.Error(t, err)
}
