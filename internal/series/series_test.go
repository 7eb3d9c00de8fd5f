package series

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/stretchr/testify/require"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

func TestMain(m *testing.M) {
	godal.RegisterAll()
	os.Exit(m.Run())
}

var testDateSpec = imagery.DateSpec{Start: 9, End: 16, Format: "2006002"}

// imageID builds a Landsat-style ID carrying the i-th weekly date of 1997.
func imageID(i int) string {
	date := time.Date(1997, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
	return "LT5022033" + date.Format("2006002")
}

// writeStack creates root/<id>/<id>_stack with one constant value per band.
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

// newTestSeries builds a 2x2 series where image i holds (b+1)*1000+i in
// band b, except the last band which holds maskVals[i].
func newTestSeries(t *testing.T, nBands int, maskVals []float64) *Series {
	t.Helper()
	root := t.TempDir()

	paths := make([]string, len(maskVals))
	for i := range maskVals {
		vals := make([]float64, nBands)
		for b := 0; b < nBands-1; b++ {
			vals[b] = float64((b+1)*1000 + i)
		}
		vals[nBands-1] = maskVals[i]
		paths[i] = writeStack(t, root, imageID(i), 2, 2, vals)
	}

	s, err := New(paths, testDateSpec, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fetchAll(t *testing.T, s *Series, col, row int, cacheDir string, readCache, writeCache bool) *Fetch {
	t.Helper()
	f, err := s.StartFetch(col, row, cacheDir, readCache, writeCache)
	require.NoError(t, err)
	for f.Next() {
	}
	require.NoError(t, f.Err())
	return f
}

func TestNewSeriesDefaults(t *testing.T) {
	s := newTestSeries(t, 2, []float64{0, 0, 0, 0})

	require.Equal(t, 4, s.NumImages())
	require.Equal(t, 2, s.NumBands())
	require.Equal(t, 2, s.Width())
	require.Equal(t, 2, s.Height())
	require.Equal(t, []string{"Band 1", "Band 2"}, s.BandNames)
	require.Equal(t, "Stacked series", s.Description)

	for _, band := range s.Data {
		for _, v := range band {
			require.Zero(t, v)
		}
	}
	for _, m := range s.Mask {
		require.True(t, m)
	}

	ordinals := s.Ordinals()
	for i := 1; i < len(ordinals); i++ {
		require.Equal(t, 7, ordinals[i]-ordinals[i-1])
	}
}

func TestNewSeriesBandNameMismatch(t *testing.T) {
	root := t.TempDir()
	path := writeStack(t, root, imageID(0), 2, 2, []float64{1, 2})

	_, err := New([]string{path}, testDateSpec, Options{BandNames: []string{"only one"}})
	require.Error(t, err)
}

func TestNewSeriesEmpty(t *testing.T) {
	_, err := New(nil, testDateSpec, Options{})
	require.Error(t, err)
}

func TestApplyMaskAndGetData(t *testing.T) {
	s := newTestSeries(t, 2, []float64{0, 5, 0, 5})
	fetchAll(t, s, 0, 0, "", false, false)

	s.ApplyMask(2, []float64{5})
	require.Equal(t, []bool{true, false, true, false}, s.Mask)

	images, values, err := s.GetData(0, true, nil)
	require.NoError(t, err)
	require.Len(t, images, 2)
	require.Equal(t, []float64{1000, 1002}, values)

	// Index subset composes with the mask by intersection.
	_, values, err = s.GetData(0, true, []int{0, 1})
	require.NoError(t, err)
	require.Equal(t, []float64{1000}, values)

	// Unmasked with subset keeps masked observations.
	_, values, err = s.GetData(0, false, []int{1, 3})
	require.NoError(t, err)
	require.Equal(t, []float64{1001, 1003}, values)
}

func TestApplyMaskNoMaskBand(t *testing.T) {
	s := newTestSeries(t, 2, []float64{5, 5, 5, 5})
	fetchAll(t, s, 0, 0, "", false, false)

	s.ApplyMask(2, []float64{5})
	require.Equal(t, []bool{false, false, false, false}, s.Mask)

	// Disabling the mask band restores every observation.
	s.ApplyMask(0, []float64{5})
	require.Equal(t, []bool{true, true, true, true}, s.Mask)
}

func TestGetDataErrors(t *testing.T) {
	s := newTestSeries(t, 2, []float64{0, 0, 0, 0})

	_, _, err := s.GetData(5, false, nil)
	require.Error(t, err)

	_, _, err = s.GetData(0, false, []int{9})
	require.Error(t, err)
}

func TestGeometry(t *testing.T) {
	s := newTestSeries(t, 2, []float64{0, 0})
	fetchAll(t, s, 1, 1, "", false, false)

	geom, _ := s.Geometry()
	require.Contains(t, geom, "POLYGON")
	require.Contains(t, geom, fmt.Sprintf("%d", 1030))
}
