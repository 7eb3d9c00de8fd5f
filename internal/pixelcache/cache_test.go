package pixelcache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var testIDs = []string{"LT50220331997010", "LT50220331997042"}

func testMatrix() [][]float64 {
	return [][]float64{
		{10, 11},
		{20, 21},
		{30, 31},
	}
}

func TestPixelNameEncodesShape(t *testing.T) {
	require.Equal(t, "x4_y7_n120_b8.json", PixelName(4, 7, 120, 8, "", ""))
	require.Equal(t, "p1_x4_y7_n120_b8_v2.json", PixelName(4, 7, 120, 8, "p1_", "_v2"))
	require.Equal(t, "r7_n120_b8.json", RowName(7, 120, 8, "", ""))
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := testMatrix()

	require.NoError(t, Write(dir, 4, 7, data, testIDs, "", ""))

	got, ok := Read(dir, 4, 7, 3, testIDs, "", "")
	require.True(t, ok)
	require.Equal(t, data, got)
}

func TestReadMissesOnAbsentEntry(t *testing.T) {
	_, ok := Read(t.TempDir(), 4, 7, 3, testIDs, "", "")
	require.False(t, ok)
}

func TestReadMissesOnStaleImageIDs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, 4, 7, testMatrix(), testIDs, "", ""))

	// Same count, different acquisition: must not hit.
	stale := []string{"LT50220331997010", "LT50220331997058"}
	_, ok := Read(dir, 4, 7, 3, stale, "", "")
	require.False(t, ok)
}

func TestReadMissesOnCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, PixelName(4, 7, len(testIDs), 3, "", ""))
	require.NoError(t, os.WriteFile(fn, []byte("{not json"), 0o644))

	_, ok := Read(dir, 4, 7, 3, testIDs, "", "")
	require.False(t, ok)
}

func TestReadMissesOnChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, 4, 7, testMatrix(), testIDs, "", ""))

	// Tamper with the stored matrix but keep the old checksum.
	fn := filepath.Join(dir, PixelName(4, 7, len(testIDs), 3, "", ""))
	raw, err := os.ReadFile(fn)
	require.NoError(t, err)

	var e pixelEntry
	require.NoError(t, json.Unmarshal(raw, &e))
	e.Data[0][0] = 999
	tampered, err := json.Marshal(e)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(fn, tampered, 0o644))

	_, ok := Read(dir, 4, 7, 3, testIDs, "", "")
	require.False(t, ok)
}

func TestReadFallsBackToRowEntry(t *testing.T) {
	dir := t.TempDir()

	// Row of 3 columns, 2 bands, 2 images.
	rowData := [][][]float64{
		{{1, 2, 3}, {4, 5, 6}},
		{{7, 8, 9}, {10, 11, 12}},
	}
	require.NoError(t, WriteRow(dir, 7, rowData, testIDs, "", ""))

	got, ok := Read(dir, 1, 7, 2, testIDs, "", "")
	require.True(t, ok)
	require.Equal(t, [][]float64{{2, 5}, {8, 11}}, got)

	_, ok = Read(dir, 5, 7, 2, testIDs, "", "")
	require.False(t, ok)
}

func TestPrefixSuffixSeparateEntries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Write(dir, 4, 7, testMatrix(), testIDs, "a_", ""))

	_, ok := Read(dir, 4, 7, 3, testIDs, "b_", "")
	require.False(t, ok)
	_, ok = Read(dir, 4, 7, 3, testIDs, "a_", "")
	require.True(t, ok)
}

func TestProbeCreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	canRead, canWrite := Probe(dir)
	require.True(t, canRead)
	require.True(t, canWrite)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestProbeRejectsFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.WriteFile(fn, nil, 0o644))

	canRead, canWrite := Probe(fn)
	require.False(t, canRead)
	require.False(t, canWrite)
}
