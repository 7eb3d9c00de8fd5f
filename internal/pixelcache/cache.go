// Package pixelcache persists per-pixel and per-row retrievals on disk so a
// repeated click never re-reads thousands of rasters. The cache is always an
// optimization: every failure here degrades to a miss, never to an error the
// caller has to handle.
package pixelcache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// pixelEntry is the on-disk artifact for one cached pixel: the band x image
// matrix plus the image IDs it was computed against.
type pixelEntry struct {
	Data     [][]float64 `json:"data"`
	ImageIDs []string    `json:"image_ids"`
	Checksum string      `json:"checksum"`
}

// rowEntry caches a whole raster row, indexed [band][image][col].
type rowEntry struct {
	Data     [][][]float64 `json:"data"`
	ImageIDs []string      `json:"image_ids"`
	Checksum string        `json:"checksum"`
}

// PixelName returns the cache filename for one pixel. Image and band counts
// are part of the name, so a change in either silently invalidates old
// entries.
func PixelName(col, row, nImages, nBands int, prefix, suffix string) string {
	return fmt.Sprintf("%sx%d_y%d_n%d_b%d%s.json", prefix, col, row, nImages, nBands, suffix)
}

// RowName returns the cache filename for a whole row.
func RowName(row, nImages, nBands int, prefix, suffix string) string {
	return fmt.Sprintf("%sr%d_n%d_b%d%s.json", prefix, row, nImages, nBands, suffix)
}

// Probe reports whether dir can be read from and written to. A missing
// directory is created when possible. Probe never fails.
func Probe(dir string) (canRead, canWrite bool) {
	info, err := os.Stat(dir)
	if err != nil {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, false
		}
		return true, true
	}
	if !info.IsDir() {
		return false, false
	}

	if _, err := os.ReadDir(dir); err == nil {
		canRead = true
	}
	if f, err := os.CreateTemp(dir, ".probe-*"); err == nil {
		canWrite = true
		f.Close()
		os.Remove(f.Name())
	}
	return canRead, canWrite
}

// Read attempts the pixel-level cache first and the row-level cache second.
// A hit is valid only when the stored image ID list exactly equals imageIDs
// and the matrix shape matches nBands x len(imageIDs). Anything else is a
// miss.
func Read(dir string, col, row, nBands int, imageIDs []string, prefix, suffix string) ([][]float64, bool) {
	n := len(imageIDs)

	pixelFn := filepath.Join(dir, PixelName(col, row, n, nBands, prefix, suffix))
	if data, ok := readPixelFile(pixelFn, nBands, imageIDs); ok {
		log.Debug("pixel cache hit", "file", pixelFn)
		return data, true
	}

	rowFn := filepath.Join(dir, RowName(row, n, nBands, prefix, suffix))
	if data, ok := readRowFile(rowFn, col, nBands, imageIDs); ok {
		log.Debug("row cache hit", "file", rowFn)
		return data, true
	}

	return nil, false
}

func readPixelFile(fn string, nBands int, imageIDs []string) ([][]float64, bool) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		return nil, false
	}

	var e pixelEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		log.Warn("unreadable pixel cache entry", "file", fn, "err", err)
		return nil, false
	}
	if e.Checksum != checksum(e.Data) {
		log.Warn("pixel cache entry failed checksum", "file", fn)
		return nil, false
	}
	if !sameIDs(e.ImageIDs, imageIDs) {
		log.Debug("pixel cache entry has stale image IDs", "file", fn)
		return nil, false
	}
	if len(e.Data) != nBands {
		return nil, false
	}
	for _, band := range e.Data {
		if len(band) != len(imageIDs) {
			return nil, false
		}
	}
	return e.Data, true
}

func readRowFile(fn string, col, nBands int, imageIDs []string) ([][]float64, bool) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		return nil, false
	}

	var e rowEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		log.Warn("unreadable row cache entry", "file", fn, "err", err)
		return nil, false
	}
	if e.Checksum != checksum(e.Data) {
		log.Warn("row cache entry failed checksum", "file", fn)
		return nil, false
	}
	if !sameIDs(e.ImageIDs, imageIDs) {
		log.Debug("row cache entry has stale image IDs", "file", fn)
		return nil, false
	}
	if len(e.Data) != nBands {
		return nil, false
	}

	out := make([][]float64, nBands)
	for b, band := range e.Data {
		if len(band) != len(imageIDs) {
			return nil, false
		}
		out[b] = make([]float64, len(band))
		for i, cols := range band {
			if col < 0 || col >= len(cols) {
				return nil, false
			}
			out[b][i] = cols[col]
		}
	}
	return out, true
}

// Write persists one pixel's matrix together with the image IDs it was
// computed against. The write is atomic so concurrent readers never see a
// partial entry.
func Write(dir string, col, row int, data [][]float64, imageIDs []string, prefix, suffix string) error {
	nBands := len(data)
	fn := filepath.Join(dir, PixelName(col, row, len(imageIDs), nBands, prefix, suffix))
	return writeEntry(dir, fn, pixelEntry{Data: data, ImageIDs: imageIDs, Checksum: checksum(data)})
}

// WriteRow persists a whole-row matrix, indexed [band][image][col].
func WriteRow(dir string, row int, data [][][]float64, imageIDs []string, prefix, suffix string) error {
	nBands := len(data)
	fn := filepath.Join(dir, RowName(row, len(imageIDs), nBands, prefix, suffix))
	return writeEntry(dir, fn, rowEntry{Data: data, ImageIDs: imageIDs, Checksum: checksum(data)})
}

func writeEntry(dir, fn string, entry any) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	tmp := fn + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tmp, fn); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}

func checksum(data any) string {
	raw, _ := json.Marshal(data)
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
