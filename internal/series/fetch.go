package series

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
	"github.com/terravue/terravue-pixel-poc/internal/pixelcache"
)

// Fetch is a pull iterator over one pixel retrieval. Each Next advances one
// step (one image read, or a single step for a cache hit) and Progress
// reports the completed fraction in (0, 1]. Retrieval happens into a
// scratch buffer; Series.Data is overwritten only when the final step
// completes, so an abandoned or failed fetch leaves the series in its
// last-known-good state.
type Fetch struct {
	s        *Series
	col, row int

	cacheDir   string
	readCache  bool
	writeCache bool

	scratch   [][]float64
	completed int
	n         int

	fromCache bool
	done      bool
	err       error
	onDone    func()
}

// StartFetch begins a retrieval for the pixel at col/row. The pixel must be
// inside the raster; bounds are checked here, before any cache access.
func (s *Series) StartFetch(col, row int, cacheDir string, readCache, writeCache bool) (*Fetch, error) {
	if col < 0 || row < 0 || col >= s.Width() || row >= s.Height() {
		return nil, &imagery.OutOfBoundsError{Col: col, Row: row, Width: s.Width(), Height: s.Height()}
	}

	s.Px, s.Py = col, row

	f := &Fetch{
		s:          s,
		col:        col,
		row:        row,
		cacheDir:   cacheDir,
		readCache:  readCache,
		writeCache: writeCache,
		n:          s.NumImages(),
	}
	f.scratch = make([][]float64, s.NumBands())
	for b := range f.scratch {
		f.scratch[b] = make([]float64, f.n)
	}
	return f, nil
}

// OnDone registers a callback invoked exactly once when the fetch finishes,
// fails, or is closed early.
func (f *Fetch) OnDone(fn func()) { f.onDone = fn }

// Next advances the fetch one step. It returns false once the fetch has
// completed or failed; check Err afterwards.
func (f *Fetch) Next() bool {
	if f.done || f.err != nil {
		return false
	}

	if f.completed == 0 && f.readCache {
		if data, ok := pixelcache.Read(f.cacheDir, f.col, f.row, f.s.NumBands(), f.s.ImageIDs(), f.s.CachePrefix, f.s.CacheSuffix); ok {
			for b := range data {
				copy(f.s.Data[b], data[b])
			}
			f.fromCache = true
			f.completed = f.n
			f.finish()
			return true
		}
	}

	vals, err := f.s.reader.ReadPixel(f.completed, f.col, f.row)
	if err != nil {
		f.err = fmt.Errorf("fetch of pixel %d/%d failed at image %d: %w", f.col, f.row, f.completed, err)
		f.finish()
		return false
	}
	for b, v := range vals {
		f.scratch[b][f.completed] = v
	}
	f.completed++

	if f.completed == f.n {
		// Full overwrite, never an incremental merge.
		for b := range f.scratch {
			copy(f.s.Data[b], f.scratch[b])
		}
		if f.writeCache && !f.fromCache {
			if err := pixelcache.Write(f.cacheDir, f.col, f.row, f.s.Data, f.s.ImageIDs(), f.s.CachePrefix, f.s.CacheSuffix); err != nil {
				log.Warn("could not cache pixel", "col", f.col, "row", f.row, "err", err)
			}
		}
		f.finish()
	}
	return true
}

// Progress returns the completed fraction of the fetch.
func (f *Fetch) Progress() float64 {
	if f.n == 0 {
		return 1
	}
	return float64(f.completed) / float64(f.n)
}

// Completed returns how many images have been read so far.
func (f *Fetch) Completed() int { return f.completed }

// Total returns the number of images this fetch covers.
func (f *Fetch) Total() int { return f.n }

// FromCache reports whether the fetch was satisfied by the pixel cache.
func (f *Fetch) FromCache() bool { return f.fromCache }

// Err returns the error that stopped the fetch, if any.
func (f *Fetch) Err() error { return f.err }

// Close abandons an in-flight fetch. The partially filled scratch buffer is
// discarded and Series.Data stays untouched.
func (f *Fetch) Close() {
	if !f.done {
		f.finish()
	}
}

func (f *Fetch) finish() {
	if f.done {
		return
	}
	f.done = true
	if f.onDone != nil {
		f.onDone()
	}
}
