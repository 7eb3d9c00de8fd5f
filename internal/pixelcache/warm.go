package pixelcache

import (
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
	"github.com/terravue/terravue-pixel-poc/internal/utils"
)

// WarmRow reads one full raster row across every image in the stack and
// persists it as a row-level cache entry, so every later pixel fetch on that
// row becomes a cache hit. Images are read through a worker pool; the GDAL
// calls themselves are serialized with the shared mutex.
func WarmRow(dir string, row int, r *imagery.StackReader, imageIDs []string, prefix, suffix string) error {
	nImages := r.NumImages()
	if nImages != len(imageIDs) {
		return fmt.Errorf("have %d open images but %d image IDs", nImages, len(imageIDs))
	}

	data := make([][][]float64, r.NumBands())
	for b := range data {
		data[b] = make([][]float64, nImages)
	}

	var (
		mu       sync.Mutex
		firstErr error
	)
	wp := workerpool.New(8)
	for i := 0; i < nImages; i++ {
		i := i
		wp.Submit(func() {
			var rowVals [][]float64
			var err error
			utils.ExecuteWithMutex(func() {
				rowVals, err = r.ReadRow(i, row)
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for b := range rowVals {
				data[b][i] = rowVals[b]
			}
		})
	}
	wp.StopWait()

	if firstErr != nil {
		return fmt.Errorf("failed to warm cache for row %d: %w", row, firstErr)
	}
	return WriteRow(dir, row, data, imageIDs, prefix, suffix)
}
