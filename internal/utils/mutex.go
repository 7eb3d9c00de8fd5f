// Package utils holds small helpers shared across the driver stack.
package utils

import "sync"

var gdalMu sync.Mutex

// ExecuteWithMutex serializes access to code that is not safe to call from
// multiple goroutines, such as GDAL reads issued from worker pools.
func ExecuteWithMutex(fn func()) {
	gdalMu.Lock()
	defer gdalMu.Unlock()
	fn()
}
