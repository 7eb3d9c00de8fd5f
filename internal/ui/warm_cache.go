package ui

import "fmt"

type rowWarmer interface {
	WarmRowCache(row int) error
}

// WarmCache reads one full raster row and persists it to the pixel cache,
// so later fetches anywhere on that row are instant.
func WarmCache(s *session) {
	if !requireDriver(s) {
		return
	}

	warmer, ok := s.drv.(rowWarmer)
	if !ok {
		PrintWarning("This driver does not support cache warming.")
		return
	}

	height := s.drv.Series()[0].Height()
	row, err := ReadInt(fmt.Sprintf("Enter the raster row (0-%d): ", height-1), 0, height-1)
	if err != nil {
		PrintError(err.Error())
		return
	}

	if err := warmer.WarmRowCache(row); err != nil {
		PrintError(fmt.Sprintf("Failed to warm cache: %s", err.Error()))
		return
	}
	PrintSuccess(fmt.Sprintf("Cached row %d across all series.", row))
}
