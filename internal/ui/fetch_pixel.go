package ui

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/terravue/terravue-pixel-poc/internal/driver"
	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

// FetchPixel retrieves the timeseries of one pixel, showing progress while
// images are read.
func FetchPixel(s *session) {
	if !requireDriver(s) {
		return
	}

	x, y, err := ReadCoordinate("Enter the map coordinate (x,y) in the image CRS: ")
	if err != nil {
		PrintError(err.Error())
		return
	}

	fetch, err := s.drv.FetchData(x, y, s.drv.Series()[0].Projection())
	if err != nil {
		if errors.Is(err, driver.ErrBusy) {
			PrintError("A fetch is already running. Wait for it to finish.")
			return
		}
		var oob *imagery.OutOfBoundsError
		if errors.As(err, &oob) {
			PrintError(fmt.Sprintf("Coordinate falls outside the image: %s", err.Error()))
			return
		}
		PrintError(fmt.Sprintf("Failed to start fetch: %s", err.Error()))
		return
	}

	progressBar := progressbar.Default(int64(fetch.Total()), "Fetching pixel")
	done := make(chan error, 1)
	go func() {
		for fetch.Next() {
			progressBar.Set(int(fetch.Progress() * float64(fetch.Total())))
		}
		progressBar.Finish()
		done <- fetch.Err()
	}()

	if err := <-done; err != nil {
		PrintError(fmt.Sprintf("Fetch failed: %s", err.Error()))
		return
	}
	PrintSuccess(fmt.Sprintf("Fetched pixel. %s", s.drv.PixelPos()))
}
