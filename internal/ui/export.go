package ui

import (
	"fmt"
	"path/filepath"

	"github.com/terravue/terravue-pixel-poc/internal/output"
	"github.com/terravue/terravue-pixel-poc/internal/properties"
)

// ExportCSV writes the current pixel's observations of one band, and the
// fitted segments when the driver has them, to the output folder.
func ExportCSV(s *session) {
	if !requireDriver(s) {
		return
	}

	series := s.drv.Series()[0]
	band, err := ReadInt(fmt.Sprintf("Enter the band number (1-%d): ", series.NumBands()), 1, series.NumBands())
	if err != nil {
		PrintError(err.Error())
		return
	}
	band--

	seriesPath := filepath.Join(properties.OutputPath(), fmt.Sprintf("series_band_%02d.csv", band+1))
	if err := output.ExportSeriesCSV(s.drv, 0, band, seriesPath); err != nil {
		PrintError(fmt.Sprintf("Failed to export series: %s", err.Error()))
		return
	}
	PrintSuccess(fmt.Sprintf("Series written to %s", seriesPath))

	if s.drv.HasResults() {
		segmentsPath := filepath.Join(properties.OutputPath(), fmt.Sprintf("segments_band_%02d.csv", band+1))
		if err := output.ExportSegmentsCSV(s.drv, band, segmentsPath); err != nil {
			PrintError(fmt.Sprintf("Failed to export segments: %s", err.Error()))
			return
		}
		PrintSuccess(fmt.Sprintf("Segments written to %s", segmentsPath))
	}
}
