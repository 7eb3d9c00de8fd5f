package ui

import (
	"context"
	"fmt"

	"github.com/terravue/terravue-pixel-poc/internal/output"
	"github.com/terravue/terravue-pixel-poc/internal/properties"
)

// RenderPlots draws one PNG per band for the current pixel, including model
// curves and breaks when the driver has results.
func RenderPlots(s *session) {
	if !requireDriver(s) {
		return
	}
	if s.drv.PixelPos() == "" {
		PrintWarning("No pixel fetched yet.")
		return
	}

	if err := output.RenderAllBands(context.Background(), s.drv, 0, properties.OutputPath()); err != nil {
		PrintError(fmt.Sprintf("Failed to render plots: %s", err.Error()))
		return
	}
	PrintSuccess(fmt.Sprintf("Plots written to %s", properties.OutputPath()))
}
