package ui

import (
	"fmt"

	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

// FetchResults runs or loads the change model for the current pixel and
// prints the fitted segments.
func FetchResults(s *session) {
	if !requireDriver(s) {
		return
	}

	if err := s.drv.FetchResults(); err != nil {
		PrintError(fmt.Sprintf("Failed to fetch results: %s", err.Error()))
		return
	}
	if !s.drv.HasResults() {
		PrintWarning("This driver has no model layer.")
		return
	}

	segments := s.drv.Results()
	if len(segments) == 0 {
		PrintWarning("No model results for this pixel.")
		return
	}

	PrintSuccess(fmt.Sprintf("%d segment(s):", len(segments)))
	for i, seg := range segments {
		line := fmt.Sprintf("  %d. %s to %s", i+1,
			imagery.FromOrdinal(seg.Start).Format("2006-01-02"),
			imagery.FromOrdinal(seg.End).Format("2006-01-02"))
		if seg.HasBreak() {
			line += fmt.Sprintf(", break at %s", imagery.FromOrdinal(seg.Break).Format("2006-01-02"))
		}
		fmt.Printf("%s%s%s\n", ColorGreen, line, ColorReset)
	}
}
