package ui

import (
	"fmt"
	"math"
)

// ShowData summarizes the current pixel: position, footprint and per-band
// statistics over the unmasked observations.
func ShowData(s *session) {
	if !requireDriver(s) {
		return
	}

	if pos := s.drv.PixelPos(); pos != "" {
		PrintSuccess(pos)
	} else {
		PrintWarning("No pixel fetched yet.")
		return
	}

	geom, crs, err := s.drv.GetGeometry()
	if err == nil {
		fmt.Printf("%sFootprint: %s%s\n", ColorGreen, geom, ColorReset)
		if crs != "" {
			fmt.Printf("%sCRS: %s%s\n", ColorGreen, crs, ColorReset)
		}
	}

	series := s.drv.Series()[0]
	for band, name := range series.BandNames {
		_, values, err := s.drv.GetData(0, band, true, nil)
		if err != nil {
			PrintError(err.Error())
			return
		}
		if len(values) == 0 {
			fmt.Printf("%s%s: no unmasked observations%s\n", ColorGreen, name, ColorReset)
			continue
		}

		min, max, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, v := range values {
			min = math.Min(min, v)
			max = math.Max(max, v)
			sum += v
		}
		fmt.Printf("%s%s: %d obs, min %.1f, max %.1f, mean %.1f%s\n",
			ColorGreen, name, len(values), min, max, sum/float64(len(values)), ColorReset)
	}
}
