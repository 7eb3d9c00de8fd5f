package output

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/terravue/terravue-pixel-poc/internal/driver"
	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

const (
	plotWidth  = 900
	plotHeight = 500
	plotMargin = 60.0
)

// RenderBand draws one band's observations, fitted model curves and break
// points into a PNG.
func RenderBand(d driver.Driver, seriesIdx, band int, path string) error {
	records, values, err := d.GetData(seriesIdx, band, true, nil)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no unmasked observations for band %d", band+1)
	}

	curves, err := d.GetPrediction(seriesIdx, band, nil)
	if err != nil {
		return err
	}
	breaks, err := d.GetBreaks(seriesIdx, band)
	if err != nil {
		return err
	}

	minX, maxX := records[0].Ordinal, records[len(records)-1].Ordinal
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}
	for _, c := range curves {
		for i, t := range c.Dates {
			ord := imagery.ToOrdinal(t)
			if ord < minX {
				minX = ord
			}
			if ord > maxX {
				maxX = ord
			}
			minY = math.Min(minY, c.Values[i])
			maxY = math.Max(maxY, c.Values[i])
		}
	}
	if maxX == minX {
		maxX = minX + 1
	}
	if maxY == minY {
		maxY = minY + 1
	}

	sx := func(ord int) float64 {
		return plotMargin + (float64(ord-minX)/float64(maxX-minX))*(plotWidth-2*plotMargin)
	}
	sy := func(v float64) float64 {
		return plotHeight - plotMargin - ((v-minY)/(maxY-minY))*(plotHeight-2*plotMargin)
	}

	dc := gg.NewContext(plotWidth, plotHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Axes
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(plotMargin, plotHeight-plotMargin, plotWidth-plotMargin, plotHeight-plotMargin)
	dc.DrawLine(plotMargin, plotMargin, plotMargin, plotHeight-plotMargin)
	dc.Stroke()

	// Year ticks
	startYear := imagery.FromOrdinal(minX).Year()
	endYear := imagery.FromOrdinal(maxX).Year()
	for year := startYear; year <= endYear+1; year++ {
		ord := imagery.ToOrdinal(time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC))
		if ord < minX || ord > maxX {
			continue
		}
		x := sx(ord)
		dc.SetRGBA(0, 0, 0, 0.15)
		dc.DrawLine(x, plotMargin, x, plotHeight-plotMargin)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%d", year), x, plotHeight-plotMargin+15, 0.5, 0.5)
	}

	bandName := fmt.Sprintf("Band %d", band+1)
	if names := d.Series()[seriesIdx].BandNames; band < len(names) {
		bandName = names[band]
	}
	dc.DrawStringAnchored(bandName, plotWidth/2, plotMargin/2, 0.5, 0.5)

	// Observations
	dc.SetRGB(0.1, 0.3, 0.8)
	for i, r := range records {
		dc.DrawCircle(sx(r.Ordinal), sy(values[i]), 2.5)
		dc.Fill()
	}

	// Model curves
	dc.SetRGB(0.85, 0.2, 0.1)
	dc.SetLineWidth(2)
	for _, c := range curves {
		for i := 1; i < len(c.Dates); i++ {
			dc.DrawLine(
				sx(imagery.ToOrdinal(c.Dates[i-1])), sy(c.Values[i-1]),
				sx(imagery.ToOrdinal(c.Dates[i])), sy(c.Values[i]))
		}
		dc.Stroke()
	}

	// Break points
	dc.SetRGB(0.85, 0.2, 0.1)
	for i, t := range breaks.Dates {
		x, y := sx(imagery.ToOrdinal(t)), sy(breaks.Values[i])
		dc.DrawLine(x-5, y-5, x+5, y+5)
		dc.DrawLine(x-5, y+5, x+5, y-5)
		dc.SetLineWidth(2)
		dc.Stroke()
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	log.Info("wrote plot", "path", path)
	return nil
}

// RenderAllBands renders one PNG per band into dir, a few bands at a time.
func RenderAllBands(ctx context.Context, d driver.Driver, seriesIdx int, dir string) error {
	s := d.Series()[seriesIdx]

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for band := 0; band < len(s.BandNames); band++ {
		g.Go(func() error {
			path := filepath.Join(dir, fmt.Sprintf("band_%02d.png", band+1))
			return RenderBand(d, seriesIdx, band, path)
		})
	}
	return g.Wait()
}
