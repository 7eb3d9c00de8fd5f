// Package output writes fetched pixel data and model results to disk, as
// CSV tables and rendered plot images.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/gocarina/gocsv"

	"github.com/terravue/terravue-pixel-poc/internal/driver"
	"github.com/terravue/terravue-pixel-poc/internal/imagery"
)

// SeriesRow is one observation of one band in the exported CSV.
type SeriesRow struct {
	Image  string  `csv:"image"`
	Date   string  `csv:"date"`
	Value  float64 `csv:"value"`
	Masked bool    `csv:"masked"`
}

// SegmentRow is one fitted segment in the exported CSV. Dates are ISO
// formatted; a zero break leaves the column empty.
type SegmentRow struct {
	Start string  `csv:"start"`
	End   string  `csv:"end"`
	Break string  `csv:"break"`
	RMSE  float64 `csv:"rmse"`
}

// ExportSeriesCSV writes every observation of one band, including masked
// ones, flagged by the masked column.
func ExportSeriesCSV(d driver.Driver, seriesIdx, band int, path string) error {
	records, values, err := d.GetData(seriesIdx, band, false, nil)
	if err != nil {
		return err
	}
	mask := d.Series()[seriesIdx].Mask

	rows := make([]SeriesRow, len(records))
	for i, r := range records {
		rows[i] = SeriesRow{
			Image:  r.ID,
			Date:   r.Date.Format("2006-01-02"),
			Value:  values[i],
			Masked: i < len(mask) && !mask[i],
		}
	}
	return writeCSV(path, &rows)
}

// ExportSegmentsCSV writes the fitted segments of one band: validity
// interval, break date and RMSE.
func ExportSegmentsCSV(d driver.Driver, band int, path string) error {
	segments := d.Results()

	rows := make([]SegmentRow, 0, len(segments))
	for _, seg := range segments {
		row := SegmentRow{
			Start: imagery.FromOrdinal(seg.Start).Format("2006-01-02"),
			End:   imagery.FromOrdinal(seg.End).Format("2006-01-02"),
		}
		if seg.HasBreak() {
			row.Break = imagery.FromOrdinal(seg.Break).Format("2006-01-02")
		}
		if band >= 0 && band < len(seg.RMSE) {
			row.RMSE = seg.RMSE[band]
		}
		rows = append(rows, row)
	}
	return writeCSV(path, &rows)
}

func writeCSV(path string, rows any) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	log.Info("wrote csv", "path", path)
	return nil
}
