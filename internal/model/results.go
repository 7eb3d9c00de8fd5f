package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// savedRecord mirrors one entry of a precomputed results file. Dates are in
// the foreign (MATLAB datenum) convention; Pos is the 1-based linear pixel
// index row*width+col+1.
type savedRecord struct {
	Pos    int         `json:"pos"`
	TStart int         `json:"t_start"`
	TEnd   int         `json:"t_end"`
	TBreak int         `json:"t_break"`
	Coef   [][]float64 `json:"coefs"`
	RMSE   []float64   `json:"rmse"`
}

// ResultsFileName substitutes the 1-based row number into a wildcard
// pattern, e.g. "record_change_*.json" for row 4 becomes
// "record_change_5.json".
func ResultsFileName(pattern string, row int) string {
	return strings.Replace(pattern, "*", strconv.Itoa(row+1), 1)
}

// LoadSegments reads the precomputed segments for one pixel from a results
// directory holding one record file per raster row. A missing row file
// means the pixel simply has no model and yields an empty result, not an
// error; a malformed file is an error.
func LoadSegments(dir, pattern string, row, col, width int) ([]Segment, error) {
	fn := filepath.Join(dir, ResultsFileName(pattern, row))

	raw, err := os.ReadFile(fn)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug("no results file for row", "row", row, "file", fn)
			return nil, nil
		}
		return nil, fmt.Errorf("cannot read results file %s: %w", fn, err)
	}

	var records []savedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("malformed results file %s: %w", fn, err)
	}

	pos := row*width + col + 1

	var segments []Segment
	for _, rec := range records {
		if rec.Pos != pos {
			continue
		}
		if len(rec.Coef) == 0 {
			return nil, fmt.Errorf("results file %s: record for pos %d has no coefficients", fn, pos)
		}
		segments = append(segments, Segment{
			Start: FromForeignOrdinal(rec.TStart),
			End:   FromForeignOrdinal(rec.TEnd),
			Break: FromForeignOrdinal(rec.TBreak),
			Coef:  rec.Coef,
			RMSE:  rec.RMSE,
		})
	}
	return segments, nil
}
