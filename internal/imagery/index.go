// Package imagery discovers per-date raster files on disk, indexes them by
// acquisition date, and reads per-pixel values across an opened stack.
package imagery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/charmbracelet/log"
)

// ImageRecord describes one discovered raster file.
type ImageRecord struct {
	Filename string
	Path     string
	ID       string
	Date     time.Time
	Ordinal  int
	DOY      int
}

// NoImagesFoundError is returned when a discovery pass matches no files.
type NoImagesFoundError struct {
	Root    string
	Pattern string
}

func (e *NoImagesFoundError) Error() string {
	return fmt.Sprintf("no images matching %q found under %s", e.Pattern, e.Root)
}

// DateParseError is returned when a date cannot be sliced out of an image's
// ID or filename.
type DateParseError struct {
	Filename string
	ID       string
	Start    int
	End      int
	Format   string
	Err      error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("could not parse date from ID %q or filename %q (date index=%d:%d, format=%s)",
		e.ID, e.Filename, e.Start, e.End, e.Format)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// DateSpec tells the index where an image date lives inside an image ID or
// filename and how to parse it.
type DateSpec struct {
	Start  int
	End    int
	Format string // Go reference layout, e.g. "2006002" for year + day-of-year
}

// Discover walks root following symbolic links and returns the absolute
// paths of all files whose basename matches pattern (shell glob semantics).
// Subdirectories named in ignoreDirs are skipped entirely. Descent stops
// below maxDepth levels from root; maxDepth < 0 means unlimited.
func Discover(root, pattern string, ignoreDirs []string, maxDepth int) ([]string, error) {
	root = filepath.Clean(root)
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("cannot read image location %s: %w", root, err)
	}

	ignored := make(map[string]bool, len(ignoreDirs))
	for _, d := range ignoreDirs {
		ignored[d] = true
	}

	// Directories are visited once by resolved path, so a symlink cycle
	// terminates instead of recursing forever.
	visited := make(map[string]bool)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		visited[resolved] = true
	}

	var results []string
	var walk func(dir string, depth int) error
	walk = func(dir string, depth int) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			name := entry.Name()
			full := filepath.Join(dir, name)

			// Resolve symlinks so linked directories are followed.
			info, err := os.Stat(full)
			if err != nil {
				log.Debug("skipping unreadable entry", "path", full, "err", err)
				continue
			}

			if info.IsDir() {
				if ignored[name] {
					continue
				}
				if maxDepth >= 0 && depth+1 > maxDepth {
					continue
				}
				resolved, err := filepath.EvalSymlinks(full)
				if err != nil {
					log.Debug("skipping unresolvable directory", "path", full, "err", err)
					continue
				}
				if visited[resolved] {
					continue
				}
				visited[resolved] = true
				if err := walk(full, depth+1); err != nil {
					return err
				}
				continue
			}

			ok, err := filepath.Match(pattern, name)
			if err != nil {
				return fmt.Errorf("bad file pattern %q: %w", pattern, err)
			}
			if ok {
				abs, err := filepath.Abs(full)
				if err != nil {
					return err
				}
				results = append(results, abs)
			}
		}
		return nil
	}

	if err := walk(root, 0); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, &NoImagesFoundError{Root: root, Pattern: pattern}
	}
	return results, nil
}

// NewIndex builds sorted ImageRecords for a list of image paths. The image
// ID is the basename of the parent directory; the date is sliced out of the
// ID first and out of the filename when the ID does not parse.
//
// Records are sorted ascending by ordinal date; the sort is stable so ties
// keep discovery order. When two files produce the same ID and date the
// first one discovered wins and the duplicate is dropped.
func NewIndex(paths []string, spec DateSpec) ([]ImageRecord, error) {
	records := make([]ImageRecord, 0, len(paths))
	seen := make(map[string]bool, len(paths))

	for _, p := range paths {
		rec := ImageRecord{
			Filename: filepath.Base(p),
			Path:     p,
			ID:       filepath.Base(filepath.Dir(p)),
		}

		date, err := sliceDate(rec.ID, spec)
		if err != nil {
			date, err = sliceDate(rec.Filename, spec)
			if err != nil {
				return nil, &DateParseError{
					Filename: rec.Filename,
					ID:       rec.ID,
					Start:    spec.Start,
					End:      spec.End,
					Format:   spec.Format,
					Err:      err,
				}
			}
		}
		rec.Date = date
		rec.Ordinal = ToOrdinal(date)
		rec.DOY = date.YearDay()

		key := fmt.Sprintf("%s\x00%d", rec.ID, rec.Ordinal)
		if seen[key] {
			log.Warn("dropping duplicate image", "id", rec.ID, "date", rec.Date.Format("2006-01-02"), "path", p)
			continue
		}
		seen[key] = true
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Ordinal < records[j].Ordinal
	})
	return records, nil
}

func sliceDate(s string, spec DateSpec) (time.Time, error) {
	if spec.Start < 0 || spec.End > len(s) || spec.Start >= spec.End {
		return time.Time{}, fmt.Errorf("date index %d:%d out of range for %q", spec.Start, spec.End, s)
	}
	return time.Parse(spec.Format, s[spec.Start:spec.End])
}

// Paths returns the file path of every record, in record order.
func Paths(records []ImageRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}

// IDs returns the image ID of every record, in record order.
func IDs(records []ImageRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

// unixEpochOrdinal is the proleptic Gregorian ordinal of 1970-01-01, the
// same day numbering as Python's date.toordinal.
const unixEpochOrdinal = 719163

// ToOrdinal returns the proleptic Gregorian ordinal of t's calendar day,
// with day 1 being January 1 of year 1.
func ToOrdinal(t time.Time) int {
	u := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix()
	return int(u/86400) + unixEpochOrdinal
}

// FromOrdinal is the inverse of ToOrdinal.
func FromOrdinal(n int) time.Time {
	return time.Unix(int64(n-unixEpochOrdinal)*86400, 0).UTC()
}
