package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/yorkulibraries/spacemetrics/internal/analyzer"
	"github.com/yorkulibraries/spacemetrics/internal/availability"
)

const (
	nextAvailableLayout = "2006-01-02 15:04"
	noAvailability      = "No availability"
)

// Header returns the CSV column order: identifiers, then per-window metric
// columns, then the next-available timestamp.
func Header() []string {
	cols := []string{
		"space_id",
		"space_name",
		"category_id",
		"category_name",
		"location_id",
		"location_name",
	}
	for _, w := range availability.Windows() {
		cols = append(cols,
			"booking_rate_"+w.Name,
			"total_hours_available_"+w.Name,
			"total_hours_booked_"+w.Name,
			"booking_count_"+w.Name,
		)
	}
	return append(cols, "next_available_booking")
}

// Record serializes one space result in Header order.
func Record(res analyzer.SpaceResult) []string {
	rec := []string{
		res.Space.SpaceID,
		res.Space.SpaceName,
		res.Space.CategoryID,
		res.Space.CategoryName,
		res.Space.LocationID,
		res.Space.LocationName,
	}
	for _, m := range res.Metrics {
		rec = append(rec,
			strconv.FormatFloat(m.Rate, 'f', 4, 64),
			strconv.FormatFloat(m.AvailableHours, 'f', 2, 64),
			strconv.FormatFloat(m.BookedHours, 'f', 2, 64),
			strconv.Itoa(m.BookingCount),
		)
	}
	return append(rec, nextAvailableString(res))
}

// WriteCSV writes one row per space to path, creating parent directories.
func WriteCSV(path string, results []analyzer.SpaceResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header()); err != nil {
		return err
	}
	for _, res := range results {
		if err := w.Write(Record(res)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// DatedPath expands a {date} placeholder in the output template to the run
// date as YYYYMMDD. Templates without the placeholder pass through unchanged.
func DatedPath(template string, now time.Time) string {
	return strings.ReplaceAll(template, "{date}", now.Format("20060102"))
}
