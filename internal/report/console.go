package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/yorkulibraries/spacemetrics/internal/analyzer"
	"github.com/yorkulibraries/spacemetrics/internal/availability"
)

const rule = 79

// ConsoleSummary prints the hierarchical location/category summary.
func ConsoleSummary(w io.Writer, groups []LocationGroup) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w, "SUMMARY BY LOCATION AND CATEGORY")
	fmt.Fprintln(w, strings.Repeat("=", rule))

	for _, loc := range groups {
		fmt.Fprintf(w, "\nLocation: %s\n", loc.LocationName)
		fmt.Fprintln(w, strings.Repeat("=", rule))

		fmt.Fprintln(w, "\n  LOCATION TOTALS:")
		fmt.Fprintln(w, "  "+strings.Repeat("-", rule-2))
		writeMetricLines(w, "  ", loc.Totals)

		for _, cat := range loc.Categories {
			fmt.Fprintf(w, "\n  Category: %s\n", cat.CategoryName)
			fmt.Fprintln(w, "  "+strings.Repeat("-", rule-2))
			writeMetricLines(w, "    ", cat.Totals)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func writeMetricLines(w io.Writer, indent string, totals []availability.Metrics) {
	for _, m := range totals {
		fmt.Fprintf(w, "%s%-12s - Booking Rate: %6.2f%% | Available: %8.2fh | Booked: %8.2fh | Count: %4d\n",
			indent, strings.ToUpper(m.Window.Name), m.Rate*100, m.AvailableHours, m.BookedHours, m.BookingCount)
	}
}

// ConsoleLeadTimes prints the longest-lead-time ranking.
func ConsoleLeadTimes(w io.Writer, ranked []analyzer.SpaceResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintf(w, "TOP %d SPACES WITH LONGEST LEAD TIMES\n", len(ranked))
	fmt.Fprintln(w, strings.Repeat("=", rule))

	for i, res := range ranked {
		fmt.Fprintf(w, "%2d. %-45s (%s)\n", i+1, res.Space.SpaceName, truncate(res.Space.LocationName, 25))
		fmt.Fprintf(w, "    Next Available: %s\n", nextAvailableString(res))
	}

	fmt.Fprintln(w, strings.Repeat("=", rule))
}

func nextAvailableString(res analyzer.SpaceResult) string {
	if res.NextAvailable == nil {
		return noAvailability
	}
	return res.NextAvailable.Format(nextAvailableLayout)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
