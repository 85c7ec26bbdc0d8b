package report

import (
	"sort"

	"github.com/yorkulibraries/spacemetrics/internal/analyzer"
	"github.com/yorkulibraries/spacemetrics/internal/availability"
)

// CategoryGroup aggregates the spaces of one category within a location.
type CategoryGroup struct {
	CategoryID   string
	CategoryName string
	Spaces       []analyzer.SpaceResult
	Totals       []availability.Metrics
}

// LocationGroup aggregates one location's categories.
type LocationGroup struct {
	LocationID   string
	LocationName string
	Categories   []CategoryGroup
	Totals       []availability.Metrics
}

// Rollup groups results by location then category, preserving roster order.
// Totals are sums of hours and counts; rates are recomputed from the summed
// totals rather than averaged across spaces.
func Rollup(results []analyzer.SpaceResult) []LocationGroup {
	var groups []LocationGroup
	locIndex := make(map[string]int)

	for _, res := range results {
		li, ok := locIndex[res.Space.LocationID]
		if !ok {
			li = len(groups)
			locIndex[res.Space.LocationID] = li
			groups = append(groups, LocationGroup{
				LocationID:   res.Space.LocationID,
				LocationName: res.Space.LocationName,
			})
		}

		loc := &groups[li]
		ci := -1
		for i := range loc.Categories {
			if loc.Categories[i].CategoryID == res.Space.CategoryID {
				ci = i
				break
			}
		}
		if ci < 0 {
			ci = len(loc.Categories)
			loc.Categories = append(loc.Categories, CategoryGroup{
				CategoryID:   res.Space.CategoryID,
				CategoryName: res.Space.CategoryName,
			})
		}
		loc.Categories[ci].Spaces = append(loc.Categories[ci].Spaces, res)
	}

	for li := range groups {
		for ci := range groups[li].Categories {
			cat := &groups[li].Categories[ci]
			cat.Totals = sumTotals(cat.Spaces)
		}
		groups[li].Totals = sumGroupTotals(groups[li].Categories)
	}

	return groups
}

func sumTotals(results []analyzer.SpaceResult) []availability.Metrics {
	var totals []availability.Metrics
	for _, res := range results {
		if totals == nil {
			totals = make([]availability.Metrics, len(res.Metrics))
			for i := range res.Metrics {
				totals[i].Window = res.Metrics[i].Window
			}
		}
		for i := range res.Metrics {
			totals[i].AvailableHours += res.Metrics[i].AvailableHours
			totals[i].BookedHours += res.Metrics[i].BookedHours
			totals[i].BookingCount += res.Metrics[i].BookingCount
		}
	}
	recomputeRates(totals)
	return totals
}

func sumGroupTotals(categories []CategoryGroup) []availability.Metrics {
	var totals []availability.Metrics
	for _, cat := range categories {
		if totals == nil {
			totals = make([]availability.Metrics, len(cat.Totals))
			for i := range cat.Totals {
				totals[i].Window = cat.Totals[i].Window
			}
		}
		for i := range cat.Totals {
			totals[i].AvailableHours += cat.Totals[i].AvailableHours
			totals[i].BookedHours += cat.Totals[i].BookedHours
			totals[i].BookingCount += cat.Totals[i].BookingCount
		}
	}
	recomputeRates(totals)
	return totals
}

func recomputeRates(totals []availability.Metrics) {
	for i := range totals {
		if totals[i].AvailableHours > 0 {
			totals[i].Rate = totals[i].BookedHours / totals[i].AvailableHours
			if totals[i].Rate > 1 {
				totals[i].Rate = 1
			}
		}
	}
}

// LongestLeadTimes ranks spaces by how far away their next available slot is,
// farthest first. Spaces with no availability at all sort last. The returned
// slice holds at most n entries.
func LongestLeadTimes(results []analyzer.SpaceResult, n int) []analyzer.SpaceResult {
	ranked := make([]analyzer.SpaceResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].NextAvailable, ranked[j].NextAvailable
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
