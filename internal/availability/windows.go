package availability

import "time"

// Window is a named analysis period measured forward from the analysis start.
type Window struct {
	Name  string
	Weeks int
}

// Windows returns the canonical analysis windows in report column order.
func Windows() []Window {
	return []Window{
		{Name: "1week", Weeks: 1},
		{Name: "2weeks", Weeks: 2},
		{Name: "1month", Weeks: 4},
		{Name: "2months", Weeks: 8},
		{Name: "3months", Weeks: 13},
	}
}

// Bounds returns the window's interval starting at start.
func (w Window) Bounds(start time.Time) Interval {
	return Interval{Start: start, End: start.AddDate(0, 0, w.Weeks*7)}
}

// Metrics holds aggregated usage figures for one space and window.
type Metrics struct {
	Window         Window
	AvailableHours float64
	BookedHours    float64
	BookingCount   int
	Rate           float64 // booked/available, 0 when nothing is available
}
