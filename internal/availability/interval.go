package availability

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two intervals share a positive duration.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Clip returns the portion of iv inside bounds, or a zero-duration interval
// when they do not overlap.
func (iv Interval) Clip(bounds Interval) Interval {
	start, end := iv.Start, iv.End
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if end.Before(start) {
		end = start
	}
	return Interval{Start: start, End: end}
}

// Hours returns the interval length in hours.
func (iv Interval) Hours() float64 {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start).Hours()
}

// Duration returns the interval length, zero for degenerate intervals.
func (iv Interval) Duration() time.Duration {
	if !iv.End.After(iv.Start) {
		return 0
	}
	return iv.End.Sub(iv.Start)
}
