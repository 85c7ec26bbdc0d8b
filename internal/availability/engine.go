package availability

import (
	"errors"
	"sort"
	"time"
)

// ErrNoAvailability is returned by NextSlot when no slot of the requested
// duration exists within the analysis horizon.
var ErrNoAvailability = errors.New("no availability within horizon")

// DefaultIncrements are the minute values a booking may start on.
var DefaultIncrements = []int{0, 15, 30, 45}

const slotStep = 15 * time.Minute

// Engine computes usage metrics and next-available slots for one space from
// its operating hours and existing bookings.
type Engine struct {
	SlotDuration time.Duration
	Increments   []int
}

// NewEngine creates an engine for the given slot duration on the standard
// quarter-hour start grid.
func NewEngine(slotDuration time.Duration) *Engine {
	return &Engine{
		SlotDuration: slotDuration,
		Increments:   DefaultIncrements,
	}
}

// Aggregate sums availability and bookings over each window. Hours are clipped
// to the window before summing; a booking counts toward a window when any
// portion overlaps it. Overlapping bookings are summed as-is: the vendor
// guarantees confirmed reservations do not overlap, but the rate is still
// clamped to [0,1] against malformed upstream data.
func (e *Engine) Aggregate(hours, bookings []Interval, start time.Time, windows []Window) []Metrics {
	out := make([]Metrics, 0, len(windows))

	for _, w := range windows {
		bounds := w.Bounds(start)
		m := Metrics{Window: w}

		for _, h := range hours {
			m.AvailableHours += h.Clip(bounds).Hours()
		}
		for _, b := range bookings {
			if !b.Overlaps(bounds) {
				continue
			}
			m.BookingCount++
			m.BookedHours += b.Clip(bounds).Hours()
		}

		if m.AvailableHours > 0 {
			m.Rate = m.BookedHours / m.AvailableHours
			if m.Rate > 1 {
				m.Rate = 1
			}
		}
		out = append(out, m)
	}

	return out
}

// NextSlot finds the earliest increment-aligned start at or after now where a
// contiguous slot of the engine's duration fits inside a single day's open
// interval without overlapping any booking. Operating intervals are scanned in
// chronological order; ErrNoAvailability is returned when they are exhausted.
func (e *Engine) NextSlot(hours, bookings []Interval, now time.Time) (time.Time, error) {
	if e.SlotDuration <= 0 {
		return time.Time{}, errors.New("slot duration must be positive")
	}

	sorted := make([]Interval, len(hours))
	copy(sorted, hours)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	for _, open := range sorted {
		cursor := open.Start
		if cursor.Before(now) {
			cursor = now
		}
		cursor = e.alignUp(cursor)

		for !cursor.Add(e.SlotDuration).After(open.End) {
			candidate := Interval{Start: cursor, End: cursor.Add(e.SlotDuration)}
			if !e.conflicts(candidate, bookings) {
				return cursor, nil
			}
			cursor = cursor.Add(slotStep)
		}
	}

	return time.Time{}, ErrNoAvailability
}

func (e *Engine) conflicts(candidate Interval, bookings []Interval) bool {
	for _, b := range bookings {
		if candidate.Overlaps(b) {
			return true
		}
	}
	return false
}

// alignUp rounds t up to the next allowed start minute.
func (e *Engine) alignUp(t time.Time) time.Time {
	increments := e.Increments
	if len(increments) == 0 {
		increments = DefaultIncrements
	}

	if trunc := t.Truncate(time.Minute); trunc.Equal(t) {
		t = trunc
	} else {
		t = trunc.Add(time.Minute)
	}
	for i := 0; i < 60; i++ {
		minute := t.Minute()
		for _, inc := range increments {
			if minute == inc {
				return t
			}
		}
		t = t.Add(time.Minute)
	}
	return t
}
