package analyzer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkulibraries/spacemetrics/internal/availability"
	"github.com/yorkulibraries/spacemetrics/internal/spaces"
)

// fakeClient serves canned hours/bookings and records call counts.
type fakeClient struct {
	hours      map[string][]availability.Interval
	bookings   map[string][]availability.Interval
	failSpaces map[string]bool
	hoursCalls int
}

func (f *fakeClient) Hours(_ context.Context, locationID string, _, _ time.Time) ([]availability.Interval, error) {
	f.hoursCalls++
	hrs, ok := f.hours[locationID]
	if !ok {
		return nil, fmt.Errorf("no such location %s", locationID)
	}
	return hrs, nil
}

func (f *fakeClient) Bookings(_ context.Context, spaceID string, _ time.Time, _ int) ([]availability.Interval, error) {
	if f.failSpaces[spaceID] {
		return nil, fmt.Errorf("http 502")
	}
	return f.bookings[spaceID], nil
}

func testRoster() []spaces.Space {
	return []spaces.Space{
		{CategoryID: "10", CategoryName: "Media Studios", SpaceID: "19904",
			SpaceName: "Recording Studio A", LocationID: "7571", LocationName: "Scott Library"},
		{CategoryID: "10", CategoryName: "Media Studios", SpaceID: "19905",
			SpaceName: "Recording Studio B", LocationID: "7571", LocationName: "Scott Library"},
	}
}

func newTestAnalyzer(client APIClient, now time.Time) *Analyzer {
	a := New(client, availability.NewEngine(time.Hour), time.UTC, 13, zerolog.Nop())
	a.now = func() time.Time { return now }
	return a
}

func TestRunSharesHoursPerLocation(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	open := availability.Interval{
		Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
	}
	client := &fakeClient{
		hours: map[string][]availability.Interval{"7571": {open}},
		bookings: map[string][]availability.Interval{
			"19904": {{
				Start: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC),
			}},
		},
	}

	results, err := newTestAnalyzer(client, now).Run(context.Background(), testRoster())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, client.hoursCalls, "co-located spaces must share one hours fetch")

	// Space with a booking: 8h open in every window, 1.5h booked.
	first := results[0]
	require.Len(t, first.Metrics, 5)
	assert.Equal(t, "1week", first.Metrics[0].Window.Name)
	assert.Equal(t, 8.0, first.Metrics[0].AvailableHours)
	assert.Equal(t, 1.5, first.Metrics[0].BookedHours)
	assert.Equal(t, 1, first.Metrics[0].BookingCount)
	assert.InDelta(t, 1.5/8.0, first.Metrics[0].Rate, 1e-9)

	// Before opening, the first slot is the opening hour itself.
	require.NotNil(t, first.NextAvailable)
	assert.Equal(t, open.Start, *first.NextAvailable)

	// Booking-free space has a zero booked rate.
	second := results[1]
	assert.Equal(t, 0.0, second.Metrics[0].BookedHours)
	assert.Equal(t, 0.0, second.Metrics[0].Rate)
}

func TestRunSkipsFailedSpace(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	client := &fakeClient{
		hours: map[string][]availability.Interval{"7571": {{
			Start: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC),
		}}},
		failSpaces: map[string]bool{"19904": true},
	}

	results, err := newTestAnalyzer(client, now).Run(context.Background(), testRoster())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "19905", results[0].Space.SpaceID)
}

func TestRunAllSpacesFailed(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	client := &fakeClient{hours: map[string][]availability.Interval{}}

	_, err := newTestAnalyzer(client, now).Run(context.Background(), testRoster())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 2 spaces failed")
}

func TestRunNoAvailability(t *testing.T) {
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	client := &fakeClient{
		hours: map[string][]availability.Interval{"7571": nil}, // closed the whole horizon
	}

	results, err := newTestAnalyzer(client, now).Run(context.Background(), testRoster()[:1])
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Nil(t, results[0].NextAvailable)
	assert.Equal(t, 0.0, results[0].Metrics[0].AvailableHours)
	assert.Equal(t, 0.0, results[0].Metrics[0].Rate)
}
