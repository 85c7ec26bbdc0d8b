package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/yorkulibraries/spacemetrics/internal/availability"
	"github.com/yorkulibraries/spacemetrics/internal/metrics"
	"github.com/yorkulibraries/spacemetrics/internal/spaces"
)

// APIClient is the slice of the LibCal client the analyzer needs.
type APIClient interface {
	Hours(ctx context.Context, locationID string, from, to time.Time) ([]availability.Interval, error)
	Bookings(ctx context.Context, spaceID string, from time.Time, days int) ([]availability.Interval, error)
}

// SpaceResult is the full analysis outcome for one roster space.
type SpaceResult struct {
	Space         spaces.Space
	Metrics       []availability.Metrics
	NextAvailable *time.Time // nil when no slot exists within the horizon
}

// Analyzer runs the per-space analysis over a roster. Hours are cached per
// location for the run since co-located spaces share one operating schedule.
type Analyzer struct {
	client      APIClient
	engine      *availability.Engine
	tz          *time.Location
	windowWeeks int
	logger      zerolog.Logger

	now func() time.Time
}

func New(client APIClient, engine *availability.Engine, tz *time.Location, windowWeeks int, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		client:      client,
		engine:      engine,
		tz:          tz,
		windowWeeks: windowWeeks,
		logger:      logger,
		now:         time.Now,
	}
}

// Run analyzes every roster space sequentially. A space whose API calls fail
// is logged and skipped; the run only fails when no space succeeds.
func (a *Analyzer) Run(ctx context.Context, roster []spaces.Space) ([]SpaceResult, error) {
	now := a.now().In(a.tz)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.tz)
	horizonDays := a.windowWeeks * 7

	hoursCache := make(map[string][]availability.Interval)
	results := make([]SpaceResult, 0, len(roster))
	var failed int

	for i, space := range roster {
		a.logger.Info().
			Int("index", i+1).
			Int("total", len(roster)).
			Str("space", space.SpaceName).
			Msg("processing space")

		res, err := a.analyzeSpace(ctx, space, start, now, horizonDays, hoursCache)
		if err != nil {
			failed++
			metrics.IncSpaceResult("error")
			a.logger.Error().Err(err).
				Str("space_id", space.SpaceID).
				Str("location_id", space.LocationID).
				Msg("space analysis failed, skipping")
			continue
		}
		metrics.IncSpaceResult("ok")
		results = append(results, res)
	}

	if len(roster) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("all %d spaces failed", failed)
	}
	return results, nil
}

func (a *Analyzer) analyzeSpace(
	ctx context.Context,
	space spaces.Space,
	start, now time.Time,
	horizonDays int,
	hoursCache map[string][]availability.Interval,
) (SpaceResult, error) {
	hours, ok := hoursCache[space.LocationID]
	if !ok {
		var err error
		hours, err = a.client.Hours(ctx, space.LocationID, start, start.AddDate(0, 0, horizonDays))
		if err != nil {
			return SpaceResult{}, err
		}
		hoursCache[space.LocationID] = hours
	}

	bookings, err := a.client.Bookings(ctx, space.SpaceID, start, horizonDays)
	if err != nil {
		return SpaceResult{}, err
	}

	res := SpaceResult{
		Space:   space,
		Metrics: a.engine.Aggregate(hours, bookings, start, availability.Windows()),
	}

	slot, err := a.engine.NextSlot(hours, bookings, now)
	switch {
	case errors.Is(err, availability.ErrNoAvailability):
		// reported as "No availability" downstream
	case err != nil:
		return SpaceResult{}, err
	default:
		res.NextAvailable = &slot
	}

	return res, nil
}
