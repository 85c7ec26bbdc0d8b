package libcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/yorkulibraries/spacemetrics/internal/availability"
	"github.com/yorkulibraries/spacemetrics/internal/metrics"
)

const (
	hoursTimeLayout = "3:04pm"
	dateLayout      = "2006-01-02"
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	Timeout           time.Duration
	RequestsPerSecond float64
	HoursMaxDays      int
	BookingsPageLimit int
	Timezone          *time.Location
	Logger            zerolog.Logger
}

// Client talks to the LibCal v1.1 API with OAuth2 client-credentials
// authentication. One token is fetched per run and reused until expiry.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	tokenSource   oauth2.TokenSource
	limiter       *rate.Limiter
	tz            *time.Location
	hoursMaxDays  int
	bookingsLimit int
	logger        zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// NewClient constructs a client. The ctx owns the token source for the whole
// run.
func NewClient(ctx context.Context, opts Options) *Client {
	cc := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.BaseURL + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	hoursMax := opts.HoursMaxDays
	if hoursMax <= 0 {
		hoursMax = 100
	}
	pageLimit := opts.BookingsPageLimit
	if pageLimit <= 0 {
		pageLimit = 150
	}
	tz := opts.Timezone
	if tz == nil {
		tz = time.UTC
	}

	ts := cc.TokenSource(ctx)
	return &Client{
		baseURL:       opts.BaseURL,
		httpClient:    oauth2.NewClient(ctx, ts),
		tokenSource:   ts,
		limiter:       rate.NewLimiter(rate.Limit(rps), 1),
		tz:            tz,
		hoursMaxDays:  hoursMax,
		bookingsLimit: pageLimit,
		logger:        opts.Logger,
	}
}

// UseRedisCache configures optional Redis caching for GET endpoints.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// VerifyToken forces a token fetch so credential problems fail the run before
// any roster work starts.
func (c *Client) VerifyToken(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.tokenSource.Token(); err != nil {
		metrics.IncRequest("token", "error")
		return fmt.Errorf("obtain oauth token: %w", err)
	}
	metrics.IncRequest("token", "ok")
	return nil
}

// Hours fetches operating hours for a location over [from, to] (inclusive
// dates) and returns the open intervals sorted chronologically. Closed days
// and days with no ranges are omitted. Ranges over the vendor's 100-day cap
// are rejected before any request is made.
func (c *Client) Hours(ctx context.Context, locationID string, from, to time.Time) ([]availability.Interval, error) {
	days := int(to.Sub(from).Hours()/24) + 1
	if days > c.hoursMaxDays {
		return nil, fmt.Errorf("hours range %d days exceeds API cap of %d", days, c.hoursMaxDays)
	}

	endpoint := fmt.Sprintf("%s/hours/%s?from=%s&to=%s",
		c.baseURL, url.PathEscape(locationID),
		from.Format(dateLayout), to.Format(dateLayout))
	cacheKey := fmt.Sprintf("hours:%s:%s:%s", locationID, from.Format(dateLayout), to.Format(dateLayout))

	var locations []hoursLocation
	if !c.readCache(ctx, cacheKey, &locations) {
		if err := c.doGet(ctx, "hours", endpoint, &locations); err != nil {
			return nil, fmt.Errorf("fetch hours for location %s: %w", locationID, err)
		}
		c.writeCache(ctx, cacheKey, locations)
	}

	return c.parseHours(locations)
}

func (c *Client) parseHours(locations []hoursLocation) ([]availability.Interval, error) {
	var intervals []availability.Interval

	for _, loc := range locations {
		for dateStr, day := range loc.Dates {
			if day.Status != "open" || len(day.Hours) == 0 {
				continue
			}
			date, err := time.ParseInLocation(dateLayout, dateStr, c.tz)
			if err != nil {
				c.logger.Warn().Str("date", dateStr).Msg("skipping unparseable hours date")
				continue
			}
			for _, r := range day.Hours {
				open, err := parseClock(date, r.From)
				if err != nil {
					c.logger.Warn().Str("date", dateStr).Str("from", r.From).Msg("skipping unparseable open time")
					continue
				}
				closeAt, err := parseClock(date, r.To)
				if err != nil {
					c.logger.Warn().Str("date", dateStr).Str("to", r.To).Msg("skipping unparseable close time")
					continue
				}
				if !closeAt.After(open) {
					continue
				}
				intervals = append(intervals, availability.Interval{Start: open, End: closeAt})
			}
		}
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
	return intervals, nil
}

// Bookings fetches confirmed and tentative bookings for a space starting at
// from for the given number of days. Cancelled bookings are excluded and
// malformed entries skipped.
func (c *Client) Bookings(ctx context.Context, spaceID string, from time.Time, days int) ([]availability.Interval, error) {
	q := url.Values{}
	q.Set("eid", spaceID)
	q.Set("date", from.Format(dateLayout))
	q.Set("days", strconv.Itoa(days))
	q.Set("limit", strconv.Itoa(c.bookingsLimit))
	q.Set("include_tentative", "1")
	q.Set("include_cancel", "0")
	endpoint := fmt.Sprintf("%s/space/bookings?%s", c.baseURL, q.Encode())
	cacheKey := fmt.Sprintf("bookings:%s:%s:%d", spaceID, from.Format(dateLayout), days)

	var entries []bookingEntry
	if !c.readCache(ctx, cacheKey, &entries) {
		if err := c.doGet(ctx, "bookings", endpoint, &entries); err != nil {
			return nil, fmt.Errorf("fetch bookings for space %s: %w", spaceID, err)
		}
		c.writeCache(ctx, cacheKey, entries)
	}

	var bookings []availability.Interval
	for _, e := range entries {
		start, err := time.Parse(time.RFC3339, e.FromDate)
		if err != nil {
			c.logger.Warn().Str("space_id", spaceID).Str("from", e.FromDate).Msg("skipping malformed booking")
			continue
		}
		end, err := time.Parse(time.RFC3339, e.ToDate)
		if err != nil {
			c.logger.Warn().Str("space_id", spaceID).Str("to", e.ToDate).Msg("skipping malformed booking")
			continue
		}
		bookings = append(bookings, availability.Interval{
			Start: start.In(c.tz),
			End:   end.In(c.tz),
		})
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].Start.Before(bookings[j].Start)
	})
	return bookings, nil
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return false
	}
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.cacheTTL).Err()
}

func (c *Client) doGet(ctx context.Context, endpointName, endpoint string, out any) error {
	err := c.do(ctx, endpointName, endpoint, out)
	if err != nil && retryable(err) {
		c.logger.Warn().Err(err).Str("endpoint", endpointName).Msg("retrying request")
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = c.do(ctx, endpointName, endpoint, out)
	}
	return err
}

func (c *Client) do(ctx context.Context, endpointName, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveRequest(endpointName, time.Since(started))
	if err != nil {
		metrics.IncRequest(endpointName, "error")
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	metrics.IncRequest(endpointName, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode >= 300 {
		return &statusError{code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("http %d", e.code) }

type transportError struct{ err error }

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

func retryable(err error) bool {
	if se, ok := err.(*statusError); ok {
		return se.code >= 500
	}
	_, ok := err.(*transportError)
	return ok
}

// parseClock combines a date with a vendor clock string like "9:00am".
func parseClock(date time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(hoursTimeLayout, clock)
	if err != nil {
		// Some tenants return "9:00AM".
		t, err = time.Parse("3:04PM", clock)
		if err != nil {
			return time.Time{}, err
		}
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
