package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yorkulibraries/spacemetrics/internal/availability"
	"github.com/yorkulibraries/spacemetrics/internal/history"
)

// Default location ordering for the cards grid; unknown locations sort last.
var defaultLocationOrder = []string{
	"Scott Library",
	"Media Creation Studios",
	"Visualization Studio",
}

var (
	greenRGB = [3]int{34, 197, 94}
	redRGB   = [3]int{239, 68, 68}
)

// Generator renders the static dashboard from recorded run history.
type Generator struct {
	store          *history.Store
	docsDir        string
	redCeilingDays int
	locationOrder  []string
	tz             *time.Location
	logger         zerolog.Logger

	now func() time.Time
}

func NewGenerator(store *history.Store, docsDir string, redCeilingDays int, tz *time.Location, logger zerolog.Logger) *Generator {
	return &Generator{
		store:          store,
		docsDir:        docsDir,
		redCeilingDays: redCeilingDays,
		locationOrder:  defaultLocationOrder,
		tz:             tz,
		logger:         logger,
		now:            time.Now,
	}
}

// card is one space's current availability tile. Color is a computed
// rgb(...) literal, never user input.
type card struct {
	SpaceName     string
	LocationName  string
	NextAvailable string
	Color         template.CSS
}

// locationCards groups cards under a location heading.
type locationCards struct {
	LocationName string
	Cards        []card
}

// seriesPoint allows gaps in a space's series.
type seriesPoint *float64

type windowSeries struct {
	Labels []string      `json:"labels"`
	Series []spaceSeries `json:"series"`
}

type spaceSeries struct {
	Name string        `json:"name"`
	Data []seriesPoint `json:"data"`
}

// timeSeriesData is the JSON contract consumed by the chart script.
type timeSeriesData struct {
	Windows map[string]windowSeries `json:"windows"`
}

// Generate writes index.html and time_series_data.json under the docs dir.
func (g *Generator) Generate(ctx context.Context) error {
	if err := os.MkdirAll(g.docsDir, 0o755); err != nil {
		return fmt.Errorf("create docs directory: %w", err)
	}

	latest, err := g.store.LatestRun(ctx)
	if err != nil {
		return fmt.Errorf("load latest run: %w", err)
	}
	if len(latest) == 0 {
		return fmt.Errorf("no recorded runs; run an analysis first")
	}

	mondays, err := g.store.MondayRuns(ctx)
	if err != nil {
		return fmt.Errorf("load Monday runs: %w", err)
	}

	series := buildTimeSeries(mondays)
	data, err := json.MarshalIndent(series, "", "  ")
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(g.docsDir, "time_series_data.json")
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("write time series: %w", err)
	}

	page := pageData{
		GeneratedAt: g.now().In(g.tz).Format("2006-01-02 15:04"),
		RunDate:     latest[0].RunDate,
		Locations:   g.buildCards(latest),
		Windows:     windowNames(),
	}
	htmlPath := filepath.Join(g.docsDir, "index.html")
	f, err := os.Create(htmlPath)
	if err != nil {
		return fmt.Errorf("write dashboard page: %w", err)
	}
	defer f.Close()
	if err := pageTemplate.Execute(f, page); err != nil {
		return fmt.Errorf("render dashboard page: %w", err)
	}

	g.logger.Info().Str("docs_dir", g.docsDir).Int("monday_runs", countRuns(mondays)).Msg("dashboard generated")
	return nil
}

func windowNames() []string {
	windows := availability.Windows()
	names := make([]string, len(windows))
	for i, w := range windows {
		names[i] = w.Name
	}
	return names
}

func countRuns(rows []history.Row) int {
	seen := make(map[string]bool)
	for _, r := range rows {
		seen[r.RunID] = true
	}
	return len(seen)
}

// buildCards turns the latest run into per-location card groups. Each space
// contributes one card regardless of how many window rows it has.
func (g *Generator) buildCards(rows []history.Row) []locationCards {
	runDate, _ := time.ParseInLocation("2006-01-02", rows[0].RunDate, g.tz)

	type key struct{ location, space string }
	seen := make(map[key]bool)
	byLocation := make(map[string][]card)
	var locationNames []string

	for _, r := range rows {
		k := key{r.LocationName, r.SpaceName}
		if seen[k] {
			continue
		}
		seen[k] = true

		if _, ok := byLocation[r.LocationName]; !ok {
			locationNames = append(locationNames, r.LocationName)
		}

		c := card{
			SpaceName:     r.SpaceName,
			LocationName:  r.LocationName,
			NextAvailable: noAvailabilityLabel,
			Color:         rgbString(redRGB),
		}
		if r.NextAvailable != nil {
			c.NextAvailable = *r.NextAvailable
			if next, err := time.ParseInLocation("2006-01-02 15:04", *r.NextAvailable, g.tz); err == nil {
				days := int(next.Sub(runDate).Hours() / 24)
				c.Color = g.interpolateColor(days)
			}
		}
		byLocation[r.LocationName] = append(byLocation[r.LocationName], c)
	}

	sort.SliceStable(locationNames, func(i, j int) bool {
		return g.locationPriority(locationNames[i]) < g.locationPriority(locationNames[j])
	})

	out := make([]locationCards, 0, len(locationNames))
	for _, name := range locationNames {
		out = append(out, locationCards{LocationName: name, Cards: byLocation[name]})
	}
	return out
}

const noAvailabilityLabel = "No availability"

func (g *Generator) locationPriority(name string) int {
	for i, known := range g.locationOrder {
		if strings.Contains(name, known) {
			return i
		}
	}
	return len(g.locationOrder) + 1
}

// interpolateColor maps days-until-available onto a green→red gradient with
// the configured red ceiling.
func (g *Generator) interpolateColor(days int) template.CSS {
	if days <= 0 {
		return rgbString(greenRGB)
	}
	if days >= g.redCeilingDays {
		return rgbString(redRGB)
	}

	ratio := float64(days) / float64(g.redCeilingDays)
	var c [3]int
	for i := range c {
		c[i] = greenRGB[i] + int(ratio*float64(redRGB[i]-greenRGB[i]))
	}
	return rgbString(c)
}

func rgbString(c [3]int) template.CSS {
	return template.CSS(fmt.Sprintf("rgb(%d, %d, %d)", c[0], c[1], c[2]))
}

// buildTimeSeries pivots Monday run rows into per-window labeled series of
// booking-rate percentages.
func buildTimeSeries(rows []history.Row) timeSeriesData {
	out := timeSeriesData{Windows: make(map[string]windowSeries)}

	dateSet := make(map[string]bool)
	for _, r := range rows {
		dateSet[r.RunDate] = true
	}
	labels := make([]string, 0, len(dateSet))
	for d := range dateSet {
		labels = append(labels, d)
	}
	sort.Strings(labels)

	for _, w := range availability.Windows() {
		// space name -> date -> rate
		values := make(map[string]map[string]float64)
		var spaceOrder []string
		for _, r := range rows {
			if r.Window != w.Name {
				continue
			}
			if _, ok := values[r.SpaceName]; !ok {
				values[r.SpaceName] = make(map[string]float64)
				spaceOrder = append(spaceOrder, r.SpaceName)
			}
			values[r.SpaceName][r.RunDate] = r.BookingRate * 100
		}

		ws := windowSeries{Labels: labels}
		for _, name := range spaceOrder {
			data := make([]seriesPoint, len(labels))
			for i, d := range labels {
				if v, ok := values[name][d]; ok {
					v := v
					data[i] = &v
				}
			}
			ws.Series = append(ws.Series, spaceSeries{Name: name, Data: data})
		}
		out.Windows[w.Name] = ws
	}

	return out
}
