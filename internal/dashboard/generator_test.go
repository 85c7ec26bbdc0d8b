package dashboard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkulibraries/spacemetrics/internal/history"
)

func seedStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	next := "2026-03-09 14:00"
	rows := func(rate float64) []history.Row {
		var out []history.Row
		for _, w := range []string{"1week", "2weeks", "1month", "2months", "3months"} {
			out = append(out, history.Row{
				SpaceID: "19904", SpaceName: "Recording Studio A",
				CategoryName: "Media Studios", LocationName: "Scott Library",
				Window: w, BookingRate: rate, AvailableHrs: 40, BookedHrs: rate * 40,
				BookingCount: 3, NextAvailable: &next,
			}, history.Row{
				SpaceID: "30001", SpaceName: "VR Studio",
				CategoryName: "Visualization", LocationName: "Visualization Studio",
				Window: w, BookingRate: rate / 2, AvailableHrs: 20, BookedHrs: rate * 10,
				BookingCount: 1, NextAvailable: nil,
			})
		}
		return out
	}

	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordRun(context.Background(), "run-1", monday, 13, 180, rows(0.25)))
	require.NoError(t, store.RecordRun(context.Background(), "run-2", monday.AddDate(0, 0, 7), 13, 180, rows(0.5)))
	return store
}

func newTestGenerator(t *testing.T, store *history.Store, docsDir string) *Generator {
	t.Helper()
	g := NewGenerator(store, docsDir, 14, time.UTC, zerolog.Nop())
	g.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerate(t *testing.T) {
	docsDir := filepath.Join(t.TempDir(), "docs")
	g := newTestGenerator(t, seedStore(t), docsDir)

	require.NoError(t, g.Generate(context.Background()))

	html, err := os.ReadFile(filepath.Join(docsDir, "index.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Recording Studio A")
	assert.Contains(t, page, "Scott Library")
	assert.Contains(t, page, "No availability")
	assert.Contains(t, page, "time_series_data.json")
	assert.Contains(t, page, "rgb(")

	// Scott Library must precede Visualization Studio in card order.
	assert.Less(t, strings.Index(page, "Scott Library"), strings.Index(page, "Visualization Studio"))

	raw, err := os.ReadFile(filepath.Join(docsDir, "time_series_data.json"))
	require.NoError(t, err)

	var data struct {
		Windows map[string]struct {
			Labels []string `json:"labels"`
			Series []struct {
				Name string     `json:"name"`
				Data []*float64 `json:"data"`
			} `json:"series"`
		} `json:"windows"`
	}
	require.NoError(t, json.Unmarshal(raw, &data))

	week, ok := data.Windows["1week"]
	require.True(t, ok)
	assert.Equal(t, []string{"2026-03-02", "2026-03-09"}, week.Labels)
	require.Len(t, week.Series, 2)
	assert.Equal(t, "Recording Studio A", week.Series[0].Name)
	require.Len(t, week.Series[0].Data, 2)
	assert.Equal(t, 25.0, *week.Series[0].Data[0])
	assert.Equal(t, 50.0, *week.Series[0].Data[1])
}

func TestGenerateEmptyStore(t *testing.T) {
	store, err := history.NewStore(filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	g := newTestGenerator(t, store, filepath.Join(t.TempDir(), "docs"))
	err = g.Generate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recorded runs")
}

func TestInterpolateColor(t *testing.T) {
	g := &Generator{redCeilingDays: 14}

	assert.Equal(t, rgbString(greenRGB), g.interpolateColor(0))
	assert.Equal(t, rgbString(greenRGB), g.interpolateColor(-3))
	assert.Equal(t, rgbString(redRGB), g.interpolateColor(14))
	assert.Equal(t, rgbString(redRGB), g.interpolateColor(30))

	mid := string(g.interpolateColor(7))
	assert.True(t, strings.HasPrefix(mid, "rgb("))
	assert.NotEqual(t, string(rgbString(greenRGB)), mid)
	assert.NotEqual(t, string(rgbString(redRGB)), mid)
}

func TestLocationPriority(t *testing.T) {
	g := &Generator{locationOrder: defaultLocationOrder}

	assert.Equal(t, 0, g.locationPriority("Scott Library - 2nd Floor"))
	assert.Equal(t, 1, g.locationPriority("Media Creation Studios"))
	assert.Equal(t, 2, g.locationPriority("Visualization Studio"))
	assert.Greater(t, g.locationPriority("Steacie Science Library"), 2)
}
