package spaces

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "category_id,category_name,space_id,space_name,location_id,location_name\n"

func writeRoster(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spaces.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRoster(t *testing.T) {
	path := writeRoster(t, header+
		"10,Media Studios,19904,Recording Studio A,7571,Scott Library\n"+
		"10,Media Studios,19905,Recording Studio B,7571,Scott Library\n")

	roster, err := LoadRoster(path)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	assert.Equal(t, Space{
		CategoryID:   "10",
		CategoryName: "Media Studios",
		SpaceID:      "19904",
		SpaceName:    "Recording Studio A",
		LocationID:   "7571",
		LocationName: "Scott Library",
	}, roster[0])
	assert.Equal(t, "19905", roster[1].SpaceID)
}

func TestLoadRosterMissingFile(t *testing.T) {
	_, err := LoadRoster(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input file not found")
}

func TestLoadRosterEmptyField(t *testing.T) {
	path := writeRoster(t, header+
		"10,Media Studios,19904,Recording Studio A,7571,Scott Library\n"+
		"10,Media Studios,,Recording Studio B,7571,Scott Library\n")

	_, err := LoadRoster(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "row 3")
	assert.Contains(t, err.Error(), `"space_id"`)
}

func TestLoadRosterMissingColumn(t *testing.T) {
	path := writeRoster(t, "category_id,category_name,space_id,space_name,location_id\n"+
		"10,Media Studios,19904,Recording Studio A,7571\n")

	_, err := LoadRoster(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), `"location_name"`)
}

func TestLoadRosterEmptyFile(t *testing.T) {
	path := writeRoster(t, "")

	_, err := LoadRoster(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLoadRosterHeaderOnly(t *testing.T) {
	path := writeRoster(t, header)

	_, err := LoadRoster(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no valid space data")
}
