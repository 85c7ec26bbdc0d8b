package spaces

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Space is one roster row: a bookable space and the category and location it
// belongs to. The location id drives hours queries while the space id drives
// bookings queries; the two identifier namespaces are unrelated upstream.
type Space struct {
	CategoryID   string
	CategoryName string
	SpaceID      string
	SpaceName    string
	LocationID   string
	LocationName string
}

var requiredColumns = []string{
	"category_id",
	"category_name",
	"space_id",
	"space_name",
	"location_id",
	"location_name",
}

// ErrValidation marks roster validation failures so callers can distinguish
// bad input from I/O errors.
var ErrValidation = errors.New("roster validation")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// LoadRoster reads the space roster CSV. Every required column must be present
// and non-empty on every row; errors name the offending field and row (the
// header is row 1).
func LoadRoster(path string) ([]Space, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("input file not found: %s", path)
		}
		return nil, err
	}
	defer f.Close()

	return parseRoster(f)
}

func parseRoster(r io.Reader) ([]Space, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, validationError("CSV file is empty or has no header")
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			return nil, validationError("missing required column %q", col)
		}
	}

	var roster []Space
	for rowNum := 2; ; rowNum++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		fields := make(map[string]string, len(requiredColumns))
		for _, col := range requiredColumns {
			i := index[col]
			if i >= len(record) || strings.TrimSpace(record[i]) == "" {
				return nil, validationError("row %d: missing or empty value for %q", rowNum, col)
			}
			fields[col] = strings.TrimSpace(record[i])
		}

		roster = append(roster, Space{
			CategoryID:   fields["category_id"],
			CategoryName: fields["category_name"],
			SpaceID:      fields["space_id"],
			SpaceName:    fields["space_name"],
			LocationID:   fields["location_id"],
			LocationName: fields["location_name"],
		})
	}

	if len(roster) == 0 {
		return nil, validationError("no valid space data found in CSV")
	}
	return roster, nil
}
