package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// Store keeps per-run per-space metrics so the dashboard can build time
// series without re-reading old CSV exports.
type Store struct {
	*sql.DB
	logger *zerolog.Logger
}

// Row is one space/window measurement from a recorded run.
type Row struct {
	RunID         string
	RunDate       string // YYYY-MM-DD
	SpaceID       string
	SpaceName     string
	CategoryName  string
	LocationName  string
	Window        string
	BookingRate   float64
	AvailableHrs  float64
	BookedHrs     float64
	BookingCount  int
	NextAvailable *string // YYYY-MM-DD HH:MM, nil when none found
}

// NewStore opens (and if needed initializes) the history database.
func NewStore(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect to history database: %w", err)
	}

	s := &Store{DB: db, logger: logger}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("create history tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL UNIQUE,
		window_weeks INTEGER NOT NULL,
		slot_duration_minutes INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS space_metrics (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		space_id TEXT NOT NULL,
		space_name TEXT NOT NULL,
		category_name TEXT NOT NULL,
		location_name TEXT NOT NULL,
		window TEXT NOT NULL,
		booking_rate REAL NOT NULL,
		available_hours REAL NOT NULL,
		booked_hours REAL NOT NULL,
		booking_count INTEGER NOT NULL,
		next_available TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_space_metrics_run ON space_metrics(run_id);
	`
	_, err := s.Exec(schema)
	return err
}

// RecordRun stores a run's rows. Re-recording the same run date replaces the
// earlier rows so a same-day re-run stays idempotent.
func (s *Store) RecordRun(ctx context.Context, runID string, runDate time.Time, windowWeeks, slotMinutes int, rows []Row) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	date := runDate.Format("2006-01-02")

	var oldID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM runs WHERE run_date = ?`, date).Scan(&oldID)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return err
	default:
		if _, err = tx.ExecContext(ctx, `DELETE FROM space_metrics WHERE run_id = ?`, oldID); err != nil {
			return err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, oldID); err != nil {
			return err
		}
		if s.logger != nil {
			s.logger.Info().Str("run_date", date).Msg("replacing earlier run for the same date")
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, run_date, window_weeks, slot_duration_minutes) VALUES (?, ?, ?, ?)`,
		runID, date, windowWeeks, slotMinutes,
	); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO space_metrics
		(run_id, space_id, space_name, category_name, location_name, window,
		 booking_rate, available_hours, booked_hours, booking_count, next_available)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx,
			runID, r.SpaceID, r.SpaceName, r.CategoryName, r.LocationName, r.Window,
			r.BookingRate, r.AvailableHrs, r.BookedHrs, r.BookingCount, r.NextAvailable,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// LatestRun returns the rows of the most recent run, or nil when the store is
// empty.
func (s *Store) LatestRun(ctx context.Context) ([]Row, error) {
	var runID, runDate string
	err := s.QueryRowContext(ctx, `SELECT id, run_date FROM runs ORDER BY run_date DESC LIMIT 1`).Scan(&runID, &runDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.runRows(ctx, runID, runDate)
}

// MondayRuns returns rows from all runs whose run date is a Monday, oldest
// first. The dashboard time series only advances on Mondays.
func (s *Store) MondayRuns(ctx context.Context) ([]Row, error) {
	rows, err := s.QueryContext(ctx, `SELECT id, run_date FROM runs ORDER BY run_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type run struct{ id, date string }
	var mondays []run
	for rows.Next() {
		var r run
		if err := rows.Scan(&r.id, &r.date); err != nil {
			return nil, err
		}
		d, err := time.Parse("2006-01-02", r.date)
		if err != nil {
			continue
		}
		if d.Weekday() == time.Monday {
			mondays = append(mondays, r)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []Row
	for _, r := range mondays {
		part, err := s.runRows(ctx, r.id, r.date)
		if err != nil {
			return nil, err
		}
		out = append(out, part...)
	}
	return out, nil
}

func (s *Store) runRows(ctx context.Context, runID, runDate string) ([]Row, error) {
	rows, err := s.QueryContext(ctx, `
		SELECT space_id, space_name, category_name, location_name, window,
		       booking_rate, available_hours, booked_hours, booking_count, next_available
		FROM space_metrics WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r := Row{RunID: runID, RunDate: runDate}
		var next sql.NullString
		if err := rows.Scan(&r.SpaceID, &r.SpaceName, &r.CategoryName, &r.LocationName, &r.Window,
			&r.BookingRate, &r.AvailableHrs, &r.BookedHrs, &r.BookingCount, &next); err != nil {
			return nil, err
		}
		if next.Valid {
			r.NextAvailable = &next.String
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunDates lists recorded run dates, oldest first.
func (s *Store) RunDates(ctx context.Context) ([]string, error) {
	rows, err := s.QueryContext(ctx, `SELECT run_date FROM runs`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, rows.Err()
}
