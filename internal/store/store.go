package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/planbiir/daytrips/internal/sample"
)

const schema = `
	CREATE TABLE IF NOT EXISTS steps (
		time_ms INTEGER NOT NULL,
		cumulative INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS steps_time ON steps(time_ms);

	CREATE TABLE IF NOT EXISTS locations (
		time_ms INTEGER NOT NULL,
		lat REAL NOT NULL,
		lon REAL NOT NULL,
		alt REAL NOT NULL DEFAULT 0,
		accuracy REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS locations_time ON locations(time_ms);

	CREATE TABLE IF NOT EXISTS activities (
		time_ms INTEGER NOT NULL,
		activity TEXT NOT NULL,
		edge TEXT NOT NULL CHECK (edge IN ('ENTER', 'EXIT'))
	);
	CREATE INDEX IF NOT EXISTS activities_time ON activities(time_ms);

	CREATE TABLE IF NOT EXISTS battery (
		time_ms INTEGER NOT NULL,
		level INTEGER NOT NULL,
		charging INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS battery_time ON battery(time_ms);
`

// Store reads and writes sensor samples in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sample database at path. Use
// ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps ":memory:" databases alive across calls
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Steps returns step counter samples of [start,end) ordered by time.
func (s *Store) Steps(ctx context.Context, start, end time.Time) ([]sample.Step, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_ms, cumulative FROM steps
		WHERE time_ms >= ? AND time_ms < ?
		ORDER BY time_ms ASC, rowid ASC
	`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var out []sample.Step
	for rows.Next() {
		var st sample.Step
		if err := rows.Scan(&st.TimeMillis, &st.CumulativeSteps); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Locations returns GPS fixes of [start,end) ordered by time.
func (s *Store) Locations(ctx context.Context, start, end time.Time) ([]sample.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_ms, lat, lon, alt, accuracy FROM locations
		WHERE time_ms >= ? AND time_ms < ?
		ORDER BY time_ms ASC, rowid ASC
	`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []sample.Location
	for rows.Next() {
		var l sample.Location
		if err := rows.Scan(&l.TimeMillis, &l.Lat, &l.Lon, &l.Alt, &l.Accuracy); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Activities returns activity transitions of [start,end) ordered by time.
func (s *Store) Activities(ctx context.Context, start, end time.Time) ([]sample.Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_ms, activity, edge FROM activities
		WHERE time_ms >= ? AND time_ms < ?
		ORDER BY time_ms ASC, rowid ASC
	`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []sample.Activity
	for rows.Next() {
		var a sample.Activity
		var name, edge string
		if err := rows.Scan(&a.TimeMillis, &name, &edge); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.Type = sample.ParseActivity(name)
		if strings.EqualFold(edge, "EXIT") {
			a.Edge = sample.Exit
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Battery returns battery samples of [start,end) ordered by time.
func (s *Store) Battery(ctx context.Context, start, end time.Time) ([]sample.Battery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time_ms, level, charging FROM battery
		WHERE time_ms >= ? AND time_ms < ?
		ORDER BY time_ms ASC, rowid ASC
	`, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query battery: %w", err)
	}
	defer rows.Close()

	var out []sample.Battery
	for rows.Next() {
		var b sample.Battery
		if err := rows.Scan(&b.TimeMillis, &b.Level, &b.Charging); err != nil {
			return nil, fmt.Errorf("scan battery: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// InsertSteps appends step samples in one transaction.
func (s *Store) InsertSteps(ctx context.Context, steps []sample.Step) error {
	return s.insert(ctx, "INSERT INTO steps (time_ms, cumulative) VALUES (?, ?)", len(steps), func(i int) []any {
		return []any{steps[i].TimeMillis, steps[i].CumulativeSteps}
	})
}

// InsertLocations appends GPS fixes in one transaction.
func (s *Store) InsertLocations(ctx context.Context, locs []sample.Location) error {
	return s.insert(ctx, "INSERT INTO locations (time_ms, lat, lon, alt, accuracy) VALUES (?, ?, ?, ?, ?)", len(locs), func(i int) []any {
		l := locs[i]
		return []any{l.TimeMillis, l.Lat, l.Lon, l.Alt, l.Accuracy}
	})
}

// InsertActivities appends activity transitions in one transaction.
func (s *Store) InsertActivities(ctx context.Context, acts []sample.Activity) error {
	return s.insert(ctx, "INSERT INTO activities (time_ms, activity, edge) VALUES (?, ?, ?)", len(acts), func(i int) []any {
		return []any{acts[i].TimeMillis, acts[i].Type.String(), acts[i].Edge.String()}
	})
}

// InsertBattery appends battery samples in one transaction.
func (s *Store) InsertBattery(ctx context.Context, samples []sample.Battery) error {
	return s.insert(ctx, "INSERT INTO battery (time_ms, level, charging) VALUES (?, ?, ?)", len(samples), func(i int) []any {
		return []any{samples[i].TimeMillis, samples[i].Level, samples[i].Charging}
	})
}

func (s *Store) insert(ctx context.Context, query string, n int, args func(int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}
