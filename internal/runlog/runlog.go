// Package runlog persists one summary row per finished monitoring run so
// operators can see what was processed without keeping the full report tree.
package runlog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunSummary is one finished run.
type RunSummary struct {
	ActivityID     uuid.UUID
	Mode           string
	Cycles         int
	Records        int64
	SkippedRecords int64
	FinishedAt     time.Time
}

// Store is the sqlite-backed run log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the run log at path and brings the schema
// up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrateUp() error {
	driver, err := sqlitemigrate.WithInstance(s.db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration setup: %w", err)
	}
	// Note: m is not closed here because that would close the underlying DB
	// connection; the instance is garbage collected when no longer needed.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Record appends one run summary.
func (s *Store) Record(ctx context.Context, r RunSummary) error {
	finished := r.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (activity_id, mode, cycles, records, skipped_records, finished_unix_nanos)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ActivityID.String(), r.Mode, r.Cycles, r.Records, r.SkippedRecords, finished.UnixNano())
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT activity_id, mode, cycles, records, skipped_records, finished_unix_nanos
		 FROM runs ORDER BY finished_unix_nanos DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r     RunSummary
			id    string
			nanos int64
		)
		if err := rows.Scan(&id, &r.Mode, &r.Cycles, &r.Records, &r.SkippedRecords, &nanos); err != nil {
			return nil, err
		}
		r.ActivityID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("bad activity id %q: %w", id, err)
		}
		r.FinishedAt = time.Unix(0, nanos)
		out = append(out, r)
	}
	return out, rows.Err()
}
