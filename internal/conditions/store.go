package conditions

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
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a sqlite-backed Provider. The schema is managed through embedded
// migrations so replay tools and tests can open a fresh database file and get
// a usable store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the conditions database at path and brings
// the schema up to date.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open conditions db: %w", err)
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

// SaveBadChannels replaces the stored bad-channel set with addrs, recording
// the flagging reason on each row.
func (s *Store) SaveBadChannels(ctx context.Context, addrs []int, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bad_channels`); err != nil {
		return err
	}
	now := time.Now().UnixNano()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO bad_channels (address, flagged_unix_nanos, reason) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, addr := range addrs {
		if _, err := stmt.ExecContext(ctx, addr, now, reason); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// BadChannels implements Provider.
func (s *Store) BadChannels(ctx context.Context) (*BadChannelMap, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT address FROM bad_channels`)
	if err != nil {
		return nil, fmt.Errorf("query bad channels: %w", err)
	}
	defer rows.Close()

	m := NewBadChannelMap()
	for rows.Next() {
		var addr int
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		m.MarkBad(addr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
