// Package migrations manages the schema of the sqlite snapshot slot.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// Status describes where a database stands relative to the embedded migrations.
type Status struct {
	Current uint // 0 when no migration has ever run
	Latest  uint
	Dirty   bool
}

// UpToDate reports whether the schema matches the binary exactly.
func (s *Status) UpToDate() bool {
	return !s.Dirty && s.Current == s.Latest
}

// Inspect reads the schema version of db without changing it.
func Inspect(db *sql.DB) (*Status, error) {
	m, err := newMigrate(db)
	if err != nil {
		return nil, err
	}
	// m is not closed: closing it would close db, which the caller owns.

	latest, err := latestVersion()
	if err != nil {
		return nil, err
	}

	status := &Status{Latest: latest}
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return status, nil
	case err != nil:
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	status.Current = version
	status.Dirty = dirty
	return status, nil
}

// CheckDBMigrationStatus returns nil if the snapshot schema is at the latest
// version, and an error describing the mismatch otherwise.
func CheckDBMigrationStatus(db *sql.DB) error {
	status, err := Inspect(db)
	if err != nil {
		return err
	}

	switch {
	case status.Dirty:
		return fmt.Errorf("snapshot schema is dirty at version %d (a migration failed previously)", status.Current)
	case status.Current == 0:
		return fmt.Errorf("snapshot schema has no version (needs migration)")
	case status.Current < status.Latest:
		return fmt.Errorf("snapshot schema is at version %d but latest is %d", status.Current, status.Latest)
	case status.Current > status.Latest:
		return fmt.Errorf("snapshot schema version %d is ahead of binary version %d (binary needs update)", status.Current, status.Latest)
	}
	return nil
}

// MigrateUp applies all pending migrations. An up-to-date schema is not an error.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating snapshot schema: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	dbDriver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("creating sqlite migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", dbDriver)
	if err != nil {
		sourceDriver.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

// latestVersion returns the highest version among the embedded migrations.
func latestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, fmt.Errorf("reading embedded migrations: %w", err)
	}
	defer src.Close()
	return lastVersion(src)
}

func lastVersion(src source.Driver) (uint, error) {
	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("finding first migration: %w", err)
	}
	for {
		next, err := src.Next(version)
		if err != nil {
			// Next fails once there are no more migrations.
			return version, nil
		}
		version = next
	}
}
