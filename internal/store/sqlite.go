package store

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"fsdrift/internal/drift"
	"fsdrift/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteBackend keeps the snapshot in the single row of the snapshot table.
type SQLiteBackend struct {
	db    *sql.DB
	path  string
	clock drift.Clock
}

// NewSQLiteBackend opens (creating if needed) the database at path and brings
// its schema up to date. path can be ":memory:" for tests.
func NewSQLiteBackend(path string, clock drift.Clock) (*SQLiteBackend, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteBackend{db: db, path: path, clock: clock}, nil
}

// OpenConnection opens and configures a SQLite database connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; this also keeps ":memory:" databases on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (b *SQLiteBackend) Location() string { return "sqlite:" + b.path }

func (b *SQLiteBackend) Put(r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	_, err = b.db.Exec(`
		INSERT INTO snapshot (id, payload, size, saved_at) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, size = excluded.size, saved_at = excluded.saved_at`,
		data, size, b.clock.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("storing snapshot row: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Get(w io.Writer) (bool, error) {
	var data []byte
	err := b.db.QueryRow("SELECT payload FROM snapshot WHERE id = 1").Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("loading snapshot row: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return false, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return true, nil
}

// ValidateSetup checks that the connection is alive and the schema is current.
func (b *SQLiteBackend) ValidateSetup() error {
	if err := b.db.Ping(); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return migrations.CheckDBMigrationStatus(b.db)
}

// Close releases the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

// Compile-time check that SQLiteBackend implements Backend.
var _ Backend = (*SQLiteBackend)(nil)
