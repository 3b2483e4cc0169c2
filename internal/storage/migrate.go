package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies the embedded schema to conn. There is no row
// migration across schema versions: if the database carries a dirty or
// unknown schema the whole store is dropped and rebuilt.
func runMigrations(conn *sql.DB) error {
	m, err := newMigrator(conn)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Warn("schema mismatch, resetting store", "error", err)
		if err := m.Drop(); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
		// Drop removes the version table too, so a fresh instance is needed.
		m, err = newMigrator(conn)
		if err != nil {
			return err
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply schema after reset: %w", err)
		}
	}

	return nil
}

// newMigrator builds a migrate instance over the shared connection. The
// instance is never closed: closing it would close the connection itself.
func newMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return m, nil
}
