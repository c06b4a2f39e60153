package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var schemaFS embed.FS

// ErrDirtySchema means a previous migration failed halfway: the schema
// must be repaired by hand before the service can start.
var ErrDirtySchema = errors.New("database schema is dirty")

// newMigrator reads the embedded survey schema and targets db. Closing the
// migrator would close db too, so callers just drop it.
func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	schema, err := iofs.New(schemaFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("database.migrate.source: %w", err)
	}

	target, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("database.migrate.target: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", schema, "sqlite3", target)
	if err != nil {
		return nil, fmt.Errorf("database.migrate.init: %w", err)
	}
	return m, nil
}

// migrateDB applies every pending survey migration and reports the
// resulting schema version.
func migrateDB(db *sql.DB) (version uint, err error) {
	m, err := newMigrator(db)
	if err != nil {
		return 0, err
	}

	err = m.Up()
	var dirty migrate.ErrDirty
	if errors.As(err, &dirty) {
		return uint(dirty.Version), fmt.Errorf("database.migrate: version %d: %w", dirty.Version, ErrDirtySchema)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("database.migrate.up: %w", err)
	}

	version, _, err = m.Version()
	if err != nil {
		return 0, fmt.Errorf("database.migrate.version: %w", err)
	}
	return version, nil
}
