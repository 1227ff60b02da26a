package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/matheus3301/dmchat/internal/store/migrations"
)

// ErrDirtySchema is returned when a previous migration stopped halfway.
var ErrDirtySchema = errors.New("archive schema is dirty")

// MigrateResult reports the schema version before and after Migrate.
type MigrateResult struct {
	From    uint
	Version uint
	Changed bool
}

func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return nil, fmt.Errorf("migration instance: %w", err)
	}
	return m, nil
}

// Migrate applies every pending archive migration. A dirty schema is not
// touched.
func (db *DB) Migrate() (*MigrateResult, error) {
	m, err := db.migrator()
	if err != nil {
		return nil, err
	}
	from, err := version(m)
	if err != nil {
		return nil, err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("migration up: %w", err)
	}
	to, err := version(m)
	if err != nil {
		return nil, err
	}
	return &MigrateResult{From: from, Version: to, Changed: from != to}, nil
}

// SchemaVersion returns the applied migration version, 0 for a fresh file.
func (db *DB) SchemaVersion() (uint, error) {
	m, err := db.migrator()
	if err != nil {
		return 0, err
	}
	return version(m)
}

func version(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("migration version: %w", err)
	case dirty:
		return v, fmt.Errorf("%w at version %d", ErrDirtySchema, v)
	}
	return v, nil
}
