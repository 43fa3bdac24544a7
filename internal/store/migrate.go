package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sumit-bhole/Acadlinker-NPAI/internal/store/migrations"
)

// MigrateResult reports the schema version before and after Migrate.
type MigrateResult struct {
	From    uint
	Version uint
	Changed bool
}

// Migrate applies the embedded journal schema. A database left dirty by a
// crashed migration is forced back to its last clean version and retried.
func (db *DB) Migrate() (*MigrateResult, error) {
	m, err := db.migrator()
	if err != nil {
		return nil, err
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return nil, fmt.Errorf("read schema version: %w", err)
	case dirty:
		prev := cleanVersion(from)
		if err := m.Force(prev); err != nil {
			return nil, fmt.Errorf("reset dirty schema %d: %w", from, err)
		}
		from = uint(max(prev, 0))
	}

	res := &MigrateResult{From: from, Version: from}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	if v, _, err := m.Version(); err == nil {
		res.Version = v
	}
	res.Changed = res.Version != res.From
	return res, nil
}

func (db *DB) migrator() (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	drv, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", drv)
	if err != nil {
		return nil, fmt.Errorf("migrator: %w", err)
	}
	return m, nil
}

// cleanVersion is the last version applied before v. Versions are numbered
// from 1 without gaps; -1 means none.
func cleanVersion(v uint) int {
	if v <= 1 {
		return -1
	}
	return int(v) - 1
}
