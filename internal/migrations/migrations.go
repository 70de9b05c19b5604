package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// Versions lists the embedded migration versions in apply order.
func Versions() ([]uint, error) {
	src, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return nil, fmt.Errorf("failed to read first migration: %w", err)
	}
	versions := []uint{v}
	for {
		v, err = src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return versions, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read migration after %d: %w", v, err)
		}
		versions = append(versions, v)
	}
}

// RunMigrations applies the embedded schema (sales, reference tables, the
// sale_inserted trigger and reports) to db.
// With autoMigrate false it only reports the current version.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		// Every migration is idempotent (IF NOT EXISTS / OR REPLACE), so
		// rolling the marker back one step and re-applying is safe.
		slog.Warn("[Migrations] Dirty schema version, re-applying",
			"version", version)
		if err := m.Force(previousVersion(version)); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled",
			"current_version", version,
			"dirty", dirty)
		return nil
	}

	slog.Info("[Migrations] Applying", "current_version", version)
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}
	slog.Info("[Migrations] Completed",
		"from_version", version,
		"to_version", newVersion)
	return nil
}

// previousVersion returns the version to force before re-running a dirty
// one. -1 tells migrate there is no applied version.
func previousVersion(dirty uint) int {
	versions, err := Versions()
	if err != nil {
		return -1
	}
	prev := -1
	for _, v := range versions {
		if v >= dirty {
			break
		}
		prev = int(v)
	}
	return prev
}
