package db

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"payflow/internal/platform/db/migrations"
)

// Migrate applies the embedded migrations. An up-to-date schema is not an error.
func Migrate(d *DB) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return err
	}

	var (
		dbDriver database.Driver
		name     string
	)
	switch d.Dialect {
	case DialectPostgres:
		dbDriver, err = pgxmigrate.WithInstance(d.SQL, &pgxmigrate.Config{})
		name = "pgx5"
	default:
		dbDriver, err = sqlite.WithInstance(d.SQL, &sqlite.Config{})
		name = "sqlite"
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, name, dbDriver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations failed: %w", err)
	}
	return nil
}
