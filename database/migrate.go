package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus describes the schema version of a database
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
	Pending int
}

// Migrator applies the embedded schema migrations
type Migrator struct {
	m      *migrate.Migrate
	source source.Driver
}

// migrateLogger routes golang-migrate output through logrus
type migrateLogger struct{}

func (migrateLogger) Printf(format string, v ...any) {
	log.WithField("component", "migrate").Debugf(format, v...)
}

func (migrateLogger) Verbose() bool {
	return log.IsLevelEnabled(log.DebugLevel)
}

// NewMigrator opens a dedicated connection for migrations
func NewMigrator(databaseURL string) (*Migrator, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	driver, err := postgres.WithInstance(stdlib.OpenDB(*config.ConnConfig), &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{}

	return &Migrator{m: m, source: sourceDriver}, nil
}

// Close releases the migration connection
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up applies every pending migration. It returns true when something changed.
func (mg *Migrator) Up() (bool, error) {
	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to run migrations: %w", err)
	}
	return true, nil
}

// Down rolls back steps migrations
func (mg *Migrator) Down(steps int) (bool, error) {
	if steps <= 0 {
		return false, fmt.Errorf("steps must be positive, got %d", steps)
	}
	err := mg.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) || errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to rollback migrations: %w", err)
	}
	return true, nil
}

// Status reports the applied version and how many migrations are still pending
func (mg *Migrator) Status() (MigrationStatus, error) {
	var status MigrationStatus

	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
	case err != nil:
		return status, fmt.Errorf("failed to get migration version: %w", err)
	default:
		status.Version = version
		status.Dirty = dirty
		status.Applied = true
	}

	pending, err := mg.countPending(status)
	if err != nil {
		return status, err
	}
	status.Pending = pending
	return status, nil
}

func (mg *Migrator) countPending(status MigrationStatus) (int, error) {
	next, err := mg.source.First()
	if status.Applied {
		next, err = mg.source.Next(status.Version)
	}

	count := 0
	for err == nil {
		count++
		next, err = mg.source.Next(next)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("failed to read migration source: %w", err)
	}
	return count, nil
}

// getMigrationDatabaseURL reads the database URL straight from the
// environment so migrations do not need the full application config
func getMigrationDatabaseURL() string {
	return ConstructDatabaseURL(os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_NAME"))
}

func withMigrator(databaseURL string, fn func(*Migrator) error) error {
	mg, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			log.WithError(err).Warn("Failed to close migrator")
		}
	}()
	return fn(mg)
}

// MigrateUp runs all pending migrations
func MigrateUp() error {
	return withMigrator(getMigrationDatabaseURL(), func(mg *Migrator) error {
		changed, err := mg.Up()
		if err != nil {
			return err
		}
		if !changed {
			log.Info("No new migrations to apply")
			return nil
		}
		status, err := mg.Status()
		if err != nil {
			return err
		}
		log.WithField("version", status.Version).Info("Successfully migrated")
		return nil
	})
}

// MigrateDown rolls back the specified number of migrations
func MigrateDown(stepsStr string) error {
	steps, err := strconv.Atoi(stepsStr)
	if err != nil {
		return fmt.Errorf("invalid steps value: %w", err)
	}

	return withMigrator(getMigrationDatabaseURL(), func(mg *Migrator) error {
		changed, err := mg.Down(steps)
		if err != nil {
			return err
		}
		if !changed {
			log.Info("No migrations to rollback")
			return nil
		}
		status, err := mg.Status()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.Info("Rolled back all migrations")
			return nil
		}
		log.WithField("version", status.Version).Info("Successfully rolled back")
		return nil
	})
}

// MigrateStatus logs the current migration status
func MigrateStatus() error {
	return withMigrator(getMigrationDatabaseURL(), func(mg *Migrator) error {
		status, err := mg.Status()
		if err != nil {
			return err
		}
		if !status.Applied {
			log.WithField("pending", status.Pending).Info("No migrations have been applied yet")
			return nil
		}

		state := "clean"
		if status.Dirty {
			state = "dirty"
		}
		log.WithFields(log.Fields{
			"version": status.Version,
			"status":  state,
			"pending": status.Pending,
		}).Info("Current migration version")
		return nil
	})
}

// RunMigrationsWithURL applies every pending migration to databaseURL. Test
// containers use it with their generated URL.
func RunMigrationsWithURL(databaseURL string) error {
	return withMigrator(databaseURL, func(mg *Migrator) error {
		_, err := mg.Up()
		return err
	})
}
