package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// ErrDirty means a previous migration failed halfway. The schema has to be
// repaired by hand and marked with Force before anything else runs.
var ErrDirty = errors.New("tracker schema is dirty")

// Migrator applies the tracker schema migrations with golang-migrate
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
}

// New reads migrations from a directory on disk
func New(db *sql.DB, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	return NewEmbedded(db, os.DirFS(migrationsPath), logger)
}

// NewEmbedded reads migrations from fsys, usually migrations.FS compiled
// into the binary
func NewEmbedded(db *sql.DB, fsys fs.FS, logger *zap.Logger) (*Migrator, error) {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres migration driver: %w", err)
	}
	return newMigrator(fsys, "postgres", driver, logger)
}

func newMigrator(fsys fs.FS, dbName string, driver database.Driver, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{migrate: m, logger: logger}, nil
}

// apply runs fn on a clean schema. ErrNoChange counts as success.
func (m *Migrator) apply(action string, fn func() error) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("%w at version %d, fix it and run force", ErrDirty, version)
	}

	err = fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Tracker schema unchanged", zap.String("action", action), zap.Uint("version", version))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", action, err)
	}

	after, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Tracker schema migrated",
		zap.String("action", action),
		zap.Uint("from", version),
		zap.Uint("to", after),
		zap.Bool("dirty", dirty))
	return nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.apply("up", m.migrate.Up)
}

// Down rolls every migration back
func (m *Migrator) Down() error {
	return m.apply("down", m.migrate.Down)
}

// Steps applies n migrations; negative n rolls back
func (m *Migrator) Steps(n int) error {
	return m.apply(fmt.Sprintf("steps %d", n), func() error { return m.migrate.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply(fmt.Sprintf("goto %d", version), func() error { return m.migrate.Migrate(version) })
}

// Version returns the applied version, 0 when nothing ran yet
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing tracker schema version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every table, including the tracker data
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping the tracker schema")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// Close releases the source and the database driver
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	return errors.Join(sourceErr, dbErr)
}
