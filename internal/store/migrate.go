package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// NewMigrator returns a migrate instance over the embedded migrations. It
// holds its own connection; callers must Close it.
func NewMigrator(driver, url string, log *zap.Logger) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	dbURL, err := migrationURL(driver, url)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("migration init failed: %w", err)
	}
	if log != nil {
		m.Log = &migrateLogger{log: log.Named("migrate")}
	}
	return m, nil
}

// Migrate applies all pending migrations.
func Migrate(driver, url string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	m, err := NewMigrator(driver, url, log)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrations up: %w", err)
	}
	v, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrations version: %w", err)
	}
	log.Info("schema up to date", zap.Uint("version", v), zap.Bool("dirty", dirty))
	return nil
}

func migrationURL(driver, url string) (string, error) {
	switch driver {
	case DriverPostgres:
		if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
			return url, nil
		}
		return "", errors.New("postgres migrations need a postgres:// DATABASE_URL")
	case DriverSQLite:
		return "sqlite://" + strings.TrimPrefix(url, "file:"), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

type migrateLogger struct {
	log *zap.Logger
}

func (l *migrateLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool { return false }
