package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-health-notifier/internal/alerts"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrProfileNotFound is returned by MarkSent when no row matches the profile key.
var ErrProfileNotFound = errors.New("profile not found in directory")

// Config describes the user directory connection.
type Config struct {
	Driver      string // DriverPostgres or DriverSQLite
	URL         string
	AutoMigrate bool

	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// SQLDirectory is the user directory backed by a SQL table named users.
type SQLDirectory struct {
	db     *sqlx.DB
	driver string
	log    *zap.Logger
}

// Open connects to the directory and verifies it is reachable. Callers treat
// an error here as fatal.
func Open(ctx context.Context, cfg Config, log *zap.Logger) (*SQLDirectory, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Open(cfg.Driver, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// Single-writer engine.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		if err := applyPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragmas: %w", err)
		}
	}

	if cfg.AutoMigrate {
		if err := Migrate(cfg.Driver, cfg.URL, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	log.Info("user directory connected", zap.String("driver", cfg.Driver))
	return &SQLDirectory{db: db, driver: cfg.Driver, log: log}, nil
}

func applyPragmas(ctx context.Context, db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (d *SQLDirectory) Close() error {
	return d.db.Close()
}

// DB returns the underlying sqlx.DB instance.
func (d *SQLDirectory) DB() *sqlx.DB {
	return d.db
}

// Ping reports whether the directory is reachable.
func (d *SQLDirectory) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// userRow mirrors the users table. Columns are cast to text so that
// uuid/time typed columns in hosted Postgres schemas read the same way as
// the sqlite layout.
type userRow struct {
	ID        sql.NullString `db:"id"`
	Email     string         `db:"email"`
	Name      sql.NullString `db:"name"`
	Location  sql.NullString `db:"location"`
	AlertTime sql.NullString `db:"alert_time"`
	LastSent  sql.NullString `db:"last_sent_date"`
}

const listUsersQuery = `
	SELECT CAST(id AS TEXT) AS id, email, name, location,
	       CAST(alert_time AS TEXT) AS alert_time, last_sent_date
	FROM users
	ORDER BY email`

// ListProfiles returns every user in the directory. A row whose
// last_sent_date cannot be read is returned with ReadErr set.
func (d *SQLDirectory) ListProfiles(ctx context.Context) ([]alerts.Profile, error) {
	var rows []userRow
	if err := d.db.SelectContext(ctx, &rows, listUsersQuery); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}

	profiles := make([]alerts.Profile, 0, len(rows))
	for _, r := range rows {
		p := alerts.Profile{
			ID:        r.ID.String,
			Email:     r.Email,
			Name:      r.Name.String,
			Location:  r.Location.String,
			AlertTime: r.AlertTime.String,
		}
		if r.LastSent.Valid && r.LastSent.String != "" {
			date, err := parseStoredDate(r.LastSent.String)
			if err != nil {
				d.log.Warn("unreadable last_sent_date",
					zap.String("user", p.Key()), zap.Error(err))
				p.ReadErr = fmt.Errorf("last_sent_date: %w", err)
			} else {
				p.LastSent = &date
			}
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// parseStoredDate accepts a bare date or the leading date part of a
// timestamp, which is how drivers hand back DATE columns.
func parseStoredDate(s string) (alerts.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	return alerts.ParseDate(s)
}

// MarkSent sets last_sent_date for exactly one user, keyed by id or, when
// the profile has no id, by email.
func (d *SQLDirectory) MarkSent(ctx context.Context, p alerts.Profile, date alerts.Date) error {
	column, key := "id", p.ID
	if key == "" {
		column, key = "email", p.Email
	}
	if key == "" {
		return fmt.Errorf("mark sent: %w: profile has neither id nor email", ErrProfileNotFound)
	}

	query := d.db.Rebind("UPDATE users SET last_sent_date = ? WHERE " + column + " = ?")
	res, err := d.db.ExecContext(ctx, query, date.String(), key)
	if err != nil {
		return fmt.Errorf("mark sent for %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark sent for %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("mark sent for %s: %w", key, ErrProfileNotFound)
	}
	return nil
}
