// Package sqlite implements the persistence contracts on SQLite through the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// Storage bundles the SQLite repositories behind persistence.Store.
type Storage struct {
	*TaskRepository
	*MeetingRepository
	*ExpenseRepository
	*SettingRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var _ persistence.Store = (*Storage)(nil)

type options struct {
	now    func() time.Time
	logger *slog.Logger
	config *migration.SQLiteConfig
	retry  RetryConfig
}

// Option customises Open.
type Option func(*options)

// WithClock overrides the clock used for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used by the migration runner.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSQLiteConfig replaces the default connection settings. Its DSN wins
// over the dsn passed to Open.
func WithSQLiteConfig(cfg migration.SQLiteConfig) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithRetryConfig tunes the lock retry policy.
func WithRetryConfig(cfg RetryConfig) Option {
	return func(o *options) {
		o.retry = cfg
	}
}

// Open connects to the database at dsn. Call Migrate before first use.
func Open(ctx context.Context, dsn string, opts ...Option) (*Storage, error) {
	o := options{
		now:    time.Now,
		logger: slog.Default(),
		retry:  DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := migration.DefaultSQLiteConfig(dsn)
	if o.config != nil {
		cfg = *o.config
	}

	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	b := base{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(o.retry),
		now:    o.now,
	}

	return &Storage{
		TaskRepository:    &TaskRepository{base: b},
		MeetingRepository: &MeetingRepository{base: b},
		ExpenseRepository: &ExpenseRepository{base: b},
		SettingRepository: &SettingRepository{base: b},
		pool:              pool,
		logger:            o.logger,
	}, nil
}

// Migrate applies pending embedded migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	manager := s.migrationManager()
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrationManager().GetMigrationStatus(ctx)
}

func (s *Storage) migrationManager() migration.MigrationManager {
	return migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationDir,
		s.logger,
	)
}

// Ping checks the connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// DB exposes the underlying handle for diagnostics and tests.
func (s *Storage) DB() *sql.DB {
	return s.pool.DB()
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}
