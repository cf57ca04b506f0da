package migration

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// migrationManagerImpl implements the MigrationManager interface
type migrationManagerImpl struct {
	scanner      FileScanner
	executor     Executor
	migrationDir string
	logger       *slog.Logger
}

// NewMigrationManager creates a new MigrationManager implementation
func NewMigrationManager(scanner FileScanner, executor Executor, migrationDir string, logger *slog.Logger) MigrationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &migrationManagerImpl{
		scanner:      scanner,
		executor:     executor,
		migrationDir: migrationDir,
		logger:       logger.With("component", "migration"),
	}
}

// RunMigrations executes all pending migrations in sequential order
func (m *migrationManagerImpl) RunMigrations(ctx context.Context) error {
	startTime := time.Now()

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		m.logger.ErrorContext(ctx, "failed to initialize schema_migrations table", "error", err)
		return fmt.Errorf("failed to initialize version table: %w", err)
	}

	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to resolve pending migrations", "dir", m.migrationDir, "error", err)
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	if len(pending) == 0 {
		m.logger.DebugContext(ctx, "database schema up to date")
		return nil
	}

	m.logger.InfoContext(ctx, "applying migrations", "pending", len(pending))

	for i, migration := range pending {
		migrationStart := time.Now()
		logger := m.logger.With(
			"version", migration.Version,
			"description", migration.Description,
			"position", fmt.Sprintf("%d/%d", i+1, len(pending)),
		)

		if err := m.executor.ExecuteMigration(ctx, migration); err != nil {
			logger.ErrorContext(ctx, "migration failed", "file", migration.FilePath, "error", err)
			return versionError(migration.Version, migration.FilePath,
				"execute migration", fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}

		executionTime := time.Since(migrationStart)
		if err := m.executor.RecordMigration(ctx, migration, executionTime); err != nil {
			logger.ErrorContext(ctx, "failed to record migration", "error", err)
			return versionError(migration.Version, migration.FilePath,
				"record migration", fmt.Errorf("failed to record migration: %w", err))
		}

		logger.InfoContext(ctx, "migration applied", "duration", executionTime)
	}

	m.logger.InfoContext(ctx, "migrations complete", "applied", len(pending), "duration", time.Since(startTime))
	return nil
}

// GetPendingMigrations returns list of migrations that need to be applied
func (m *migrationManagerImpl) GetPendingMigrations(ctx context.Context) ([]Migration, error) {
	available, err := m.scanner.ScanMigrations(m.migrationDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied versions: %w", err)
	}

	if err := validateMigrationSequence(available, applied); err != nil {
		return nil, fmt.Errorf("migration sequence validation failed: %w", err)
	}

	appliedMap := make(map[string]bool, len(applied))
	for _, a := range applied {
		appliedMap[a.Version] = true
	}

	var pending []Migration
	for _, migration := range available {
		if !appliedMap[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// GetMigrationStatus returns status information about migrations
func (m *migrationManagerImpl) GetMigrationStatus(ctx context.Context) (*MigrationStatus, error) {
	pending, err := m.GetPendingMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending migrations: %w", err)
	}

	applied, err := m.executor.GetAppliedVersions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	currentVersion := ""
	maxVersion := -1
	for _, migration := range applied {
		if version, err := strconv.Atoi(migration.Version); err == nil && version > maxVersion {
			maxVersion = version
			currentVersion = migration.Version
		}
	}

	return &MigrationStatus{
		CurrentVersion:    currentVersion,
		PendingCount:      len(pending),
		AppliedMigrations: applied,
		PendingMigrations: pending,
	}, nil
}

// validateMigrationSequence ensures available versions are contiguous, every
// applied version still has a file, and applied files were not edited.
func validateMigrationSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	minVersion, maxVersion := 0, -1
	for i, migration := range available {
		version, err := strconv.Atoi(migration.Version)
		if err != nil {
			return versionError(migration.Version, migration.FilePath,
				"validate sequence", fmt.Errorf("%w: version '%s' is not numeric", ErrInvalidVersion, migration.Version))
		}
		if i == 0 || version < minVersion {
			minVersion = version
		}
		if version > maxVersion {
			maxVersion = version
		}
		byVersion[version] = migration
	}

	for version := minVersion; version <= maxVersion; version++ {
		if _, ok := byVersion[version]; !ok {
			return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, version)
		}
	}

	for _, a := range applied {
		version, err := strconv.Atoi(a.Version)
		if err != nil {
			return dbError(a.Version, "", "validate sequence",
				fmt.Errorf("%w: applied version '%s' is not numeric", ErrInvalidVersion, a.Version))
		}
		migration, ok := byVersion[version]
		if !ok {
			return fmt.Errorf("%w: applied migration %03d not found in available migrations", ErrVersionConflict, version)
		}
		if a.Checksum != "" && migration.Checksum != "" && a.Checksum != migration.Checksum {
			return versionError(migration.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}

	return nil
}
