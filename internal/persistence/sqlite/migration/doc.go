// Package migration applies versioned SQL schema changes to the assistant's
// SQLite database.
//
// Migration files follow the naming convention {version}_{description}.sql
// (for example "001_initial_schema.sql") and are read from an fs.FS, usually
// an embedded directory. Applied versions are tracked in the
// schema_migrations table so every file runs exactly once, inside its own
// transaction.
//
// Example usage:
//
//	scanner := NewFileScanner(migrationsFS)
//	manager := NewMigrationManager(scanner, NewSQLiteExecutor(db), "migrations", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
