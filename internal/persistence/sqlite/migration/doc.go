// Package migration applies versioned schema migrations to the campus scheduler's
// SQLite database.
//
// Migrations are SQL files named {version}_{description}.sql read from an fs.FS,
// normally the embedded migrations directory of the sqlite package. Each file runs
// inside its own transaction and is recorded in the schema_migrations table, so a
// restart only applies versions that are still pending. Versions must form a
// continuous sequence and every applied version must still exist on disk.
//
// Example usage:
//
//	scanner := migration.NewFileScanner(migrationsFS, "migrations")
//	manager := migration.NewManager(scanner, migration.NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
