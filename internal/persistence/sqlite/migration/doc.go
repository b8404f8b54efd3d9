// Package migration applies versioned schema changes to the scheduler's SQLite
// database.
//
// Migration files are embedded into the binary and follow the naming
// convention {version}_{description}.sql (e.g. "001_initial_schema.sql").
// Each file runs in its own transaction and is recorded in the
// schema_migrations table together with its checksum, so a file edited after
// it was applied is reported instead of silently skipped.
//
// Example usage:
//
//	db, err := migration.Open(migration.DefaultSQLiteConfig("scheduler.db"))
//	if err != nil {
//		return err
//	}
//	manager := migration.NewManager(migration.NewSQLiteExecutor(db), logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
