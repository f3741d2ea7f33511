// Package sqlite is the database migrations are applied to.
// Applied migrations are tracked by a store.RecordStore, not in this database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Target executes migration SQL against a SQLite database using modernc.org/sqlite.
type Target struct {
	dbPath string
	db     *sql.DB
}

// New creates a new Target. The database is not touched until Open.
func New(dbPath string) *Target {
	return &Target{
		dbPath: dbPath,
	}
}

// Open opens the SQLite database with safe defaults.
func (t *Target) Open() error {
	db, err := sql.Open("sqlite", t.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Apply safe defaults
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	t.db = db
	return nil
}

// Close closes the database connection.
func (t *Target) Close() error {
	if t.db != nil {
		return t.db.Close()
	}
	return nil
}

// Exec runs a migration script in a single transaction.
func (t *Target) Exec(ctx context.Context, script string) error {
	if t.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
