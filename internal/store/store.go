// Package store owns the local SQLite database: opening, schema migration,
// and transaction scoping. Every resolver and sync batch runs against one DB
// handle owned by the caller; there is no implicit global connection.
package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite handle for the relationship store.
type DB struct {
	sql *sql.DB
}

// Open opens (or creates) the SQLite database at path and configures WAL
// mode. The desktop app opens this once at startup and closes it at shutdown.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "store: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: exec %s", pragma)
		}
	}
	return &DB{sql: db}, nil
}

// SQL exposes the underlying handle for package-level stores.
func (d *DB) SQL() *sql.DB {
	return d.sql
}

// Migrate applies the schema. Idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, migration)
	return eris.Wrap(err, "store: migrate")
}

// Close closes the underlying handle.
func (d *DB) Close() error {
	return d.sql.Close()
}

// WithTx runs fn inside one transaction, rolling back on error. Every
// multi-step resolution, sync, or merge batch goes through here so a failure
// partway leaves no partial state.
func (d *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "store: begin tx")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return eris.Wrapf(err, "store: rollback also failed: %v", rbErr)
		}
		return err
	}
	return eris.Wrap(tx.Commit(), "store: commit tx")
}

// CoalesceText is the "keep existing unless incoming is non-empty" merge
// policy used when a later writer races an earlier creation.
func CoalesceText(existing, incoming string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}

// CoalesceFloat is CoalesceText for nullable confidence-style fields.
func CoalesceFloat(existing, incoming *float64) *float64 {
	if incoming != nil {
		return incoming
	}
	return existing
}
