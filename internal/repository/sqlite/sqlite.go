// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// In production the dashboard talks to a hosted backend service; this package
// plays that role locally so the module runs on its own. The table names match
// the hosted collections (user_profiles, job_postings, candidates, meetings).
// The driver is modernc.org/sqlite, so no C toolchain is needed.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/asynchire/internal/apperror"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements every interface in the repository package.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/asynchire.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
//
// The pool is capped at one connection: an in-memory database is private to
// the connection that created it, and SQLite serialises writers anyway.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in progress.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates every table if it does not exist yet.
//
// CREATE TABLE IF NOT EXISTS is idempotent, so this runs on every start.
func (db *DB) migrate() error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"identities", `
			CREATE TABLE IF NOT EXISTS identities (
				id            TEXT PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL DEFAULT '',
				github_id     INTEGER UNIQUE,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"user_profiles", `
			CREATE TABLE IF NOT EXISTS user_profiles (
				id            TEXT PRIMARY KEY,
				user_id       TEXT NOT NULL UNIQUE REFERENCES identities(id),
				email         TEXT NOT NULL,
				full_name     TEXT NOT NULL DEFAULT '',
				role          TEXT NOT NULL DEFAULT 'Client',
				hiring_status TEXT NOT NULL DEFAULT 'Not Started',
				company       TEXT,
				created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
		{"job_postings", `
			CREATE TABLE IF NOT EXISTS job_postings (
				id               TEXT PRIMARY KEY,
				user_id          TEXT NOT NULL REFERENCES identities(id),
				status           TEXT NOT NULL DEFAULT 'active',
				company_name     TEXT NOT NULL DEFAULT '',
				job_title        TEXT NOT NULL DEFAULT '',
				department       TEXT NOT NULL DEFAULT '',
				employment_type  TEXT NOT NULL DEFAULT '',
				location         TEXT NOT NULL DEFAULT '',
				remote_policy    TEXT NOT NULL DEFAULT '',
				experience_level TEXT NOT NULL DEFAULT '',
				languages        TEXT NOT NULL DEFAULT '[]',
				skills           TEXT NOT NULL DEFAULT '',
				salary_min       INTEGER NOT NULL DEFAULT 0,
				salary_max       INTEGER NOT NULL DEFAULT 0,
				challenges       TEXT NOT NULL DEFAULT '[]',
				team_size        TEXT NOT NULL DEFAULT '',
				description      TEXT NOT NULL DEFAULT '',
				timezone         TEXT NOT NULL DEFAULT '',
				contact_notes    TEXT NOT NULL DEFAULT '',
				created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_job_postings_user_id ON job_postings(user_id);`},
		{"candidates", `
			CREATE TABLE IF NOT EXISTS candidates (
				id         TEXT PRIMARY KEY,
				job_id     TEXT NOT NULL REFERENCES job_postings(id),
				name       TEXT NOT NULL,
				headline   TEXT NOT NULL DEFAULT '',
				video_url  TEXT NOT NULL DEFAULT '',
				notes      TEXT NOT NULL DEFAULT '',
				status     TEXT NOT NULL DEFAULT 'pending',
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_candidates_job_id ON candidates(job_id);`},
		{"meetings", `
			CREATE TABLE IF NOT EXISTS meetings (
				id             TEXT PRIMARY KEY,
				user_id        TEXT NOT NULL REFERENCES identities(id),
				job_id         TEXT REFERENCES job_postings(id),
				scheduled_date TEXT NOT NULL,
				time_slot      TEXT NOT NULL,
				timezone       TEXT NOT NULL DEFAULT '',
				created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			);`},
	}

	for _, s := range stmts {
		if _, err := db.conn.Exec(s.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", s.name, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back
// otherwise. fn must use tx for every statement: the pool has one connection.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// translate turns driver errors into domain errors where one exists.
// SQLite reports a missing table as "no such table: <name>".
func translate(table string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "no such table") {
		return apperror.MissingRelation(table)
	}
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
