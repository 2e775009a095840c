package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the target universe.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS targets (
  id              INTEGER PRIMARY KEY,
  label           TEXT NOT NULL UNIQUE,
  kind            TEXT NOT NULL,
  hash            TEXT NOT NULL,
  source          TEXT,
  last_ingested   TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dependencies (
  id              INTEGER PRIMARY KEY,
  target_id       INTEGER NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
  label           TEXT NOT NULL,
  dep_type        TEXT NOT NULL DEFAULT 'COMPILE',
  ordinal         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_runs (
  id              TEXT PRIMARY KEY,
  started_at      TIMESTAMP NOT NULL,
  duration_ms     INTEGER NOT NULL DEFAULT 0,
  roots           TEXT NOT NULL,
  depth           INTEGER NOT NULL,
  universe_hash   TEXT NOT NULL,
  target_count    INTEGER NOT NULL,
  direct_dependency_count INTEGER NOT NULL,
  library_count   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_targets_kind ON targets(kind);
CREATE INDEX IF NOT EXISTS idx_targets_source ON targets(source);
CREATE INDEX IF NOT EXISTS idx_dependencies_target ON dependencies(target_id);
CREATE INDEX IF NOT EXISTS idx_dependencies_label ON dependencies(label);
CREATE INDEX IF NOT EXISTS idx_sync_runs_started ON sync_runs(started_at);
`

// deleteTargetsTx removes targets by label together with their dependency
// entries. Unknown labels are ignored.
func deleteTargetsTx(tx *sql.Tx, labels []string) error {
	for _, chunk := range chunkStrings(labels, maxParams) {
		placeholders := placeholderList(len(chunk))
		args := stringsToArgs(chunk)
		if _, err := tx.Exec(
			`DELETE FROM dependencies WHERE target_id IN (
				SELECT id FROM targets WHERE label IN (`+placeholders+`)
			)`, args...); err != nil {
			return fmt.Errorf("delete dependencies: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM targets WHERE label IN ("+placeholders+")", args...); err != nil {
			return fmt.Errorf("delete targets: %w", err)
		}
	}
	return nil
}

// Reset drops every target and dependency row. Metadata and sync history
// are kept.
func (s *Store) Reset() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	for _, q := range []string{
		"DELETE FROM dependencies",
		"DELETE FROM targets",
	} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return tx.Commit()
}
