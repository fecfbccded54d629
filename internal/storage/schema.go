package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is written to schema_metadata by CreateSchema.
const SchemaVersion = "1"

// Open opens (or creates) the snapshot database at path and makes sure the
// schema exists. Foreign keys are enabled on every connection so deleting a
// run cascades to its items and features.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path is empty")
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	version, err := GetSchemaVersion(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to check schema version: %w", err)
	}

	if version == "0" {
		if err := CreateSchema(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return db, nil
}

// CreateSchema creates the snapshot tables and indexes in one transaction.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"runs", createRunsTable},
		{"features", createFeaturesTable},
		{"items", createItemsTable},
		{"schema_metadata", createSchemaMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO schema_metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap schema_metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}

	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a database
// that has never been initialized.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var tableExists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_metadata'").Scan(&tableExists)
	if err != nil {
		return "", fmt.Errorf("failed to check schema_metadata existence: %w", err)
	}
	if tableExists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM schema_metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("schema_version key not found in schema_metadata")
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}
	return version, nil
}

// Table DDL constants

const createRunsTable = `
CREATE TABLE runs (
    id TEXT PRIMARY KEY,                         -- UUID assigned per extraction run
    crate_name TEXT NOT NULL UNIQUE,             -- One snapshot per crate name
    file_count INTEGER NOT NULL DEFAULT 0,
    skipped_count INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL                     -- ISO 8601
)`

const createFeaturesTable = `
CREATE TABLE features (
    run_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    is_default BOOLEAN NOT NULL DEFAULT 0,       -- Row from default_features
    PRIMARY KEY (run_id, is_default, position),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
)`

const createItemsTable = `
CREATE TABLE items (
    run_id TEXT NOT NULL,
    kind TEXT NOT NULL,                          -- function, struct, enum, ...
    position INTEGER NOT NULL,                   -- Order within the kind's collection
    name TEXT NOT NULL,
    module_path TEXT NOT NULL DEFAULT '',
    is_pub BOOLEAN NOT NULL DEFAULT 0,
    doc TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL,                       -- Full record as JSON
    PRIMARY KEY (run_id, kind, position),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
)`

const createSchemaMetadataTable = `
CREATE TABLE schema_metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`

var indexes = []string{
	"CREATE INDEX idx_items_name ON items(name)",
	"CREATE INDEX idx_items_module ON items(run_id, module_path)",
}
