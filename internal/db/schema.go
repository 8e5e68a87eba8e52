package db

import (
	"database/sql"
	"fmt"
)

const iconsTableDDL = `
CREATE TABLE IF NOT EXISTS icons (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    source_path TEXT NOT NULL,
    output_path TEXT NOT NULL,
    source_width REAL NOT NULL,
    source_height REAL NOT NULL,
    scale REAL NOT NULL,
    offset_x REAL NOT NULL,
    offset_y REAL NOT NULL,
    xlink INTEGER NOT NULL,
    bytes INTEGER NOT NULL,
    checked INTEGER NOT NULL DEFAULT 0,
    ink_x0 REAL,
    ink_y0 REAL,
    ink_x1 REAL,
    ink_y1 REAL,
    overflow INTEGER NOT NULL DEFAULT 0,
    empty INTEGER NOT NULL DEFAULT 0,
    duration_ns INTEGER NOT NULL DEFAULT 0
);
`

const buildMetaTableDDL = `
CREATE TABLE IF NOT EXISTS build_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    source_dir TEXT NOT NULL,
    dest_dir TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    icon_count INTEGER DEFAULT 0,
    total_bytes INTEGER DEFAULT 0,
    overflow_count INTEGER DEFAULT 0,
    empty_count INTEGER DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'running',
    error TEXT NOT NULL DEFAULT ''
);
`

const buildErrorsTableDDL = `
CREATE TABLE IF NOT EXISTS build_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    message TEXT NOT NULL
);
`

const iconsNameIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_icons_name ON icons(name);`
const iconsScaleIndexDDL = `CREATE INDEX IF NOT EXISTS idx_icons_scale ON icons(scale DESC);`
const iconsBytesIndexDDL = `CREATE INDEX IF NOT EXISTS idx_icons_bytes ON icons(bytes DESC);`

// InitSchema creates all tables in the database.
func InitSchema(db *sql.DB) error {
	ddls := []string{
		iconsTableDDL,
		buildMetaTableDDL,
		buildErrorsTableDDL,
	}

	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// ApplyWritePragmas configures SQLite for the duration of a build.
func ApplyWritePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// ApplyReadPragmas configures SQLite for the read-only commands.
func ApplyReadPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA temp_store = MEMORY",
		"PRAGMA query_only = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// BuildIndexes creates indexes once all rows are in.
func BuildIndexes(db *sql.DB) error {
	indexes := []string{
		iconsNameIndexDDL,
		iconsScaleIndexDDL,
		iconsBytesIndexDDL,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Finalize prepares the database for read-only access.
func Finalize(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA optimize"); err != nil {
		return fmt.Errorf("failed to optimize: %w", err)
	}

	// Switch from WAL to DELETE so the manifest is a single file
	if _, err := db.Exec("PRAGMA journal_mode = DELETE"); err != nil {
		return fmt.Errorf("failed to set journal mode: %w", err)
	}

	return nil
}
