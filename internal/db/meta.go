package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/michaelscutari/sdficon/internal/entry"
)

// BeginBuild writes the build_meta row with status running.
func BeginBuild(db *sql.DB, sourceDir, destDir string, start time.Time) error {
	_, err := db.Exec(
		`INSERT INTO build_meta (id, source_dir, dest_dir, start_time, status) VALUES (1, ?, ?, ?, ?)`,
		sourceDir, destDir, start.Unix(), entry.StatusRunning.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to write build meta: %w", err)
	}
	return nil
}

// FinishBuild stamps the end time, status and totals onto build_meta.
// Totals are counted from the icons table so they always match its rows.
func FinishBuild(db *sql.DB, status entry.Status, message string, end time.Time) error {
	var count, totalBytes, overflow, empty int64
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(bytes), 0), COALESCE(SUM(overflow), 0), COALESCE(SUM(empty), 0) FROM icons
	`).Scan(&count, &totalBytes, &overflow, &empty)
	if err != nil {
		return fmt.Errorf("failed to count icons: %w", err)
	}

	_, err = db.Exec(
		`UPDATE build_meta SET end_time = ?, icon_count = ?, total_bytes = ?, overflow_count = ?, empty_count = ?, status = ?, error = ? WHERE id = 1`,
		end.Unix(), count, totalBytes, overflow, empty, status.String(), message,
	)
	if err != nil {
		return fmt.Errorf("failed to update build meta: %w", err)
	}
	return nil
}

// RecordError inserts a single build_errors row outside of a Recorder.
func RecordError(db *sql.DB, e entry.BuildError) error {
	if _, err := db.Exec(insertErrorSQL, e.Path, e.Message); err != nil {
		return fmt.Errorf("failed to insert error for %q: %w", e.Path, err)
	}
	return nil
}
