package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/michaelscutari/sdficon/internal/entry"
)

const insertIconSQL = `INSERT INTO icons (name, source_path, output_path, source_width, source_height, scale, offset_x, offset_y, xlink, bytes, checked, ink_x0, ink_y0, ink_x1, ink_y1, overflow, empty, duration_ns) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
const insertErrorSQL = `INSERT INTO build_errors (path, message) VALUES (?, ?)`

// Recorder batches converted icons and build errors into the manifest.
type Recorder struct {
	db            *sql.DB
	iconCh        <-chan entry.Icon
	errorCh       <-chan entry.BuildError
	batchSize     int
	flushInterval time.Duration
	verbose       bool

	iconBatch  []entry.Icon
	errorBatch []entry.BuildError

	// Progress tracking (atomic)
	iconCount     int64
	totalBytes    int64
	overflowCount int64
	errorCount    int64

	iconStmt  *sql.Stmt
	errorStmt *sql.Stmt
}

// Progress holds the recorder's running totals.
type Progress struct {
	Icons    int64
	Bytes    int64
	Overflow int64
	Errors   int64
}

// NewRecorder creates a recorder reading from the given channels.
func NewRecorder(db *sql.DB, iconCh <-chan entry.Icon, errorCh <-chan entry.BuildError, batchSize int, flushInterval time.Duration, verbose bool) *Recorder {
	if batchSize <= 0 {
		batchSize = 256
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Recorder{
		db:            db,
		iconCh:        iconCh,
		errorCh:       errorCh,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		verbose:       verbose,
		iconBatch:     make([]entry.Icon, 0, batchSize),
		errorBatch:    make([]entry.BuildError, 0, 16),
	}
}

// Run consumes both channels until they are closed, flushing whenever a
// batch fills up or the flush interval elapses.
func (rec *Recorder) Run(ctx context.Context) error {
	var err error
	rec.iconStmt, err = rec.db.Prepare(insertIconSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare icon statement: %w", err)
	}
	defer rec.iconStmt.Close()

	rec.errorStmt, err = rec.db.Prepare(insertErrorSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare error statement: %w", err)
	}
	defer rec.errorStmt.Close()

	ticker := time.NewTicker(rec.flushInterval)
	defer ticker.Stop()

	if rec.verbose {
		fmt.Fprintf(os.Stderr, "[RECORDER] STARTED batchSize=%d flushInterval=%s\n", rec.batchSize, rec.flushInterval)
	}

	iconCh := rec.iconCh
	errorCh := rec.errorCh

	for iconCh != nil || errorCh != nil {
		select {
		case <-ctx.Done():
			if rec.verbose {
				fmt.Fprintf(os.Stderr, "[RECORDER] CTX-CANCELLED batchLen=%d\n", len(rec.iconBatch))
			}
			// Icons already converted are still recorded; drain what the
			// scanner has queued before it closes the channels.
			return rec.drain(iconCh, errorCh)

		case icon, ok := <-iconCh:
			if !ok {
				iconCh = nil
				continue
			}
			if err := rec.addIcon(icon); err != nil {
				return err
			}

		case e, ok := <-errorCh:
			if !ok {
				errorCh = nil
				continue
			}
			atomic.AddInt64(&rec.errorCount, 1)
			rec.errorBatch = append(rec.errorBatch, e)

		case <-ticker.C:
			if err := rec.flush(); err != nil {
				return err
			}
		}
	}

	if rec.verbose {
		fmt.Fprintf(os.Stderr, "[RECORDER] INPUTS-CLOSED icons=%d errors=%d\n",
			atomic.LoadInt64(&rec.iconCount), atomic.LoadInt64(&rec.errorCount))
	}
	return rec.flush()
}

func (rec *Recorder) addIcon(icon entry.Icon) error {
	atomic.AddInt64(&rec.iconCount, 1)
	atomic.AddInt64(&rec.totalBytes, icon.Bytes)
	if icon.Overflow {
		atomic.AddInt64(&rec.overflowCount, 1)
	}
	rec.iconBatch = append(rec.iconBatch, icon)
	if len(rec.iconBatch) >= rec.batchSize {
		return rec.flushIcons()
	}
	return nil
}

func (rec *Recorder) drain(iconCh <-chan entry.Icon, errorCh <-chan entry.BuildError) error {
	for iconCh != nil || errorCh != nil {
		select {
		case icon, ok := <-iconCh:
			if !ok {
				iconCh = nil
				continue
			}
			if err := rec.addIcon(icon); err != nil {
				return err
			}
		case e, ok := <-errorCh:
			if !ok {
				errorCh = nil
				continue
			}
			atomic.AddInt64(&rec.errorCount, 1)
			rec.errorBatch = append(rec.errorBatch, e)
		}
	}
	return rec.flush()
}

func (rec *Recorder) flush() error {
	if err := rec.flushIcons(); err != nil {
		return err
	}
	return rec.flushErrors()
}

func (rec *Recorder) flushIcons() error {
	if len(rec.iconBatch) == 0 {
		return nil
	}

	batchLen := len(rec.iconBatch)
	flushStart := time.Now()

	tx, err := rec.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt := tx.Stmt(rec.iconStmt)
	for _, i := range rec.iconBatch {
		var x0, y0, x1, y1 any
		if i.Checked {
			x0, y0, x1, y1 = i.InkX0, i.InkY0, i.InkX1, i.InkY1
		}
		_, err := stmt.Exec(i.Name, i.SourcePath, i.OutputPath, i.SourceWidth, i.SourceHeight,
			i.Scale, i.OffsetX, i.OffsetY, i.XLink, i.Bytes, i.Checked, x0, y0, x1, y1, i.Overflow,
			i.Empty, i.Duration.Nanoseconds())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert icon %q: %w", i.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	if rec.verbose {
		fmt.Fprintf(os.Stderr, "[RECORDER] FLUSH icons=%d took=%v\n", batchLen, time.Since(flushStart))
	}

	rec.iconBatch = rec.iconBatch[:0]
	return nil
}

func (rec *Recorder) flushErrors() error {
	if len(rec.errorBatch) == 0 {
		return nil
	}

	tx, err := rec.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin error transaction: %w", err)
	}

	stmt := tx.Stmt(rec.errorStmt)
	for _, e := range rec.errorBatch {
		if _, err := stmt.Exec(e.Path, e.Message); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert error for %q: %w", e.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit error transaction: %w", err)
	}

	rec.errorBatch = rec.errorBatch[:0]
	return nil
}

// Progress returns current totals (safe for concurrent access).
func (rec *Recorder) Progress() Progress {
	return Progress{
		Icons:    atomic.LoadInt64(&rec.iconCount),
		Bytes:    atomic.LoadInt64(&rec.totalBytes),
		Overflow: atomic.LoadInt64(&rec.overflowCount),
		Errors:   atomic.LoadInt64(&rec.errorCount),
	}
}
