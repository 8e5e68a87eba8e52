// Package output owns the destination directory of a build and the
// optional manifest describing it.
package output

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelscutari/sdficon/internal/db"
	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/michaelscutari/sdficon/internal/pathutil"
	"github.com/michaelscutari/sdficon/internal/scan"

	_ "modernc.org/sqlite"
)

// ProgressFunc is called periodically with current build progress.
type ProgressFunc func(p scan.Progress)

// StageFunc is called when the build stage changes.
type StageFunc func(stage string)

// Manager runs a build into a destination directory.
type Manager struct {
	destDir      string
	manifestPath string
	progressFunc ProgressFunc
	stageFunc    StageFunc
}

// NewManager creates a manager for destDir.
func NewManager(destDir string) *Manager {
	return &Manager{destDir: pathutil.Normalize(destDir)}
}

// SetManifest enables the SQLite manifest at path. Empty disables it.
func (m *Manager) SetManifest(path string) {
	m.manifestPath = pathutil.Normalize(path)
}

// SetProgressFunc sets a callback for progress updates during the build.
func (m *Manager) SetProgressFunc(f ProgressFunc) {
	m.progressFunc = f
}

// SetStageFunc sets a callback for build stage updates.
func (m *Manager) SetStageFunc(f StageFunc) {
	m.stageFunc = f
}

func (m *Manager) stage(name string) {
	if m.stageFunc != nil {
		m.stageFunc(name)
	}
}

// Validate checks the invocation without touching the filesystem.
func (m *Manager) Validate(srcDir string, opts *scan.Options) error {
	srcDir = pathutil.Normalize(srcDir)
	info, err := os.Stat(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return Usagef("source directory %q does not exist", srcDir)
		}
		return Usagef("cannot access source directory %q: %v", srcDir, err)
	}
	if !info.IsDir() {
		return Usagef("source %q is not a directory", srcDir)
	}
	if m.destDir == "" {
		return Usagef("destination directory must not be empty")
	}
	if pathutil.Within(m.destDir, srcDir) {
		return Usagef("destination %q would delete the source directory %q", m.destDir, srcDir)
	}
	if m.manifestPath != "" && pathutil.Within(m.destDir, m.manifestPath) {
		return Usagef("manifest %q must not be inside the destination directory", m.manifestPath)
	}

	previewDir := ""
	if opts != nil {
		previewDir = pathutil.Normalize(opts.Preview.Dir)
	}
	if previewDir != "" {
		if pathutil.Within(m.destDir, previewDir) {
			return Usagef("preview directory %q must not be inside the destination directory", previewDir)
		}
		if pathutil.Within(previewDir, m.destDir) || pathutil.Within(previewDir, srcDir) {
			return Usagef("preview directory %q must not contain the source or destination directory", previewDir)
		}
		if m.manifestPath != "" && pathutil.Within(previewDir, m.manifestPath) {
			return Usagef("manifest %q must not be inside the preview directory", m.manifestPath)
		}
	}
	return nil
}

// RunBuild recreates the destination, converts every source file into it
// and, when enabled, writes the manifest. A failed build still finalizes
// the manifest with status failed before the error is returned.
func (m *Manager) RunBuild(ctx context.Context, srcDir string, opts *scan.Options) (*entry.BuildMeta, error) {
	if opts == nil {
		opts = scan.DefaultOptions()
	}
	srcDir = pathutil.Normalize(srcDir)
	if err := m.Validate(srcDir, opts); err != nil {
		return nil, err
	}

	meta := &entry.BuildMeta{
		SourceDir: srcDir,
		DestDir:   m.destDir,
		StartTime: time.Now(),
		Status:    entry.StatusRunning,
	}

	m.stage("prepare")
	if err := recreateDir(m.destDir); err != nil {
		return nil, fmt.Errorf("failed to prepare destination: %w", err)
	}
	if opts.Preview.Dir != "" {
		if err := recreateDir(opts.Preview.Dir); err != nil {
			return nil, fmt.Errorf("failed to prepare preview directory: %w", err)
		}
	}

	var man *manifest
	var sink scan.Sink
	if m.manifestPath != "" {
		var err error
		man, err = openManifest(m.manifestPath, meta, opts)
		if err != nil {
			return nil, err
		}
		sink = man.sink()
	}

	scanner := scan.NewScanner(opts)
	m.stage("convert")

	progressDone := make(chan struct{})
	if m.progressFunc != nil {
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-progressDone:
					return
				case <-ticker.C:
					m.progressFunc(scanner.Progress())
				}
			}
		}()
	}

	scanErr := scanner.Run(ctx, srcDir, m.destDir, sink)
	close(progressDone)

	p := scanner.Progress()
	meta.EndTime = time.Now()
	meta.IconCount = p.Done
	meta.TotalBytes = p.Bytes
	meta.OverflowCount = p.Overflow
	meta.EmptyCount = p.Empty
	meta.Status = entry.StatusOK
	if scanErr != nil {
		meta.Status = entry.StatusFailed
		meta.Error = scanErr.Error()
	}

	if man != nil {
		m.stage("manifest")
		if err := man.finish(meta); err != nil {
			if scanErr != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to write manifest: %v\n", err)
			} else {
				return meta, err
			}
		}
	}

	if scanErr != nil {
		return meta, fmt.Errorf("build failed: %w", scanErr)
	}
	return meta, nil
}

func recreateDir(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	return os.MkdirAll(path, 0755)
}

// manifest is a build's SQLite database while it is being written. Rows go
// to a temp file next to the final path which is renamed into place once
// complete.
type manifest struct {
	finalPath string
	tempPath  string
	database  *sql.DB

	iconCh  chan entry.Icon
	errorCh chan entry.BuildError
	rec     *db.Recorder
	recDone chan error
}

func openManifest(path string, meta *entry.BuildMeta, opts *scan.Options) (*manifest, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tempPath := filepath.Join(filepath.Dir(path), fmt.Sprintf(".sdficon-temp-%d.db", time.Now().UnixNano()))
	database, err := sql.Open("sqlite", tempPath)
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}
	// Leaving WAL in Finalize needs the only connection.
	database.SetMaxOpenConns(1)

	fail := func(format string, err error) (*manifest, error) {
		database.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf(format, err)
	}
	if err := db.InitSchema(database); err != nil {
		return fail("failed to initialize schema: %w", err)
	}
	if err := db.ApplyWritePragmas(database); err != nil {
		return fail("failed to apply pragmas: %w", err)
	}
	if err := db.BeginBuild(database, meta.SourceDir, meta.DestDir, meta.StartTime); err != nil {
		return fail("%w", err)
	}

	man := &manifest{
		finalPath: path,
		tempPath:  tempPath,
		database:  database,
		iconCh:    make(chan entry.Icon, 256),
		errorCh:   make(chan entry.BuildError, max(opts.Workers, 1)),
		recDone:   make(chan error, 1),
	}
	man.rec = db.NewRecorder(database, man.iconCh, man.errorCh, 256, time.Second, opts.Verbose)
	go func() {
		// The recorder outlives a cancelled build so converted icons still
		// land in the manifest.
		err := man.rec.Run(context.Background())
		if err != nil {
			// keep workers from blocking on a dead recorder
			go func() {
				for range man.errorCh {
				}
			}()
			for range man.iconCh {
			}
		}
		man.recDone <- err
	}()
	return man, nil
}

func (man *manifest) sink() scan.Sink {
	return scan.Sink{Icons: man.iconCh, Errors: man.errorCh}
}

func (man *manifest) abort(format string, err error) error {
	man.database.Close()
	os.Remove(man.tempPath)
	return fmt.Errorf(format, err)
}

func (man *manifest) finish(meta *entry.BuildMeta) error {
	close(man.iconCh)
	close(man.errorCh)
	if err := <-man.recDone; err != nil {
		return man.abort("recorder error: %w", err)
	}

	// Failures that did not come from a single file (cancellation, an
	// unreadable source directory) still leave an error row behind.
	if meta.Status == entry.StatusFailed && man.rec.Progress().Errors == 0 {
		if err := db.RecordError(man.database, entry.BuildError{Path: meta.SourceDir, Message: meta.Error}); err != nil {
			return man.abort("%w", err)
		}
	}
	if err := db.FinishBuild(man.database, meta.Status, meta.Error, meta.EndTime); err != nil {
		return man.abort("%w", err)
	}
	if err := db.BuildIndexes(man.database); err != nil {
		return man.abort("failed to build indexes: %w", err)
	}
	if err := db.Finalize(man.database); err != nil {
		return man.abort("failed to finalize manifest: %w", err)
	}
	if err := man.database.Close(); err != nil {
		os.Remove(man.tempPath)
		return fmt.Errorf("failed to close manifest: %w", err)
	}

	if err := os.Rename(man.tempPath, man.finalPath); err != nil {
		os.Remove(man.tempPath)
		return fmt.Errorf("failed to rename manifest: %w", err)
	}
	return nil
}
