package output

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/michaelscutari/sdficon/internal/db"
	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/michaelscutari/sdficon/internal/scan"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func openManifestDB(t *testing.T, path string) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open manifest: %v", err)
	}
	t.Cleanup(func() {
		db.ForgetCache(database)
		database.Close()
	})
	return database
}

func TestRunBuildRecreatesDestination(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.svg", `<svg viewBox="0 0 24 24"><path d="M0 0h24"/></svg>`)
	writeFile(t, src, "b.SVG", `<svg width="100" height="50"><rect width="100" height="50"/></svg>`)

	dest := filepath.Join(t.TempDir(), "out")
	if err := os.MkdirAll(filepath.Join(dest, "stale"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dest, "old.svg", "<svg/>")

	var stages []string
	mgr := NewManager(dest)
	mgr.SetStageFunc(func(s string) { stages = append(stages, s) })

	meta, err := mgr.RunBuild(context.Background(), src, scan.DefaultOptions())
	if err != nil {
		t.Fatalf("run build: %v", err)
	}
	if meta.Status != entry.StatusOK || meta.IconCount != 2 {
		t.Fatalf("unexpected meta %+v", meta)
	}

	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if len(names) != 2 || names[0] != "a.svg" || names[1] != "b.SVG" {
		t.Fatalf("expected only converted files, got %v", names)
	}
	if len(stages) != 2 || stages[0] != "prepare" || stages[1] != "convert" {
		t.Fatalf("unexpected stages %v", stages)
	}
}

func TestRunBuildEmptySource(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")

	meta, err := NewManager(dest).RunBuild(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("run build: %v", err)
	}
	if meta.IconCount != 0 {
		t.Fatalf("expected no icons, got %d", meta.IconCount)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("destination not created: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty destination, got %d entries", len(entries))
	}
}

func TestRunBuildWritesManifest(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "b.svg", `<svg viewBox="0 0 10 20"/>`)
	writeFile(t, src, "a.svg", `<svg viewBox="0 0 100 50"/>`)

	root := t.TempDir()
	dest := filepath.Join(root, "out")
	manifestPath := filepath.Join(root, "meta", "icons.db")

	mgr := NewManager(dest)
	mgr.SetManifest(manifestPath)
	if _, err := mgr.RunBuild(context.Background(), src, scan.DefaultOptions().WithWorkers(2)); err != nil {
		t.Fatalf("run build: %v", err)
	}

	database := openManifestDB(t, manifestPath)
	icons, err := db.LoadIcons(database, "name", 0)
	if err != nil {
		t.Fatalf("load icons: %v", err)
	}
	if len(icons) != 2 || icons[0].Name != "a.svg" || icons[1].Name != "b.svg" {
		t.Fatalf("unexpected manifest rows %+v", icons)
	}
	if icons[1].Scale != 2.4 {
		t.Fatalf("unexpected scale %g", icons[1].Scale)
	}

	meta, err := db.GetBuildMeta(database)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if meta.Status != entry.StatusOK || meta.IconCount != 2 || meta.SourceDir != src {
		t.Fatalf("unexpected meta %+v", meta)
	}

	leftovers, err := filepath.Glob(filepath.Join(root, "meta", ".sdficon-temp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp manifest left behind: %v", leftovers)
	}
}

func TestRunBuildFailureFinalizesManifest(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.svg", `<svg viewBox="0 0 10 10"/>`)
	writeFile(t, src, "b.svg", `<svg><g/></svg>`)

	root := t.TempDir()
	dest := filepath.Join(root, "out")
	manifestPath := filepath.Join(root, "icons.db")

	mgr := NewManager(dest)
	mgr.SetManifest(manifestPath)
	meta, err := mgr.RunBuild(context.Background(), src, scan.DefaultOptions())
	if err == nil {
		t.Fatal("expected build failure")
	}
	if meta == nil || meta.Status != entry.StatusFailed {
		t.Fatalf("expected failed meta, got %+v", meta)
	}

	database := openManifestDB(t, manifestPath)
	stored, err := db.GetBuildMeta(database)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if stored.Status != entry.StatusFailed || stored.Error == "" || stored.IconCount != 1 {
		t.Fatalf("unexpected stored meta %+v", stored)
	}
	errs, err := db.LoadErrors(database, 0)
	if err != nil {
		t.Fatalf("load errors: %v", err)
	}
	if len(errs) != 1 || errs[0].Path != "b.svg" {
		t.Fatalf("unexpected error rows %+v", errs)
	}
}

func TestRunBuildUsageErrors(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	if err := os.Mkdir(src, 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, root, "file.svg", "<svg/>")

	tests := []struct {
		name     string
		src      string
		dest     string
		manifest string
		preview  string
	}{
		{"missing source", filepath.Join(root, "nope"), filepath.Join(root, "out"), "", ""},
		{"source is a file", filepath.Join(root, "file.svg"), filepath.Join(root, "out"), "", ""},
		{"dest is source", src, src, "", ""},
		{"dest contains source", src, root, "", ""},
		{"manifest inside dest", src, filepath.Join(root, "out"), filepath.Join(root, "out", "m.db"), ""},
		{"preview inside dest", src, filepath.Join(root, "out"), "", filepath.Join(root, "out", "png")},
		{"preview contains dest", src, filepath.Join(root, "png", "out"), "", filepath.Join(root, "png")},
	}
	for _, tt := range tests {
		mgr := NewManager(tt.dest)
		mgr.SetManifest(tt.manifest)
		opts := scan.DefaultOptions()
		opts.Preview.Dir = tt.preview

		_, err := mgr.RunBuild(context.Background(), tt.src, opts)
		var usage *UsageError
		if !errors.As(err, &usage) {
			t.Fatalf("%s: expected UsageError, got %v", tt.name, err)
		}
	}

	// nothing was created or removed
	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Fatalf("destination created despite usage error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "file.svg")); err != nil {
		t.Fatalf("source tree modified: %v", err)
	}
}

func TestRunBuildWritesPreviews(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "a.svg", `<svg viewBox="0 0 24 24"><rect width="24" height="24"/></svg>`)

	root := t.TempDir()
	opts := scan.DefaultOptions()
	opts.Preview.Dir = filepath.Join(root, "png")
	opts.Preview.Check = true

	meta, err := NewManager(filepath.Join(root, "out")).RunBuild(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("run build: %v", err)
	}
	if meta.OverflowCount != 0 {
		t.Fatalf("unexpected overflow count %d", meta.OverflowCount)
	}
	if _, err := os.Stat(filepath.Join(root, "png", "a.png")); err != nil {
		t.Fatalf("expected preview: %v", err)
	}
}

func TestRunBuildRecordsEmptyIcons(t *testing.T) {
	src := t.TempDir()
	writeFile(t, src, "blank.svg", `<svg viewBox="0 0 24 24"><g/></svg>`)
	writeFile(t, src, "box.svg", `<svg viewBox="0 0 24 24"><rect width="24" height="24"/></svg>`)

	root := t.TempDir()
	manifestPath := filepath.Join(root, "icons.db")
	mgr := NewManager(filepath.Join(root, "out"))
	mgr.SetManifest(manifestPath)

	opts := scan.DefaultOptions()
	opts.Preview.Check = true
	meta, err := mgr.RunBuild(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("run build: %v", err)
	}
	if meta.EmptyCount != 1 {
		t.Fatalf("expected one empty icon, got %+v", meta)
	}

	database := openManifestDB(t, manifestPath)
	stored, err := db.GetBuildMeta(database)
	if err != nil {
		t.Fatalf("get meta: %v", err)
	}
	if stored.EmptyCount != 1 {
		t.Fatalf("expected empty_count 1, got %+v", stored)
	}
	blank, err := db.GetIcon(database, "blank.svg")
	if err != nil {
		t.Fatalf("get icon: %v", err)
	}
	if blank == nil || !blank.Empty {
		t.Fatalf("expected blank.svg recorded empty, got %+v", blank)
	}
}
