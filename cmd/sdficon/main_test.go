package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/michaelscutari/sdficon/internal/output"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags puts every flag back to its default so runs do not leak into
// each other through the package-level command tree.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(args ...string) error {
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func writeIcon(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestBuildAndReadManifest(t *testing.T) {
	src := t.TempDir()
	writeIcon(t, src, "a.svg", `<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`)
	writeIcon(t, src, "b.svg", `<svg width="100" height="50"><rect width="100" height="50"/></svg>`)

	root := t.TempDir()
	dest := filepath.Join(root, "out")
	manifest := filepath.Join(root, "icons.db")

	if err := execute(src, dest, "--manifest", manifest, "--workers", "2"); err != nil {
		t.Fatalf("build: %v", err)
	}
	for _, name := range []string{"a.svg", "b.svg"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Fatalf("missing output %s: %v", name, err)
		}
	}

	if err := execute("info", "--db", manifest); err != nil {
		t.Fatalf("info: %v", err)
	}
	if err := execute("query", "--db", manifest, "--sort", "scale"); err != nil {
		t.Fatalf("query: %v", err)
	}
	if err := execute("query", "--db", manifest, "--sort", "size"); err == nil {
		t.Fatal("expected invalid sort to fail")
	}
	if err := execute("inspect", filepath.Join(src, "a.svg"), "--check"); err != nil {
		t.Fatalf("inspect: %v", err)
	}
}

func TestBuildUsageErrors(t *testing.T) {
	root := t.TempDir()
	tests := [][]string{
		{filepath.Join(root, "only-one")},
		{filepath.Join(root, "a"), filepath.Join(root, "b"), filepath.Join(root, "c")},
		{filepath.Join(root, "missing"), filepath.Join(root, "out")},
	}
	for _, args := range tests {
		err := execute(args...)
		var usage *output.UsageError
		if !errors.As(err, &usage) {
			t.Fatalf("%v: expected UsageError, got %v", args, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "out")); !os.IsNotExist(err) {
		t.Fatalf("destination created despite usage error: %v", err)
	}
}

func TestBuildFailsOnMalformedIcon(t *testing.T) {
	src := t.TempDir()
	writeIcon(t, src, "bad.svg", `<svg><path d="M0 0"/></svg>`)

	err := execute(src, filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Fatal("expected build failure")
	}
	var usage *output.UsageError
	if errors.As(err, &usage) {
		t.Fatalf("malformed input is not a usage error: %v", err)
	}
}

func TestInspectReportsUnreadableFiles(t *testing.T) {
	if err := execute("inspect", filepath.Join(t.TempDir(), "nope.svg")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestBuildSourceNamedLikeSubcommand(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "info")
	if err := os.Mkdir(src, 0755); err != nil {
		t.Fatal(err)
	}
	writeIcon(t, src, "a.svg", `<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`)
	t.Chdir(root)

	if err := execute("./info", "out"); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "a.svg")); err != nil {
		t.Fatalf("missing output: %v", err)
	}
}

func TestFlagOverridesInvalidEnvironment(t *testing.T) {
	src := t.TempDir()
	writeIcon(t, src, "a.svg", `<svg viewBox="0 0 24 24"><path d="M0 0h24v24H0z"/></svg>`)
	t.Setenv("SDFICON_WORKERS", "0")

	if err := execute(src, filepath.Join(t.TempDir(), "out"), "--workers", "2"); err != nil {
		t.Fatalf("explicit --workers should win over SDFICON_WORKERS=0: %v", err)
	}

	err := execute(src, filepath.Join(t.TempDir(), "out"))
	var usage *output.UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("expected UsageError from SDFICON_WORKERS=0, got %v", err)
	}

	if err := execute("inspect", filepath.Join(src, "a.svg")); err != nil {
		t.Fatalf("inspect must not depend on build settings: %v", err)
	}
}
