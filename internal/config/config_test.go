package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 1 {
		t.Fatalf("expected 1 worker, got %d", cfg.Workers)
	}
	if cfg.PreviewScale != 1 || cfg.PreviewBackground != "transparent" {
		t.Fatalf("unexpected preview defaults %d %q", cfg.PreviewScale, cfg.PreviewBackground)
	}
	if cfg.ProgressInterval != 30*time.Second {
		t.Fatalf("expected 30s progress interval, got %s", cfg.ProgressInterval)
	}
	if cfg.DB != "./sdficon.db" {
		t.Fatalf("unexpected db default %q", cfg.DB)
	}
	if cfg.Manifest != "" || cfg.PreviewDir != "" || cfg.Check || cfg.Verbose {
		t.Fatalf("unexpected optional defaults %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SDFICON_WORKERS", "8")
	t.Setenv("SDFICON_MANIFEST", "/tmp/icons.db")
	t.Setenv("SDFICON_CHECK", "true")
	t.Setenv("SDFICON_PROGRESS_INTERVAL", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 8 || cfg.Manifest != "/tmp/icons.db" || !cfg.Check {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.ProgressInterval != 5*time.Second {
		t.Fatalf("expected 5s, got %s", cfg.ProgressInterval)
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("SDFICON_WORKERS", "many")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestLoadLeavesRangesToCaller(t *testing.T) {
	t.Setenv("SDFICON_WORKERS", "0")
	t.Setenv("SDFICON_PREVIEW_SCALE", "-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Workers != 0 || cfg.PreviewScale != -1 {
		t.Fatalf("expected raw values, got %+v", cfg)
	}
}
