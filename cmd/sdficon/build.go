package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/michaelscutari/sdficon/internal/output"
	"github.com/michaelscutari/sdficon/internal/preview"
	"github.com/michaelscutari/sdficon/internal/scan"
	"github.com/spf13/cobra"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var (
	buildWorkers      int
	buildManifest     string
	buildPreviewDir   string
	buildPreviewScale int
	buildBackground   string
	buildCheck        bool
	buildExclude      []string
	buildVerbose      bool
	buildProgress     time.Duration
)

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&buildWorkers, "workers", "w", 1, "Number of files converted concurrently (env SDFICON_WORKERS)")
	f.StringVarP(&buildManifest, "manifest", "m", "", "Write a SQLite build manifest to this path (env SDFICON_MANIFEST)")
	f.StringVar(&buildPreviewDir, "preview-dir", "", "Write 64x64 PNG sprite-cell previews here (env SDFICON_PREVIEW_DIR)")
	f.IntVar(&buildPreviewScale, "preview-scale", 1, "Pixels per canvas unit for previews and checks (env SDFICON_PREVIEW_SCALE)")
	f.StringVar(&buildBackground, "preview-background", "transparent", "Preview background: an SVG color name or transparent (env SDFICON_PREVIEW_BACKGROUND)")
	f.BoolVar(&buildCheck, "check", false, "Rasterize each output and warn when ink leaves the content box (env SDFICON_CHECK)")
	f.StringSliceVarP(&buildExclude, "exclude", "e", nil, "Regex patterns matched against file names to skip (can be repeated)")
	f.BoolVarP(&buildVerbose, "verbose", "v", false, "Enable verbose build logging (env SDFICON_VERBOSE)")
	f.DurationVar(&buildProgress, "progress-interval", 30*time.Second, "Emit progress lines to stderr at this interval when not a TTY (0 to disable) (env SDFICON_PROGRESS_INTERVAL)")
}

func buildArgs(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		return output.Usagef("expected <source_dir> <dest_dir>, got %d argument(s)", len(args))
	}
	return nil
}

// applyConfig copies environment defaults into every flag the user did not
// set explicitly.
func applyConfig(cmd *cobra.Command) {
	f := cmd.Flags()
	if !f.Changed("workers") {
		buildWorkers = cfg.Workers
	}
	if !f.Changed("manifest") {
		buildManifest = cfg.Manifest
	}
	if !f.Changed("preview-dir") {
		buildPreviewDir = cfg.PreviewDir
	}
	if !f.Changed("preview-scale") {
		buildPreviewScale = cfg.PreviewScale
	}
	if !f.Changed("preview-background") {
		buildBackground = cfg.PreviewBackground
	}
	if !f.Changed("check") {
		buildCheck = cfg.Check
	}
	if !f.Changed("verbose") {
		buildVerbose = cfg.Verbose
	}
	if !f.Changed("progress-interval") {
		buildProgress = cfg.ProgressInterval
	}
}

func absPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	return filepath.Abs(p)
}

func buildOptions() (*scan.Options, error) {
	if buildWorkers < 1 {
		return nil, output.Usagef("--workers (or SDFICON_WORKERS) must be at least 1, got %d", buildWorkers)
	}
	if buildPreviewScale < 1 {
		return nil, output.Usagef("--preview-scale (or SDFICON_PREVIEW_SCALE) must be at least 1, got %d", buildPreviewScale)
	}
	bg, err := preview.ParseBackground(buildBackground)
	if err != nil {
		return nil, output.Usagef("%v", err)
	}
	previewDir, err := absPath(buildPreviewDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve preview path: %w", err)
	}

	opts := scan.DefaultOptions().
		WithWorkers(buildWorkers).
		WithVerbose(buildVerbose).
		WithPreview(preview.Options{
			Dir:        previewDir,
			Scale:      buildPreviewScale,
			Background: bg,
			Check:      buildCheck,
		})

	for _, pattern := range buildExclude {
		if err := opts.AddExcludePattern(pattern); err != nil {
			return nil, output.Usagef("invalid exclude pattern %q: %v", pattern, err)
		}
	}
	return opts, nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	applyConfig(cmd)

	src, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}
	dest, err := filepath.Abs(args[1])
	if err != nil {
		return fmt.Errorf("failed to resolve destination path: %w", err)
	}
	manifest, err := absPath(buildManifest)
	if err != nil {
		return fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	mgr := output.NewManager(dest)
	mgr.SetManifest(manifest)
	if err := mgr.Validate(src, opts); err != nil {
		return err
	}

	fmt.Printf("Converting %s -> %s...\n", src, dest)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nCanceling... (press Ctrl+C again to force)")
		cancel()
		<-sigCh
		os.Exit(130)
	}()
	startTime := time.Now()

	var lastTotal, lastDone, lastBytes, lastOverflow int64
	var spinnerIdx int
	isTTY := isTerminal()
	var stage atomic.Value
	stage.Store("convert")

	mgr.SetProgressFunc(func(p scan.Progress) {
		atomic.StoreInt64(&lastTotal, p.Total)
		atomic.StoreInt64(&lastDone, p.Done)
		atomic.StoreInt64(&lastBytes, p.Bytes)
		atomic.StoreInt64(&lastOverflow, p.Overflow)
	})
	mgr.SetStageFunc(func(s string) {
		if s == "" {
			return
		}
		stage.Store(s)
	})

	progressDone := make(chan struct{})
	progressExited := make(chan struct{})
	go func() {
		defer close(progressExited)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		lastNonTTY := time.Now()
		for {
			select {
			case <-progressDone:
				return
			case <-ticker.C:
				if !isTTY && (buildProgress <= 0 || time.Since(lastNonTTY) < buildProgress) {
					continue
				}
				stageStr, _ := stage.Load().(string)
				total := atomic.LoadInt64(&lastTotal)
				done := atomic.LoadInt64(&lastDone)
				bytes := atomic.LoadInt64(&lastBytes)
				overflow := atomic.LoadInt64(&lastOverflow)
				elapsed := time.Since(startTime).Round(time.Millisecond)
				rate := float64(0)
				if elapsed.Seconds() > 0 {
					rate = float64(done) / elapsed.Seconds()
				}

				if isTTY {
					spinner := spinnerFrames[spinnerIdx%len(spinnerFrames)]
					spinnerIdx++
					if stageStr != "convert" {
						fmt.Fprintf(os.Stderr, "\r\033[K%s %s... | %s", spinner, stageStr, elapsed)
						continue
					}
					overflowStr := ""
					if overflow > 0 {
						overflowStr = fmt.Sprintf(" | %d overflow", overflow)
					}
					fmt.Fprintf(os.Stderr, "\r\033[K%s Converting... %d/%d icons | %s | %.0f/sec | %s%s",
						spinner, done, total, humanize.Bytes(uint64(bytes)), rate, elapsed, overflowStr)
					continue
				}

				if stageStr != "convert" {
					fmt.Fprintf(os.Stderr, "PROGRESS stage=%s elapsed=%s\n", stageStr, elapsed)
				} else {
					fmt.Fprintf(os.Stderr, "PROGRESS icons=%d total=%d bytes=%s rate=%.0f/sec elapsed=%s overflow=%d\n",
						done, total, humanize.Bytes(uint64(bytes)), rate, elapsed, overflow)
				}
				lastNonTTY = time.Now()
			}
		}
	}()

	meta, err := mgr.RunBuild(ctx, src, opts)
	close(progressDone)
	<-progressExited

	if isTTY {
		fmt.Fprintf(os.Stderr, "\r\033[K")
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Build canceled; the destination holds a partial result.")
		}
		return err
	}

	fmt.Printf("Build completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Icons: %s\n", humanize.Comma(meta.IconCount))
	fmt.Printf("  Output size: %s\n", humanize.Bytes(uint64(meta.TotalBytes)))
	if opts.Preview.Check {
		fmt.Printf("  Overflowing: %s\n", humanize.Comma(meta.OverflowCount))
		fmt.Printf("  Empty: %s\n", humanize.Comma(meta.EmptyCount))
	}
	if opts.Preview.Dir != "" {
		fmt.Printf("  Previews: %s\n", opts.Preview.Dir)
	}
	if manifest != "" {
		fmt.Printf("  Manifest: %s\n", manifest)
	}

	return nil
}

func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
