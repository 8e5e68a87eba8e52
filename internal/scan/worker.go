package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/michaelscutari/sdficon/internal/normalize"
	"github.com/michaelscutari/sdficon/internal/preview"
)

const slowOpThreshold = 200 * time.Millisecond

// Worker runs the per-file pipeline: read, normalize, write, preview.
type Worker struct {
	id      int
	opts    *Options
	srcDir  string
	destDir string
}

// NewWorker creates a new worker.
func NewWorker(id int, opts *Options, srcDir, destDir string) *Worker {
	return &Worker{
		id:      id,
		opts:    opts,
		srcDir:  srcDir,
		destDir: destDir,
	}
}

// Process converts a single source file and returns its record.
func (w *Worker) Process(name string) (entry.Icon, error) {
	start := time.Now()
	srcPath := filepath.Join(w.srcDir, name)
	outPath := filepath.Join(w.destDir, name)

	res, err := normalize.NormalizeFile(srcPath)
	if err != nil {
		return entry.Icon{}, err
	}
	data, err := res.Bytes()
	if err != nil {
		return entry.Icon{}, fmt.Errorf("serialize: %w", err)
	}
	if err := writeFileAtomic(outPath, data); err != nil {
		return entry.Icon{}, fmt.Errorf("write: %w", err)
	}

	icon := entry.Icon{
		Name:         name,
		SourcePath:   srcPath,
		OutputPath:   outPath,
		SourceWidth:  res.Size.Width,
		SourceHeight: res.Size.Height,
		Scale:        res.Placement.Scale,
		OffsetX:      res.Placement.OffsetX,
		OffsetY:      res.Placement.OffsetY,
		XLink:        res.XLink,
		Bytes:        int64(len(data)),
	}

	if w.opts.Preview.Enabled() {
		ink, err := preview.Process(data, name, w.opts.Preview)
		if err != nil {
			return entry.Icon{}, err
		}
		if w.opts.Preview.Check {
			icon.Checked = true
			icon.InkX0, icon.InkY0, icon.InkX1, icon.InkY1 = ink.X0, ink.Y0, ink.X1, ink.Y1
			icon.Overflow = !ink.WithinContentBox(max(w.opts.Preview.Scale, 1))
			icon.Empty = ink.Empty
			if icon.Empty {
				fmt.Fprintf(os.Stderr, "warning: %s: nothing rendered\n", name)
			}
			if icon.Overflow {
				fmt.Fprintf(os.Stderr, "warning: %s: ink (%.1f,%.1f)-(%.1f,%.1f) extends outside the content box\n",
					name, ink.X0, ink.Y0, ink.X1, ink.Y1)
			}
		}
	}

	icon.Duration = time.Since(start)
	if w.opts.Verbose {
		fmt.Fprintf(os.Stderr, "[WORKER %d] DONE name=%s scale=%.6f bytes=%d took=%s\n", w.id, name, icon.Scale, icon.Bytes, icon.Duration)
		if icon.Duration > slowOpThreshold {
			fmt.Fprintf(os.Stderr, "[WORKER %d] SLOW name=%s took=%s\n", w.id, name, icon.Duration)
		}
	}
	return icon, nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// a reader never sees a half-written document.
func writeFileAtomic(path string, data []byte) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
