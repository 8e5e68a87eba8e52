package scan

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/michaelscutari/sdficon/internal/pathutil"
)

// Sink receives the outcome of every file. Either channel may be nil.
type Sink struct {
	Icons  chan<- entry.Icon
	Errors chan<- entry.BuildError
}

// Progress holds current conversion progress.
type Progress struct {
	Total    int64
	Done     int64
	Bytes    int64
	Overflow int64
	Empty    int64
}

// Scanner converts every SVG in a source directory into a destination
// directory.
type Scanner struct {
	opts *Options

	total    int64
	done     int64
	bytes    int64
	overflow int64
	empty    int64
}

// NewScanner creates a new scanner.
func NewScanner(opts *Options) *Scanner {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scanner{opts: opts}
}

// ListSources returns the names of regular entries in dir ending in
// ".svg" (any case), sorted. Subdirectories and excluded names are skipped.
func ListSources(dir string, opts *Options) ([]string, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, de := range dirEntries {
		if de.IsDir() || !pathutil.IsSVG(de.Name()) {
			continue
		}
		if opts != nil && opts.ShouldExclude(de.Name()) {
			continue
		}
		names = append(names, de.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Run converts every source file into destDir, which must already exist.
// The first failure cancels the remaining work and is returned wrapped with
// the file name; files converted before it stay on disk.
func (s *Scanner) Run(ctx context.Context, srcDir, destDir string, sink Sink) error {
	names, err := ListSources(srcDir, s.opts)
	if err != nil {
		return fmt.Errorf("failed to list sources: %w", err)
	}
	atomic.StoreInt64(&s.total, int64(len(names)))

	if s.opts.Verbose {
		fmt.Fprintf(os.Stderr, "[SCANNER] START files=%d workers=%d src=%s dest=%s\n", len(names), s.opts.Workers, srcDir, destDir)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		failOnce sync.Once
		firstErr error
	)
	fail := func(err error) {
		failOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	jobs := make(chan string)
	for i := 0; i < s.opts.Workers; i++ {
		w := NewWorker(i, s.opts, srcDir, destDir)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				if ctx.Err() != nil {
					continue
				}
				icon, err := w.Process(name)
				if err != nil {
					if sink.Errors != nil {
						sink.Errors <- entry.BuildError{Path: name, Message: err.Error()}
					}
					fail(fmt.Errorf("%s: %w", name, err))
					continue
				}
				atomic.AddInt64(&s.done, 1)
				atomic.AddInt64(&s.bytes, icon.Bytes)
				if icon.Overflow {
					atomic.AddInt64(&s.overflow, 1)
				}
				if icon.Empty {
					atomic.AddInt64(&s.empty, 1)
				}
				if sink.Icons != nil {
					sink.Icons <- icon
				}
			}
		}()
	}

feed:
	for _, name := range names {
		select {
		case jobs <- name:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if s.opts.Verbose {
		fmt.Fprintf(os.Stderr, "[SCANNER] DONE converted=%d of %d\n", atomic.LoadInt64(&s.done), len(names))
	}

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// Progress returns current progress (safe for concurrent access).
func (s *Scanner) Progress() Progress {
	return Progress{
		Total:    atomic.LoadInt64(&s.total),
		Done:     atomic.LoadInt64(&s.done),
		Bytes:    atomic.LoadInt64(&s.bytes),
		Overflow: atomic.LoadInt64(&s.overflow),
		Empty:    atomic.LoadInt64(&s.empty),
	}
}
