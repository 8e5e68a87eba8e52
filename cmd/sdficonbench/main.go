package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/michaelscutari/sdficon/internal/db"
	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/michaelscutari/sdficon/internal/scan"

	_ "modernc.org/sqlite"
)

func main() {
	dir := flag.String("dir", "", "Directory of SVGs to convert (empty = synthesize icons)")
	count := flag.Int("count", 2000, "Icons to synthesize when -dir is empty")
	workersList := flag.String("workers", "1,2,4,8", "Comma separated worker counts to compare")
	rows := flag.Int("rows", 0, "Also measure manifest inserts of this many rows (0 = skip)")
	batch := flag.Int("batch", 256, "Recorder batch size")
	flag.Parse()

	workers, err := parseWorkers(*workersList)
	if err != nil {
		fmt.Fprintf(os.Stderr, "workers error: %v\n", err)
		os.Exit(1)
	}

	src := *dir
	if src == "" {
		src, err = synthesize(*count)
		if err != nil {
			fmt.Fprintf(os.Stderr, "synthesize error: %v\n", err)
			os.Exit(1)
		}
		defer os.RemoveAll(src)
	}

	names, err := scan.ListSources(src, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "readdir error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("dir=%s icons=%d\n", src, len(names))

	for _, n := range workers {
		elapsed, bytes, err := convert(src, n)
		if err != nil {
			fmt.Fprintf(os.Stderr, "convert error (workers=%d): %v\n", n, err)
			os.Exit(1)
		}
		rate := float64(0)
		if elapsed.Seconds() > 0 {
			rate = float64(len(names)) / elapsed.Seconds()
		}
		fmt.Printf("workers=%-3d total=%v bytes=%d throughput=%.0f icons/sec\n", n, elapsed, bytes, rate)
	}

	if *rows > 0 {
		elapsed, err := record(*rows, *batch)
		if err != nil {
			fmt.Fprintf(os.Stderr, "manifest error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("manifest rows=%d batch=%d total=%v", *rows, *batch, elapsed)
		if elapsed.Seconds() > 0 {
			fmt.Printf(" throughput=%.0f rows/sec", float64(*rows)/elapsed.Seconds())
		}
		fmt.Println()
	}
}

func parseWorkers(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid worker count %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// synthesize writes count icons of varying aspect ratio into a temp dir.
func synthesize(count int) (string, error) {
	dir, err := os.MkdirTemp("", "sdficonbench-src-")
	if err != nil {
		return "", err
	}
	for i := 0; i < count; i++ {
		w, h := 16+i%64, 16+(i*7)%64
		svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %d %d">`+
			`<defs><path id="p" d="M0 0L%d %dH0z"/></defs><g fill="#000"><use xlink:href="#p"/><circle cx="%d" cy="%d" r="%d"/></g></svg>`,
			w, h, w, h, w/2, h/2, min(w, h)/3)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("icon%06d.svg", i)), []byte(svg), 0644); err != nil {
			os.RemoveAll(dir)
			return "", err
		}
	}
	return dir, nil
}

func convert(src string, workers int) (time.Duration, int64, error) {
	dest, err := os.MkdirTemp("", "sdficonbench-out-")
	if err != nil {
		return 0, 0, err
	}
	defer os.RemoveAll(dest)

	s := scan.NewScanner(scan.DefaultOptions().WithWorkers(workers))
	start := time.Now()
	if err := s.Run(context.Background(), src, dest, scan.Sink{}); err != nil {
		return 0, 0, err
	}
	return time.Since(start), s.Progress().Bytes, nil
}

func record(rows, batch int) (time.Duration, error) {
	dbPath := filepath.Join(os.TempDir(), fmt.Sprintf(".sdficonbench-%d.db", time.Now().UnixNano()))
	database, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		database.Close()
		os.Remove(dbPath)
	}()

	if err := db.InitSchema(database); err != nil {
		return 0, err
	}
	if err := db.ApplyWritePragmas(database); err != nil {
		return 0, err
	}

	iconCh := make(chan entry.Icon, batch)
	errorCh := make(chan entry.BuildError)
	rec := db.NewRecorder(database, iconCh, errorCh, batch, time.Second, false)
	done := make(chan error, 1)

	start := time.Now()
	go func() {
		done <- rec.Run(context.Background())
	}()
	for i := 0; i < rows; i++ {
		iconCh <- entry.Icon{
			Name:         fmt.Sprintf("icon%06d.svg", i),
			SourceWidth:  24,
			SourceHeight: 24,
			Scale:        2,
			OffsetX:      5,
			OffsetY:      5,
			Bytes:        512,
		}
	}
	close(iconCh)
	close(errorCh)
	if err := <-done; err != nil {
		return 0, err
	}
	return time.Since(start), nil
}
