package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/michaelscutari/sdficon/internal/normalize"
	"github.com/michaelscutari/sdficon/internal/preview"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.svg>...",
	Short: "Print the placement computed for individual files",
	Long: `Resolve the drawing size of each file and print the placement the
build would apply, without writing anything. With --check the normalized
document is rasterized and its ink extent reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

var (
	inspectCheck bool
	inspectScale int
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectCheck, "check", false, "Rasterize and report ink bounds")
	inspectCmd.Flags().IntVar(&inspectScale, "scale", 1, "Pixels per canvas unit when checking")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if inspectScale < 1 {
		return fmt.Errorf("--scale must be at least 1, got %d", inspectScale)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "FILE\tSIZE\tSCALE\tTRANSFORM\tCONTENT"
	if inspectCheck {
		header += "\tINK\tOK"
	}
	fmt.Fprintln(w, header)

	var failed int
	for _, path := range args {
		line, err := inspectFile(path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintln(w, line)
	}
	w.Flush()

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be inspected", failed, len(args))
	}
	return nil
}

func inspectFile(path string) (string, error) {
	res, err := normalize.NormalizeFile(path)
	if err != nil {
		return "", err
	}
	b := res.ContentBounds()
	line := fmt.Sprintf("%s\t%gx%g\t%.6f\t%s\t(%.2f,%.2f)-(%.2f,%.2f)",
		filepath.Base(path), res.Size.Width, res.Size.Height, res.Placement.Scale,
		res.Placement.Transform(), b.X, b.Y, b.X+b.W, b.Y+b.H)

	if !inspectCheck {
		return line, nil
	}
	data, err := res.Bytes()
	if err != nil {
		return "", err
	}
	ink, err := preview.Process(data, filepath.Base(path), preview.Options{Scale: inspectScale, Check: true})
	if err != nil {
		return "", err
	}
	if ink.Empty {
		return line + "\t-\tyes", nil
	}
	ok := "yes"
	if !ink.WithinContentBox(inspectScale) {
		ok = "OVERFLOW"
	}
	return fmt.Sprintf("%s\t(%.1f,%.1f)-(%.1f,%.1f)\t%s", line, ink.X0, ink.Y0, ink.X1, ink.Y1, ok), nil
}
