package main

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/michaelscutari/sdficon/internal/db"
	"github.com/michaelscutari/sdficon/internal/entry"
	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display build metadata",
	Long:  `Print metadata about a build manifest including timestamps, totals and errors.`,
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

var infoDB string

func init() {
	infoCmd.Flags().StringVarP(&infoDB, "db", "d", "./sdficon.db", "Path to manifest file (env SDFICON_DB)")
}

func runInfo(cmd *cobra.Command, args []string) error {
	database, err := openManifest(manifestPath(cmd, infoDB))
	if err != nil {
		return err
	}
	defer database.Close()

	meta, err := db.GetBuildMeta(database)
	if err != nil {
		return fmt.Errorf("failed to read build metadata: %w", err)
	}

	fmt.Printf("Build Information\n")
	fmt.Printf("=================\n\n")
	fmt.Printf("Source:       %s\n", meta.SourceDir)
	fmt.Printf("Destination:  %s\n", meta.DestDir)
	fmt.Printf("Status:       %s\n", meta.Status)
	fmt.Printf("Start Time:   %s\n", meta.StartTime.Format(time.RFC3339))
	if !meta.EndTime.IsZero() {
		fmt.Printf("End Time:     %s\n", meta.EndTime.Format(time.RFC3339))
		fmt.Printf("Duration:     %s\n", meta.EndTime.Sub(meta.StartTime).Round(time.Second))
	}
	fmt.Printf("\nStatistics\n")
	fmt.Printf("----------\n")
	fmt.Printf("Icons:        %s\n", humanize.Comma(meta.IconCount))
	fmt.Printf("Output Size:  %s\n", humanize.Bytes(uint64(meta.TotalBytes)))
	if meta.OverflowCount > 0 {
		fmt.Printf("Overflowing:  %s\n", humanize.Comma(meta.OverflowCount))
	}
	if meta.EmptyCount > 0 {
		fmt.Printf("Empty:        %s\n", humanize.Comma(meta.EmptyCount))
	}

	if meta.Status == entry.StatusFailed {
		fmt.Printf("\nError: %s\n", meta.Error)
		errs, err := db.LoadErrors(database, 20)
		if err != nil {
			return fmt.Errorf("failed to read build errors: %w", err)
		}
		for _, e := range errs {
			fmt.Printf("  %s: %s\n", e.Path, e.Message)
		}
	}

	return nil
}

// openManifest opens an existing manifest read-only.
func openManifest(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("manifest not found: %w", err)
	}
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	// pragmas are per connection
	database.SetMaxOpenConns(1)
	if err := db.ApplyReadPragmas(database); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return database, nil
}
