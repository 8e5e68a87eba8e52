package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/michaelscutari/sdficon/internal/db"
	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List manifest rows non-interactively",
	Long:  `Query the build manifest and print one row per icon for scripting.`,
	Args:  cobra.NoArgs,
	RunE:  runQuery,
}

var (
	queryDB    string
	querySort  string
	queryLimit int
)

func init() {
	queryCmd.Flags().StringVarP(&queryDB, "db", "d", "./sdficon.db", "Path to manifest file (env SDFICON_DB)")
	queryCmd.Flags().StringVarP(&querySort, "sort", "s", "name", "Sort by: "+strings.Join(db.SortKeys, ", "))
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 20, "Maximum number of results (0 = all)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if !db.ValidSort(querySort) {
		return fmt.Errorf("invalid sort %q (expected %s)", querySort, strings.Join(db.SortKeys, "|"))
	}

	database, err := openManifest(manifestPath(cmd, queryDB))
	if err != nil {
		return err
	}
	defer database.Close()

	icons, err := db.LoadIcons(database, querySort, queryLimit)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCALE\tBYTES\tSIZE\tOFFSET\tXLINK\tOVERFLOW\tNAME\n")
	for _, i := range icons {
		overflow := "-"
		if i.Checked {
			overflow = "no"
			if i.Overflow {
				overflow = "yes"
			}
			if i.Empty {
				overflow = "empty"
			}
		}
		xlink := "no"
		if i.XLink {
			xlink = "yes"
		}
		fmt.Fprintf(w, "%.6f\t%s\t%gx%g\t%.3f,%.3f\t%s\t%s\t%s\n",
			i.Scale,
			humanize.Bytes(uint64(i.Bytes)),
			i.SourceWidth, i.SourceHeight,
			i.OffsetX, i.OffsetY,
			xlink,
			overflow,
			i.Name,
		)
	}
	w.Flush()

	return nil
}
