package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/michaelscutari/sdficon/internal/config"
	"github.com/michaelscutari/sdficon/internal/output"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// cfg holds SDFICON_* defaults; explicitly set flags override it.
var cfg config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var usage *output.UsageError
		if errors.As(err, &usage) {
			fmt.Fprintf(os.Stderr, "usage: %s\n", rootCmd.UseLine())
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sdficon <source_dir> <dest_dir>",
	Short: "Normalize SVG icons onto a 58x58 sprite canvas",
	Long: `sdficon rescales every SVG in source_dir so that its drawing fits a
48x48 content box centered on a 58x58 canvas, and writes the results to
dest_dir. The destination is deleted and recreated on every run.

Defaults can be set with SDFICON_* environment variables; flags win.

A first argument equal to a subcommand name (inspect, info, query, tui,
help) runs that subcommand. Write such a source directory with a path
prefix, for example ./info.`,
	Args:          buildArgs,
	RunE:          runBuild,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		return err
	},
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(tuiCmd)
}

// manifestPath resolves the --db flag of the read-only commands.
func manifestPath(cmd *cobra.Command, flagValue string) string {
	if cmd.Flags().Changed("db") {
		return flagValue
	}
	return cfg.DB
}
