package main

import (
	"fmt"

	"github.com/michaelscutari/sdficon/internal/tui"
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse a build manifest interactively",
	Long:  `Open an interactive TUI to browse converted icons, their placement and coverage.`,
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var tuiDB string

func init() {
	tuiCmd.Flags().StringVarP(&tuiDB, "db", "d", "./sdficon.db", "Path to manifest file (env SDFICON_DB)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	database, err := openManifest(manifestPath(cmd, tuiDB))
	if err != nil {
		return err
	}
	defer database.Close()

	model := tui.NewModel(database)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
