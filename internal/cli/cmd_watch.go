package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/tui"
)

// newWatchCmd creates the watch command: the live terminal surface.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch deadlines with a live countdown",
		Long: `Open the live watch screen: quadrant counts, badge totals, a
one-second countdown to the next relevant deadline, and inline reminder
popups. Press c for a manual check (includes overdue tasks), q to quit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return fmt.Errorf("watch needs a terminal; use 'quad check' in scripts")
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			m := tui.NewModel(a.store, a.engine,
				tui.WithIntervals(a.cfg.CoarseInterval, a.cfg.FineInterval))
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}
