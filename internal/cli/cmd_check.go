package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/reminder"
)

// newCheckCmd creates the check command: a one-off manual reminder check.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check reminders now",
		Long: `Run a manual reminder check. Unlike the background timer, the
manual check also reports tasks that are already overdue.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			now := time.Now()
			tasks := a.store.AllTasksFlat()
			batch := a.engine.CheckNow(tasks, now)
			counts := reminder.EvaluateAll(tasks, now)

			if jsonOut {
				return printJSON(map[string]any{
					"notified": batch,
					"badges":   counts,
				})
			}

			if len(batch) == 0 {
				fmt.Println("Nothing needs attention.")
			}
			for _, s := range batch {
				switch {
				case s.DaysLeft < 0:
					fmt.Printf("%s — overdue (deadline %s)\n", s.Title, s.Deadline)
				case s.DaysLeft == 0:
					fmt.Printf("%s — due today\n", s.Title)
				default:
					fmt.Printf("%s — due in %d day(s)\n", s.Title, s.DaysLeft)
				}
			}
			if total := counts.Total(); total > 0 {
				fmt.Printf("\n%d task(s) alerting or overdue in total\n", total)
			}
			return nil
		},
	}
}
