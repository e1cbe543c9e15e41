package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/reminder"
	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/task"
)

// newTaskCmd creates the task command group.
func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage quadrant tasks",
	}
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskDoneCmd())
	cmd.AddCommand(newTaskMoveCmd())
	cmd.AddCommand(newTaskEditCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	cmd.AddCommand(newTaskCleanCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		description string
		deadline    string
		threshold   int
		priority    string
	)
	cmd := &cobra.Command{
		Use:   "add <quadrant> <title>",
		Short: "Add a task to a quadrant",
		Long: `Add a task to one of the four quadrants:
  urgent-important, important-not-urgent,
  urgent-not-important, not-urgent-not-important

The deadline is a date (2026-09-01); the task starts alerting
--alert-days before it. --alert-days 0 alerts only once the deadline
arrives.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if deadline != "" {
				if _, err := time.Parse(task.DeadlineLayout, deadline); err != nil {
					return fmt.Errorf("invalid deadline %q: use YYYY-MM-DD", deadline)
				}
			}

			t, err := a.store.AddTask(task.Quadrant(args[0]), args[1], description, deadline, threshold, task.Priority(priority))
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(t)
			}
			fmt.Printf("Added %s to %s\n", t.ID, task.Quadrant(args[0]).Label())
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "deadline date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&threshold, "alert-days", task.DefaultAlertDays, "days before the deadline to start alerting (0 = on the deadline)")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(task.PriorityMedium), "priority (high, medium, low)")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var sortMethod string
	cmd := &cobra.Command{
		Use:   "list [quadrant]",
		Short: "List tasks, all quadrants or one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			quadrants := task.ValidQuadrants()
			if len(args) == 1 {
				q := task.Quadrant(args[0])
				if !task.IsValidQuadrant(q) {
					return fmt.Errorf("invalid quadrant: %s", args[0])
				}
				quadrants = []task.Quadrant{q}
			}

			method := store.SortMethod(sortMethod)
			if sortMethod != "" && !store.IsValidSortMethod(method) {
				return fmt.Errorf("invalid sort method: %s", sortMethod)
			}
			if sortMethod == "" {
				method = a.settings.Quadrant().SortMethod
			}

			if jsonOut {
				out := map[task.Quadrant][]*task.Task{}
				for _, q := range quadrants {
					list := a.store.Tasks(q)
					store.SortTasks(list, method)
					out[q] = list
				}
				return printJSON(out)
			}

			now := time.Now()
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, q := range quadrants {
				list := a.store.Tasks(q)
				store.SortTasks(list, method)
				fmt.Fprintf(w, "%s\t(%d)\n", q.Label(), len(list))
				for _, t := range list {
					fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", t.ID, marker(t, now), t.Title, deadlineColumn(t))
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&sortMethod, "sort", "", "sort method (deadline, created, updated, title)")
	return cmd
}

func marker(t *task.Task, now time.Time) string {
	if t.Completed {
		return "[x]"
	}
	switch state, ok := reminder.Classify(*t, now); {
	case ok && state == reminder.StateOverdue:
		return "[!]"
	case ok && state == reminder.StateAlerting:
		return "[~]"
	default:
		return "[ ]"
	}
}

func deadlineColumn(t *task.Task) string {
	if t.Deadline == "" {
		return "-"
	}
	return fmt.Sprintf("%s (alert %dd, %s)", t.Deadline, t.AlertDays(), t.GetPriority())
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			t, q, ok := a.store.FindTask(args[0])
			if !ok {
				return fmt.Errorf("task not found: %s", args[0])
			}
			if jsonOut {
				return printJSON(map[string]any{"task": t, "quadrant": q})
			}

			fmt.Printf("ID:        %s\n", t.ID)
			fmt.Printf("Title:     %s\n", t.Title)
			if t.Description != "" {
				fmt.Printf("Notes:     %s\n", t.Description)
			}
			fmt.Printf("Quadrant:  %s\n", q.Label())
			fmt.Printf("Priority:  %s\n", t.GetPriority())
			if t.Deadline != "" {
				fmt.Printf("Deadline:  %s (alert %d day(s) before)\n", t.Deadline, t.AlertDays())
				if state, ok := reminder.Classify(*t, time.Now()); ok {
					fmt.Printf("State:     %s\n", state)
				}
			}
			fmt.Printf("Completed: %v\n", t.Completed)
			return nil
		},
	}
}

func newTaskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completed flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			_, q, ok := a.store.FindTask(args[0])
			if !ok {
				return fmt.Errorf("task not found: %s", args[0])
			}
			t, err := a.store.ToggleCompleted(q, args[0])
			if err != nil {
				return err
			}
			if t.Completed {
				fmt.Printf("Completed %s\n", t.ID)
			} else {
				fmt.Printf("Reopened %s\n", t.ID)
			}
			return nil
		},
	}
}

func newTaskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <quadrant>",
		Short: "Move a task to another quadrant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			to := task.Quadrant(args[1])
			if !task.IsValidQuadrant(to) {
				return fmt.Errorf("invalid quadrant: %s", args[1])
			}
			_, from, ok := a.store.FindTask(args[0])
			if !ok {
				return fmt.Errorf("task not found: %s", args[0])
			}
			moved, err := a.store.MoveTask(from, to, args[0])
			if err != nil {
				return err
			}
			if !moved {
				return fmt.Errorf("task not found: %s", args[0])
			}
			fmt.Printf("Moved %s to %s\n", args[0], to.Label())
			return nil
		},
	}
}

func newTaskEditCmd() *cobra.Command {
	var (
		title       string
		description string
		deadline    string
		threshold   int
		priority    string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			_, q, ok := a.store.FindTask(args[0])
			if !ok {
				return fmt.Errorf("task not found: %s", args[0])
			}

			var upd store.TaskUpdate
			if cmd.Flags().Changed("title") {
				upd.Title = &title
			}
			if cmd.Flags().Changed("description") {
				upd.Description = &description
			}
			if cmd.Flags().Changed("deadline") {
				if deadline != "" {
					if _, err := time.Parse(task.DeadlineLayout, deadline); err != nil {
						return fmt.Errorf("invalid deadline %q: use YYYY-MM-DD", deadline)
					}
				}
				upd.Deadline = &deadline
			}
			if cmd.Flags().Changed("alert-days") {
				upd.AlertThreshold = &threshold
			}
			if cmd.Flags().Changed("priority") {
				p := task.Priority(priority)
				if !task.IsValidPriority(p) {
					return fmt.Errorf("invalid priority: %s", priority)
				}
				upd.Priority = &p
			}

			t, schedulingChanged, err := a.store.UpdateTask(q, args[0], upd)
			if err != nil {
				return err
			}
			if schedulingChanged {
				// The edited task re-enters the alert cycle.
				a.engine.ClearAlertMemory(args[0])
			}
			fmt.Printf("Updated %s\n", t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&deadline, "deadline", "", "new deadline date, empty to clear")
	cmd.Flags().IntVar(&threshold, "alert-days", task.DefaultAlertDays, "new alert threshold in days")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "new priority")
	return cmd
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			_, q, ok := a.store.FindTask(args[0])
			if !ok {
				return fmt.Errorf("task not found: %s", args[0])
			}
			if _, err := a.store.DeleteTask(q, args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func newTaskCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove all completed tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.store.CleanCompleted()
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d completed task(s)\n", removed)
			return nil
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
