package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/journal"
)

// newEntryCmd creates the entry command group.
func newEntryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Manage journal entries",
	}
	cmd.AddCommand(newEntryAddCmd())
	cmd.AddCommand(newEntryListCmd())
	cmd.AddCommand(newEntryShowCmd())
	cmd.AddCommand(newEntryEditCmd())
	cmd.AddCommand(newEntryDeleteCmd())
	return cmd
}

func newEntryAddCmd() *cobra.Command {
	var (
		content string
		tags    []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.journal.Add(args[0], content, tags)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(e)
			}
			fmt.Printf("Added entry %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&content, "content", "c", "", "entry body")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "entry tag (repeatable)")
	return cmd
}

func newEntryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List journal entries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			entries := a.journal.List()
			if jsonOut {
				return printJSON(entries)
			}
			if len(entries) == 0 {
				fmt.Println("No entries.")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tTITLE\tTAGS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Title, strings.Join(e.Tags, ","))
			}
			return w.Flush()
		},
	}
}

func newEntryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.journal.Get(args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(e)
			}
			fmt.Printf("%s\n%s\n", e.Title, strings.Repeat("=", len(e.Title)))
			if len(e.Tags) > 0 {
				fmt.Printf("Tags: %s\n", strings.Join(e.Tags, ", "))
			}
			fmt.Printf("Created: %s\n\n%s\n", e.CreatedAt.Format("2006-01-02 15:04"), e.Content)
			return nil
		},
	}
}

func newEntryEditCmd() *cobra.Command {
	var (
		title   string
		content string
		tags    []string
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var upd journal.EntryUpdate
			if cmd.Flags().Changed("title") {
				upd.Title = &title
			}
			if cmd.Flags().Changed("content") {
				upd.Content = &content
			}
			if cmd.Flags().Changed("tag") {
				upd.Tags = &tags
			}

			e, err := a.journal.Update(args[0], upd)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(e)
			}
			fmt.Printf("Updated entry %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new body")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replace tags (repeatable)")
	return cmd
}

func newEntryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a journal entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.journal.Delete(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return journal.ErrNotFound
			}
			fmt.Printf("Deleted entry %s\n", args[0])
			return nil
		},
	}
}
