package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quadjournal/quad/internal/store"
	"github.com/quadjournal/quad/internal/util"
)

func decodeImportPayload(data []byte) (store.ImportPayload, error) {
	var payload store.ImportPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return store.ImportPayload{}, fmt.Errorf("parse import payload: %w", err)
	}
	return payload, nil
}

// newExportCmd creates the export command.
func newExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all tasks as JSON",
		Long: `Export the four quadrant lists as a versioned JSON document.
With --output the file is written atomically; otherwise the document
goes to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := a.store.Export()
			if err != nil {
				return err
			}

			if output == "" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := util.AtomicWriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Printf("Exported %d task(s) to %s\n", a.store.TaskCount(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// newImportCmd creates the import command.
func newImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from a JSON payload",
		Long: `Import a JSON payload of proposed tasks. The payload may carry
whole quadrant lists ("quadrants") or an incremental delta ("delta"
with add/remove/move/update). Imported tasks get fresh ids; unknown
quadrants and blank titles are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}
			payload, err := decodeImportPayload(data)
			if err != nil {
				return err
			}

			res, err := a.store.ApplyImport(payload)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(res)
			}
			fmt.Printf("Imported: %d added, %d removed, %d moved, %d updated, %d skipped\n",
				res.Added, res.Removed, res.Moved, res.Updated, res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "import file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newBackupCmd creates the backup command group.
func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage task backups",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			backups, err := a.store.ListBackups()
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(backups)
			}
			if len(backups) == 0 {
				fmt.Println("No backups.")
				return nil
			}
			for _, b := range backups {
				fmt.Printf("%s  %s\n", b.Key, b.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Back up all tasks, then clear every quadrant",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			key, err := a.store.Reset()
			if err != nil {
				return err
			}
			a.engine.ClearAllAlertMemory()
			fmt.Printf("Cleared all quadrants; backup saved as %s\n", key)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <key>",
		Short: "Restore tasks from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.Restore(args[0]); err != nil {
				return err
			}
			a.engine.ClearAllAlertMemory()
			fmt.Printf("Restored %d task(s) from %s\n", a.store.TaskCount(), args[0])
			return nil
		},
	})

	return cmd
}
