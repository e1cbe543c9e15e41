package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quadjournal/quad/internal/api"
	"github.com/quadjournal/quad/internal/reminder"
)

// newServeCmd creates the serve command for the sync server.
func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sync server",
		Long: `Start the quad sync server. It serves the REST API, streams every
store change over /ws so all connected windows stay in sync, and runs
the reminder timers in the background.

Example:
  quad serve                          # default 127.0.0.1:8420
  quad serve --addr 127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}

			server := api.New(api.Config{
				Addr:     addr,
				Logger:   a.logger,
				Store:    a.store,
				Journal:  a.journal,
				Settings: a.settings,
				Engine:   a.engine,
				Events:   a.events,
			})

			runner := reminder.NewRunner(a.store, a.engine, a.events, a.logger,
				reminder.WithIntervals(a.cfg.CoarseInterval, a.cfg.FineInterval))

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Println("\nShutting down...")
				cancel()
			}()

			fmt.Printf("Sync server on %s (Ctrl+C to stop)\n", addr)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.StartContext(gctx)
			})
			g.Go(func() error {
				return runner.Run(gctx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
