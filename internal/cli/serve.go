package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background monitor until interrupted",
	Long: `Serve runs the unsolved-query monitor: pending claims are re-checked
on a growing backoff, resolutions are batched to the configured alert
channels, and user reputations decay toward their resting score.

Stops cleanly on SIGINT/SIGTERM, flushing any pending alert batch.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.monitor.Start(ctx); err != nil {
		return err
	}
	a.log.WithField("schedule", a.cfg.Monitor.SweepSchedule).Info("monitor started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	a.log.WithField("signal", sig.String()).Info("shutting down")
	cancel()
	a.monitor.Stop()
	return nil
}
