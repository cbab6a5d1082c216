package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"grimm.is/setsync/internal/logging"
	"grimm.is/setsync/internal/scheduler"
)

var daemonCommand = &cobra.Command{
	Use:   "daemon",
	Short: "Update sets on a schedule",
	Long: `Run a pass on start and then on the auto_update schedule until
SIGINT or SIGTERM. SIGHUP starts a pass immediately. Serves Prometheus
metrics when enabled.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	mainCommand.AddCommand(daemonCommand)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	a, err := newApp(false, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !a.cfg.AutoUpdateEnabled() {
		logger.Warn("auto_update is disabled, running a single pass")
		return a.syncer.RunPass(ctx).Err()
	}

	sched, err := a.cfg.Schedule()
	if err != nil {
		return fmt.Errorf("auto_update: %w", err)
	}

	if a.cfg.Metrics.Enabled {
		go func() {
			logger.Info("Serving metrics", "listen", a.cfg.Metrics.Listen)
			if err := a.metrics.Serve(ctx, a.cfg.Metrics.Listen); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	s := scheduler.New(logger.WithComponent("scheduler"))
	task := scheduler.NewSyncTask(sched, a.cfg.UpdateTimeout(), func(ctx context.Context) error {
		return a.syncer.RunPass(ctx).Err()
	})
	if err := s.AddTask(task); err != nil {
		return err
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	serveSchedule(ctx, s, hup, logger)
	return nil
}

// serveSchedule runs s until ctx is done. Every value on trigger starts an
// immediate pass; a pass already in flight is not started twice.
func serveSchedule(ctx context.Context, s *scheduler.Scheduler, trigger <-chan os.Signal, logger *logging.Logger) scheduler.TaskStatus {
	s.Start()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-trigger:
			logger.Info("Received SIGHUP, starting a pass")
			if err := s.RunTask(scheduler.SyncTaskID); err != nil {
				logger.Error("Failed to start pass", "error", err)
			}
		}
	}

	logger.Info("Received signal, shutting down...")
	logger.Info("Waiting for running pass to stop...")
	s.Stop()

	st, _ := s.GetTaskStatus(scheduler.SyncTaskID)
	logger.Info("Daemon stopped", "passes", st.RunCount, "failed", st.ErrorCount,
		"skipped", st.SkipCount, "last_error", st.LastError)
	return st
}
