package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var paramDryRun bool

var updateCommand = &cobra.Command{
	Use:   "update",
	Short: "Run one synchronization pass",
	Long:  `Download every configured list and apply changed sets to nftables.`,
	Args:  cobra.NoArgs,
	RunE:  runUpdate,
}

func init() {
	updateCommand.Flags().BoolVarP(&paramDryRun, "dry-run", "n", false, "print the nft script instead of applying it")
	mainCommand.AddCommand(updateCommand)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(paramDryRun, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	report := a.syncer.RunPass(ctx)
	if err := report.Err(); err != nil {
		if report.Aborted != nil {
			return fmt.Errorf("update aborted: %w", err)
		}
		return fmt.Errorf("%d of %d sets failed: %w", report.Failed(), len(report.Sources), err)
	}
	return nil
}
