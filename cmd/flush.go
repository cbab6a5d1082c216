package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var flushCommand = &cobra.Command{
	Use:   "flush",
	Short: "Remove every element from the configured sets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(paramDryRun, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()
		return a.syncer.FlushAll(ctx)
	},
}

func init() {
	flushCommand.Flags().BoolVarP(&paramDryRun, "dry-run", "n", false, "print the nft script instead of applying it")
	mainCommand.AddCommand(flushCommand)
}
