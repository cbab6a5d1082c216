package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"grimm.is/setsync/internal/state"
)

var (
	paramSource string
	paramLimit  int
)

var statusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show the outcome of recent passes",
	Long: `Print the latest recorded outcome of every set, or the history of
one set with --set. Requires state.path in the configuration.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCommand.Flags().StringVarP(&paramSource, "set", "s", "", "show the history of one set")
	statusCommand.Flags().IntVarP(&paramLimit, "limit", "l", 20, "number of history rows")
	mainCommand.AddCommand(statusCommand)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.State.Path == "" {
		return errors.New("state.path is not configured, no history is recorded")
	}

	store, err := state.Open(state.DefaultOptions(cfg.State.Path))
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var records []state.Record
	if paramSource != "" {
		records, err = store.History(ctx, paramSource, paramLimit)
	} else {
		records, err = store.Latest(ctx)
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No passes recorded yet.")
		return nil
	}
	printRecords(cmd.OutOrStdout(), records)
	return nil
}

func printRecords(out io.Writer, records []state.Record) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SET\tRESULT\tENTRIES\tSTARTED\tDURATION\tERROR")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Source, r.Result, r.Entries,
			r.StartedAt.Local().Format(time.DateTime),
			r.Duration.Round(time.Millisecond), r.Error)
	}
	w.Flush()
}
