package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"grimm.is/setsync/internal/config"
	"grimm.is/setsync/internal/fetch"
	"grimm.is/setsync/internal/firewall"
)

var paramFireHOL bool

var checkCommand = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if paramFireHOL {
			printFireHOLLists(cmd.OutOrStdout())
			return nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("configuration invalid: %w", err)
		}
		printCheck(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	checkCommand.Flags().BoolVar(&paramFireHOL, "firehol", false, "list the FireHOL names usable as firehol:<name>")
	mainCommand.AddCommand(checkCommand)
}

func printFireHOLLists(out io.Writer) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tDESCRIPTION")
	for _, l := range fetch.ListAvailable() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", l.Name, l.Category, l.Description)
	}
	w.Flush()
}

func printCheck(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "Configuration valid!\n")
	fmt.Fprintf(out, "Schema Version: %s\n", cfg.SchemaVersion)
	fmt.Fprintf(out, "Table:          %s\n", cfg.TableName)
	fmt.Fprintf(out, "Backend:        %s\n", cfg.Backend)
	if cfg.ChunkSize > 0 {
		fmt.Fprintf(out, "Chunk Size:     %d\n", cfg.ChunkSize)
	} else {
		fmt.Fprintf(out, "Chunk Size:     unbounded\n")
	}
	switch {
	case cfg.ExcludedURL != "":
		fmt.Fprintf(out, "Excluded:       %s\n", cfg.ExcludedURL)
	case len(cfg.ExcludedIPs) > 0:
		fmt.Fprintf(out, "Excluded:       %d entries\n", len(cfg.ExcludedIPs))
	}
	if cfg.AutoUpdateEnabled() {
		if cfg.AutoUpdate.Schedule != "" {
			fmt.Fprintf(out, "Auto Update:    cron %q\n", cfg.AutoUpdate.Schedule)
		} else {
			fmt.Fprintf(out, "Auto Update:    every %s\n", cfg.AutoUpdate.Interval)
		}
	} else {
		fmt.Fprintf(out, "Auto Update:    disabled\n")
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SET\tFAMILY\tTYPE\tFLAGS\tLIMIT\tURLS")
	for _, src := range cfg.ResolvedSources() {
		var flags []string
		for _, f := range src.Template.Flags {
			flags = append(flags, string(f))
		}
		limit := "-"
		if src.EntriesLimit > 0 {
			limit = fmt.Sprint(src.EntriesLimit)
			if src.StrictLimit {
				limit += " (strict)"
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", src.Name, src.Template.Family, src.Template.Type,
			strings.Join(flags, ","), limit, len(src.URLs))
	}
	w.Flush()

	for _, src := range cfg.Sources {
		for _, u := range src.URLs {
			name, ok := strings.CutPrefix(u, "firehol:")
			if !ok {
				continue
			}
			if _, known := fetch.WellKnownLists[name]; !known {
				fmt.Fprintf(out, "\nWarning: %s: unknown FireHOL list %q, using %s\n", src.Name, name, fetch.FireHOLURL(name))
			}
		}
	}

	if unix.Geteuid() != 0 {
		fmt.Fprintf(out, "\nWarning: not running as root; applying sets requires CAP_NET_ADMIN\n")
	}
	if cfg.Backend == config.BackendNft {
		if v, err := firewall.NewScriptSink(nil).Version(); err != nil {
			fmt.Fprintf(out, "Warning: %v\n", err)
		} else {
			fmt.Fprintf(out, "Using %s\n", v)
		}
	}
}
