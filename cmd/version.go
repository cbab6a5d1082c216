package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"grimm.is/setsync/internal/brand"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", brand.Name, brand.Version)
		fmt.Fprintf(out, "Build Time: %s\n", brand.BuildTime)
		fmt.Fprintf(out, "Git Commit: %s\n", brand.GitCommit)
	},
}

func init() {
	mainCommand.AddCommand(versionCommand)
}
