package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"grimm.is/setsync/internal/config"
)

var paramForce bool

var initCommand = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(paramConfig); err == nil && !paramForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", paramConfig)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(paramConfig), 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(paramConfig, config.EncodeHCL(config.Example()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", paramConfig)
		return nil
	},
}

func init() {
	initCommand.Flags().BoolVarP(&paramForce, "force", "f", false, "overwrite an existing file")
	mainCommand.AddCommand(initCommand)
}
