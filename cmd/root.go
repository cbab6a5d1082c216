// Package cmd implements the setsync command line.
package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"grimm.is/setsync/internal/brand"
	"grimm.is/setsync/internal/config"
	"grimm.is/setsync/internal/logging"
)

var mainCommand = &cobra.Command{
	Use:           brand.BinaryName,
	Short:         brand.Description,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var paramConfig string

func init() {
	mainCommand.PersistentFlags().StringVarP(&paramConfig, "config", "c", brand.DefaultConfigPath(), "config file")
}

// Run executes the command line and prints any error to stderr.
func Run() error {
	err := mainCommand.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(paramConfig)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", paramConfig, err)
	}
	return cfg, nil
}

// setupLogging installs the default logger and returns a closer for the
// syslog connection, if any.
func setupLogging(cfg *config.Config) (*logging.Logger, io.Closer, error) {
	lc := cfg.LoggingConfig()

	var closer io.Closer = nopCloser{}
	if sc, ok := cfg.SyslogConfig(); ok {
		w, err := logging.NewSyslogWriter(sc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to syslog: %w", err)
		}
		lc.Output = logging.MultiWriter(os.Stderr, w)
		closer = w
	}

	logger := logging.New(lc)
	logging.SetDefault(logger)
	return logger, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
