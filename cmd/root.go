package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/careplan/config"
	"github.com/kilianp07/careplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "careplan",
	Short:         "Health activity scheduler",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig loads the configuration and applies the logging settings. The
// default config file is optional; an explicit --config must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Setup(cfg.Logging.Logger()); err != nil {
		return nil, err
	}
	return cfg, nil
}
