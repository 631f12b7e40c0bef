// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/logger"
)

var (
	configPath string // directory holding main.toml

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "gitforge-admin",
	Short: "GitForge-Admin is the admin console of a self-hosted code forge",
	Long: `GitForge-Admin manages the application wide settings of a self-hosted code forge,
its runner registration token, usage data and the third-party integrations of projects.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./etc/", "directory of main.toml")
}

// loadConfig reads the configuration and initialises the logger.
func loadConfig() error {
	var err error

	if cfg, err = config.ReadConfig(configPath); err != nil {
		return err
	}

	return logger.Init(cfg.Log)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
