package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zsprackett/claude-viz/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "claude-viz",
	Short:         "Live activity feed for Claude Code sessions",
	Long:          "Captures Claude Code hook events, journals them locally, and streams them to browser and terminal viewers.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", configPath, err)
	}
	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
