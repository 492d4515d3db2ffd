package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/trawler/internal/config"
	"github.com/aretw0/trawler/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trawler",
	Short: "Trawler drives a browser through scripted workflows",
	Long: `Trawler runs workflows of browser actions (navigate, write, click, read, find)
and collects the extracted values into a shared state tree.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig reads the configuration named by --config. The default path may
// be absent; an explicit one may not.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path, cmd.Flags().Changed("config"))
}

// newLogger writes to stderr so stdout stays reserved for results.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return logging.New(os.Stderr, level, cfg.Log.Format), nil
}
