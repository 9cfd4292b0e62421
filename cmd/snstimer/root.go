package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
	serverURL  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "snstimer",
	Short: "snstimer - daily time limits for social media sites",
	Long: `snstimer accounts foreground browser time on social media sites against
per-site daily limits. The browser extension reports tab and window events to
the daemon, which persists today's usage and raises a notification when a
site's limit is reached.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to server command when no subcommand is provided
		return runServer(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/snstimer/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Daemon API base URL (default derived from configuration)")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
