package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var limitCmd = &cobra.Command{
	Use:   "limit DOMAIN MINUTES",
	Short: "Set a site's daily limit",
	Long:  `Set the daily limit for a tracked site, in minutes (1-1440).`,
	Example: `  snstimer limit youtube.com 45
  snstimer --server http://127.0.0.1:7465 limit tiktok.com 15`,
	Args: cobra.ExactArgs(2),
	RunE: runLimit,
}

func init() {
	rootCmd.AddCommand(limitCmd)
}

func runLimit(cmd *cobra.Command, args []string) error {
	domain := args[0]
	minutes, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid minutes %q: %w", args[1], err)
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	body := map[string]int{"minutes": minutes}
	if _, _, err := client.do(context.Background(), http.MethodPut, "/limits/"+url.PathEscape(domain), body); err != nil {
		return fmt.Errorf("failed to set limit: %w", err)
	}

	_, _ = color.New(color.FgGreen).Fprintf(os.Stdout, "✅ Daily limit for %s set to %d minutes\n", domain, minutes)
	return nil
}
