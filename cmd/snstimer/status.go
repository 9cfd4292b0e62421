package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/snstimer/internal/dashboard"
	"github.com/spf13/cobra"
)

const barWidth = 20

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's usage",
	Long:  `Show today's usage per site against its daily limit, as reported by the running daemon.`,
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	var summary dashboard.Summary
	if err := client.getJSON(context.Background(), "/stats", &summary); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan, color.Bold)
	_, _ = cyan.Fprintf(os.Stdout, "Today (%s)\n", summary.Date)
	if summary.Tracking != nil {
		fmt.Fprintf(os.Stdout, "Tracking %s since %s\n",
			summary.Tracking.Domain, summary.Tracking.Since.Format("15:04:05"))
	}
	fmt.Fprintln(os.Stdout)

	for _, row := range summary.Sites {
		printSiteRow(row)
	}
	return nil
}

func printSiteRow(row dashboard.SiteSummary) {
	c := color.New(color.FgGreen)
	switch {
	case row.Percentage >= 100:
		c = color.New(color.FgRed, color.Bold)
	case row.Warning:
		c = color.New(color.FgYellow, color.Bold)
	}

	filled := int(row.Percentage / 100 * barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	label := row.Name
	if row.Icon != "" {
		label = row.Icon + " " + row.Name
	}

	_, _ = c.Fprintf(os.Stdout, "%-18s %4d/%-4d min  %s %3.0f%%\n",
		label, row.MinutesUsed, row.LimitMinutes, bar, row.Percentage)
}
