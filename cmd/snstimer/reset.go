package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset today's statistics",
	Long:  `Clear today's accumulated time for every site. Limits are kept.`,
	Args:  cobra.NoArgs,
	RunE:  runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		fmt.Fprint(os.Stdout, "Reset today's statistics? [y/N] ")
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Fprintln(os.Stdout, "Aborted")
			return nil
		}
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}

	if _, _, err := client.do(context.Background(), http.MethodDelete, "/stats", nil); err != nil {
		return fmt.Errorf("failed to reset statistics: %w", err)
	}

	_, _ = color.New(color.FgGreen).Fprintln(os.Stdout, "✅ Today's statistics reset")
	return nil
}
