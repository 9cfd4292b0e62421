package main

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/goodtune/snstimer/internal/dashboard"
	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export today's statistics and limits as JSON",
	Long: `Download today's statistics and limits from the daemon. Without -o the
file is named as the server suggests; "-o -" writes to stdout.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}

	resp, data, err := client.do(context.Background(), http.MethodGet, "/export", nil)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	if exportOutput == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}

	path := exportOutput
	if path == "" {
		path = attachmentName(resp.Header.Get("Content-Disposition"))
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(os.Stdout, "✅ Exported to %s\n", path)
	return nil
}

// attachmentName extracts the filename from a Content-Disposition header.
func attachmentName(header string) string {
	if _, params, err := mime.ParseMediaType(header); err == nil && params["filename"] != "" {
		return filepath.Base(params["filename"])
	}
	return dashboard.ExportFilename(time.Now())
}
