// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/ssi-report/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `History lists past runs from the SQLite ledger in the data directory,
newest first: the report date, where the PDF came from, how the run ended,
and how many rows each dataset gained.

Use --export to write the full ledger to YAML or JSON next to the database.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")
	historyCmd.Flags().String("export", "", "export the ledger to a file: yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := pipelineConfig()
	path := historyPath(cfg)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No runs recorded.")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if format, _ := cmd.Flags().GetString("export"); format != "" {
		out := filepath.Join(filepath.Dir(path), "history."+strings.ToLower(format))
		switch strings.ToLower(format) {
		case "yaml":
			err = store.ExportYAML(ctx, out)
		case "json":
			err = store.ExportJSON(ctx, out)
		default:
			return fmt.Errorf("unknown export format %q (want yaml or json)", format)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Exported history to %s\n", out)
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(os.Stdout, runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []history.Run, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-10s  %-20s  %-9s  %-6s  %s\n", "Date", "Started", "Status", "Added", "Detail")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range runs {
		added := 0
		for _, wr := range r.Writes {
			added += wr.Added
		}
		detail := r.SourceURL
		if r.Error != "" {
			detail = r.Error
		}
		detail = truncate(detail, 60)
		fmt.Fprintf(w, "%-10s  %-20s  %-9s  %-6d  %s\n",
			r.ReportDate, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, added, detail)
	}

	fmt.Fprintf(w, "\n%d runs\n", len(runs))
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
