// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gicscan/internal/report"
	"github.com/pdiddy/gicscan/internal/store"
	"github.com/pdiddy/gicscan/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded scans or print the values of one",
	Long: `History reads the database written by "gicscan scan --record".
Without arguments it lists the most recent runs. With a run ID it prints the
values of that run in the same format as a scan.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("db", "", "history database (default: gicscan.db next to the input file)")
	historyCmd.Flags().StringP("input", "i", "", "input file used to locate the default database")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	input, err := inputPath(cmd)
	if err != nil {
		return err
	}

	s, err := store.Open(types.StoreConfig{Path: storePath(cmd, input)})
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer s.Close()

	w := cmd.OutOrStdout()

	if len(args) == 1 {
		runID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q: %w", args[0], err)
		}
		run, err := s.Run(cmd.Context(), runID)
		if err != nil {
			return err
		}
		values, err := s.Values(cmd.Context(), runID)
		if err != nil {
			return err
		}
		return report.Text(w, run.Marker, values)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := s.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatRuns(w, runs, jsonOutput)
}

func formatRuns(w io.Writer, runs []store.RunSummary, jsonOutput bool) error {
	if jsonOutput {
		if runs == nil {
			runs = []store.RunSummary{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-6s  %-20s  %-6s  %-7s  %-9s  %s\n",
		"Run", "Scanned", "Values", "Matched", "Malformed", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range runs {
		fmt.Fprintf(w, "%-6d  %-20s  %-6d  %-7d  %-9d  %s\n",
			r.ID, r.ScannedAt.Format("2006-01-02 15:04:05"),
			r.ValueCount, r.LinesMatched, r.LinesMalformed, r.Source)
	}
	return nil
}
