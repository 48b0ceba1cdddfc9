// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/freeplane-helper/internal/history"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent conversions",
	Long: `History lists conversions recorded by convert, newest first, from the
SQLite database at history.db (default: <user config dir>/freeplane-helper/history.db).
Use --json or --yaml to export the records.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", history.DefaultLimit, "maximum number of conversions to show")
	historyCmd.Flags().Bool("json", false, "output records as JSON")
	historyCmd.Flags().Bool("yaml", false, "output records as YAML")
	historyCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")

	store, err := openHistory(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	w := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return store.ExportJSON(cmd.Context(), w, limit)
	case yamlOutput:
		return store.ExportYAML(cmd.Context(), w, limit)
	}

	records, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	formatHistory(w, records)
	return nil
}

func formatHistory(w io.Writer, records []types.ConversionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No conversions recorded.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-20s  %-4s  %-16s  %-8s  %s\n",
		"ID", "Started", "Fmt", "Status", "Elapsed", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, r := range records {
		status := string(r.Status)
		if r.FailedStage != "" {
			status += "@" + string(r.FailedStage)
		}
		fmt.Fprintf(w, "%-5d  %-20s  %-4s  %-16s  %-8s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Format,
			status,
			r.Duration().Round(100*time.Millisecond),
			r.Source,
		)
	}
}
