// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/freeplane-helper/internal/convert"
	"github.com/pdiddy/freeplane-helper/internal/repair"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

var repairCmd = &cobra.Command{
	Use:   "repair <file.md>",
	Short: "Repair a Markdown file exported by Freeplane in place",
	Long: `Repair applies the Markdown fixes convert runs after export: it marks the
indented first line as the document title, separates "(see: ...)" reference
lines from the following heading and, with --number-sections, prefixes
headings with section numbers. Run it once per exported file: the reference
fix adds a blank line every time it runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().BoolP("number-sections", "n", false, "prefix headings with section numbers")

	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	number, _ := cmd.Flags().GetBool("number-sections")

	res, err := repair.RepairFile(args[0], number)
	if err != nil {
		return &convert.StageError{Stage: types.StageRepair, Err: err}
	}
	if res.Lines == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s (empty)\n", res.Path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "repaired: %s (%d lines, title fixed: %t, %d references, %d numbered headings)\n",
		res.Path, res.Lines, res.Title, res.References, res.Headings)
	return nil
}
