package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/freeplane-helper/pkg/types"
)

var listFormatsCmd = &cobra.Command{
	Use:     "list-formats",
	Aliases: []string{"list_formats"},
	Short:   "List supported output formats",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range types.SupportedFormats() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.Format, f.Description)
		}
	},
}

func init() {
	rootCmd.AddCommand(listFormatsCmd)
}
