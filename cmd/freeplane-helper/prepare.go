// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/freeplane-helper/internal/convert"
	"github.com/pdiddy/freeplane-helper/internal/freeplane"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Install the export script and allow unattended script execution",
	Long: `Prepare installs ExportToMarkdown.groovy into the Freeplane user scripts
directory and sets the five script security options in auto.properties to
true, keeping the previous file as auto.properties.bak. convert does this on
every run; prepare is useful to set up a machine once. Freeplane must have
been started at least once so that its user directory exists.`,
	Args: cobra.NoArgs,
	RunE: runPrepare,
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}

func runPrepare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	dir, err := freeplane.ResolveConfigDir(cfg.Freeplane.ConfigDir, cfg.Freeplane.Version)
	if err != nil {
		return &convert.StageError{Stage: types.StagePrepare, Err: err}
	}
	if _, err := os.Stat(dir); err != nil {
		return &convert.StageError{
			Stage: types.StagePrepare,
			Err:   fmt.Errorf("freeplane user directory %s not found (start Freeplane once first): %w", dir, err),
		}
	}

	if err := freeplane.Prepare(dir, cmd.OutOrStdout()); err != nil {
		return &convert.StageError{Stage: types.StagePrepare, Err: err}
	}
	return nil
}
