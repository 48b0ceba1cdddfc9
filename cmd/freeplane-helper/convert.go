// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/freeplane-helper/internal/convert"
	"github.com/pdiddy/freeplane-helper/internal/history"
	"github.com/pdiddy/freeplane-helper/internal/runner"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <fp_doc>",
	Short: "Convert a Freeplane document to md, odt or pdf",
	Long: `Convert prepares the Freeplane user directory for headless scripting,
exports the mind map to <name>.md in the work directory, and repairs it.
For odt the Markdown is converted with pandoc; for pdf the ODT is then
rendered by LibreOffice. All required tools are checked before anything runs.

Exit codes: 2 tool not found, 3 environment preparation, 4 export,
5 repair, 6 ODT conversion, 7 PDF generation.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().BoolP("number-sections", "n", false, "prefix headings with section numbers")
	convertCmd.Flags().StringP("format", "f", string(types.DefaultFormat), "output format: md, odt, or pdf")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	formatFlag, _ := cmd.Flags().GetString("format")
	format, err := types.ParseFormat(formatFlag)
	if err != nil {
		return err
	}
	number, _ := cmd.Flags().GetBool("number-sections")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	source, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	tools := runner.New(cfg.Timeout, logger)
	pipeline := convert.NewPipeline(cfg, tools, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)

	req := convert.Request{
		Source:         source,
		Format:         format,
		NumberSections: number,
	}
	started := time.Now()
	out, runErr := pipeline.Run(cmd.Context(), req)

	rec := conversionRecord(req, out, runErr, started, time.Now())
	recordHistory(cmd.Context(), cfg.History, rec)

	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "done: %s\n", out.Final())
	return nil
}

// conversionRecord describes one pipeline run for the history. A failed run
// keeps the stage that stopped it and the outputs produced before that.
func conversionRecord(req convert.Request, out convert.Outcome, runErr error, started, finished time.Time) types.ConversionRecord {
	rec := types.ConversionRecord{
		Source:         req.Source,
		Format:         req.Format,
		NumberSections: req.NumberSections,
		Outputs:        out.Outputs(),
		Status:         types.ConversionDone,
		StartedAt:      started,
		FinishedAt:     finished,
	}
	if runErr != nil {
		rec.Status = types.ConversionFailed
		rec.Error = runErr.Error()
		var se *convert.StageError
		if errors.As(runErr, &se) {
			rec.FailedStage = se.Stage
		}
	}
	return rec
}

// recordHistory stores rec when history is enabled. Failures are logged and
// never fail the conversion.
func recordHistory(ctx context.Context, cfg types.HistoryConfig, rec types.ConversionRecord) {
	if !cfg.Enabled {
		return
	}
	store, err := openHistory(cfg)
	if err != nil {
		logger.Warn("conversion history unavailable", "err", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("recording conversion history", "err", err)
	}
}

func openHistory(cfg types.HistoryConfig) (*history.Store, error) {
	path := cfg.DBPath
	if path == "" {
		p, err := history.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return history.NewStore(path)
}
