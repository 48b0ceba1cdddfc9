// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs the Freeplane-to-document pipeline: prepare the
// Freeplane user directory, export the map to Markdown, repair the Markdown,
// then optionally convert it to ODT with pandoc and to PDF with LibreOffice.
// Each external tool runs to completion before the next step starts.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/freeplane-helper/internal/freeplane"
	"github.com/pdiddy/freeplane-helper/internal/repair"
	"github.com/pdiddy/freeplane-helper/internal/runner"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

// Tools resolves and runs external programs. *runner.Runner implements it.
type Tools interface {
	Lookup(name string) (string, error)
	Run(ctx context.Context, c runner.Command) error
}

// StageError ties a failure to the pipeline stage that produced it.
type StageError struct {
	Stage types.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage.Description(), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage types.Stage, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// Request is one conversion.
type Request struct {
	// Source is the mind-map document.
	Source         string
	Format         types.Format
	NumberSections bool
}

// Outcome lists what a conversion produced. Paths are empty for steps that
// did not run.
type Outcome struct {
	Markdown string
	ODT      string
	PDF      string
	Repair   repair.Result
}

// Outputs returns the produced files in pipeline order.
func (o Outcome) Outputs() []string {
	var out []string
	for _, p := range []string{o.Markdown, o.ODT, o.PDF} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Final returns the file matching the requested format.
func (o Outcome) Final() string {
	outs := o.Outputs()
	if len(outs) == 0 {
		return ""
	}
	return outs[len(outs)-1]
}

// Pipeline converts Freeplane documents according to a Config.
type Pipeline struct {
	cfg   types.Config
	tools Tools

	// prepare readies the Freeplane user directory; freeplane.Prepare by
	// default.
	prepare func(configDir string, w io.Writer) error

	out    io.Writer
	errOut io.Writer
	log    *slog.Logger
}

// NewPipeline returns a Pipeline that reports progress to out and forwards
// tool diagnostics to errOut.
func NewPipeline(cfg types.Config, tools Tools, out, errOut io.Writer, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		tools:   tools,
		prepare: freeplane.Prepare,
		out:     out,
		errOut:  errOut,
		log:     log,
	}
}

// ConfigDir returns the Freeplane user directory the pipeline prepares.
func (p *Pipeline) ConfigDir() (string, error) {
	return freeplane.ResolveConfigDir(p.cfg.Freeplane.ConfigDir, p.cfg.Freeplane.Version)
}

// WorkDir returns the directory where Markdown and converted outputs land.
func (p *Pipeline) WorkDir() (string, error) {
	if p.cfg.WorkDir != "" {
		return filepath.Abs(p.cfg.WorkDir)
	}
	return os.Getwd()
}

// MarkdownPath returns where the export step writes the Markdown for source.
func MarkdownPath(workDir, source string) string {
	return filepath.Join(workDir, baseName(source)+".md")
}

// Run converts req.Source to req.Format. Every required tool is resolved
// before any file is touched. Failures are returned as *StageError.
func (p *Pipeline) Run(ctx context.Context, req Request) (Outcome, error) {
	var out Outcome

	source, err := filepath.Abs(req.Source)
	if err != nil {
		return out, stageErr(types.StagePrepare, fmt.Errorf("resolving %s: %w", req.Source, err))
	}
	workDir, err := p.WorkDir()
	if err != nil {
		return out, stageErr(types.StagePrepare, fmt.Errorf("resolving work directory: %w", err))
	}

	bk, err := p.resolve(req.Format)
	if err != nil {
		return out, stageErr(types.StagePrepare, err)
	}

	configDir, err := p.ConfigDir()
	if err != nil {
		return out, stageErr(types.StagePrepare, err)
	}
	p.log.Debug("preparing freeplane", "config_dir", configDir)
	if err := p.prepare(configDir, p.out); err != nil {
		return out, stageErr(types.StagePrepare, err)
	}

	md, err := bk.exporter.Export(ctx, source, workDir)
	if err != nil {
		return out, stageErr(types.StageExport, err)
	}
	out.Markdown = md
	fmt.Fprintf(p.out, "exported: %s\n", md)

	res, err := repair.RepairFile(md, req.NumberSections)
	out.Repair = res
	if err != nil {
		return out, stageErr(types.StageRepair, err)
	}
	fmt.Fprintf(p.out, "repaired: %s (%d lines, %d references, %d numbered headings)\n",
		md, res.Lines, res.References, res.Headings)

	if !req.Format.Needs(types.FormatODT) {
		return out, nil
	}

	odt, err := bk.odt.Convert(ctx, md, workDir)
	if err != nil {
		return out, stageErr(types.StageConvert, err)
	}
	out.ODT = odt
	fmt.Fprintf(p.out, "converted: %s\n", odt)

	if !req.Format.Needs(types.FormatPDF) {
		return out, nil
	}

	pdf, err := bk.pdf.Convert(ctx, odt, workDir)
	if err != nil {
		return out, stageErr(types.StagePDF, err)
	}
	out.PDF = pdf
	fmt.Fprintf(p.out, "generated: %s\n", pdf)

	return out, nil
}

// backends holds the resolved tool for each step a format needs.
type backends struct {
	exporter *FreeplaneExporter
	odt      *PandocConverter
	pdf      *OfficeConverter
}

func (p *Pipeline) resolve(format types.Format) (backends, error) {
	var (
		bk   backends
		errs []error
	)

	exporter, err := NewFreeplaneExporter(p.tools, p.cfg.Freeplane.Binary, p.errOut)
	if err != nil {
		errs = append(errs, err)
	}
	bk.exporter = exporter

	if format.Needs(types.FormatODT) {
		c, err := NewPandocConverter(p.tools, p.cfg.Pandoc.Binary, p.errOut)
		if err != nil {
			errs = append(errs, err)
		}
		bk.odt = c
	}
	if format.Needs(types.FormatPDF) {
		c, err := NewOfficeConverter(p.tools, p.cfg.Office.Binary, p.errOut)
		if err != nil {
			errs = append(errs, err)
		}
		bk.pdf = c
	}
	return bk, errors.Join(errs...)
}

// baseName strips directory and extension: /maps/plan.mm -> plan.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// removeStale deletes an output left by an earlier run so that requireFile
// only accepts what the tool writes now.
func removeStale(tool, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing previous %s output %s: %w", tool, path, err)
	}
	return nil
}

// requireFile checks that a tool produced its output file.
func requireFile(tool, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s did not produce %s: %w", tool, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s output %s is a directory", tool, path)
	}
	return nil
}
