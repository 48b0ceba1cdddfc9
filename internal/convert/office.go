// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"io"
	"path/filepath"

	"github.com/pdiddy/freeplane-helper/internal/runner"
)

const toolOffice = "libreoffice"

// OfficeConverter renders an ODT file to PDF with LibreOffice in headless
// convert mode.
type OfficeConverter struct {
	tools  Tools
	path   string
	stderr io.Writer
}

// NewOfficeConverter resolves the office binary. binary may be a glob such as
// "libreoffice*" to pick up versioned installs.
func NewOfficeConverter(tools Tools, binary string, stderr io.Writer) (*OfficeConverter, error) {
	path, err := tools.Lookup(binary)
	if err != nil {
		return nil, err
	}
	return &OfficeConverter{tools: tools, path: path, stderr: stderr}, nil
}

// OfficeArgs returns the LibreOffice arguments converting odt to PDF in outDir.
func OfficeArgs(odt, outDir string) []string {
	return []string{"--headless", "--convert-to", "pdf", "--outdir", outDir, odt}
}

// Convert writes <workDir>/<basename>.pdf from odt and returns its path.
// LibreOffice can exit 0 without writing anything, so the output is checked.
func (c *OfficeConverter) Convert(ctx context.Context, odt, workDir string) (string, error) {
	pdf := filepath.Join(workDir, baseName(odt)+".pdf")
	if err := removeStale(toolOffice, pdf); err != nil {
		return "", err
	}

	err := c.tools.Run(ctx, runner.Command{
		Tool:   toolOffice,
		Path:   c.path,
		Args:   OfficeArgs(odt, workDir),
		Dir:    workDir,
		Stdout: c.stderr,
		Stderr: c.stderr,
	})
	if err != nil {
		return "", err
	}
	if err := requireFile(toolOffice, pdf); err != nil {
		return "", err
	}
	return pdf, nil
}
