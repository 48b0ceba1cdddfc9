// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"io"
	"path/filepath"

	"github.com/pdiddy/freeplane-helper/internal/runner"
)

const toolPandoc = "pandoc"

// PandocConverter turns repaired Markdown into an OpenDocument text file.
type PandocConverter struct {
	tools  Tools
	path   string
	stderr io.Writer
}

// NewPandocConverter resolves the pandoc binary.
func NewPandocConverter(tools Tools, binary string, stderr io.Writer) (*PandocConverter, error) {
	path, err := tools.Lookup(binary)
	if err != nil {
		return nil, err
	}
	return &PandocConverter{tools: tools, path: path, stderr: stderr}, nil
}

// PandocArgs returns the pandoc arguments converting md into odt.
func PandocArgs(md, odt string) []string {
	return []string{"-f", "markdown", "-t", "odt", "-o", odt, md}
}

// Convert writes <workDir>/<basename>.odt from md and returns its path.
func (c *PandocConverter) Convert(ctx context.Context, md, workDir string) (string, error) {
	odt := filepath.Join(workDir, baseName(md)+".odt")
	if err := removeStale(toolPandoc, odt); err != nil {
		return "", err
	}
	err := c.tools.Run(ctx, runner.Command{
		Tool:   toolPandoc,
		Path:   c.path,
		Args:   PandocArgs(md, odt),
		Dir:    workDir,
		Stdout: c.stderr,
		Stderr: c.stderr,
	})
	if err != nil {
		return "", err
	}
	if err := requireFile(toolPandoc, odt); err != nil {
		return "", err
	}
	return odt, nil
}
