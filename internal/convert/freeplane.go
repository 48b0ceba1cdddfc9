// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"io"

	"github.com/pdiddy/freeplane-helper/internal/freeplane"
	"github.com/pdiddy/freeplane-helper/internal/runner"
)

const toolFreeplane = "freeplane"

// FreeplaneExporter exports a mind map to Markdown by running Freeplane
// headless with the installed export script. The script writes
// <basename>.md into Freeplane's working directory.
type FreeplaneExporter struct {
	tools  Tools
	path   string
	stderr io.Writer
}

// NewFreeplaneExporter resolves the Freeplane binary.
func NewFreeplaneExporter(tools Tools, binary string, stderr io.Writer) (*FreeplaneExporter, error) {
	path, err := tools.Lookup(binary)
	if err != nil {
		return nil, err
	}
	return &FreeplaneExporter{tools: tools, path: path, stderr: stderr}, nil
}

// ExportArgs returns the Freeplane arguments for a headless export of source:
// -S stops after the script, -N runs without a GUI, -X names the action.
func ExportArgs(source string) []string {
	return []string{"-S", "-N", "-X" + freeplane.ScriptAction, source}
}

// Export runs Freeplane on source with workDir as its working directory and
// returns the path of the Markdown it wrote. A Markdown file left by an
// earlier run is removed first.
func (e *FreeplaneExporter) Export(ctx context.Context, source, workDir string) (string, error) {
	md := MarkdownPath(workDir, source)
	if err := removeStale(toolFreeplane, md); err != nil {
		return "", err
	}

	err := e.tools.Run(ctx, runner.Command{
		Tool:   toolFreeplane,
		Path:   e.path,
		Args:   ExportArgs(source),
		Dir:    workDir,
		Stdout: e.stderr,
		Stderr: e.stderr,
	})
	if err != nil {
		return "", err
	}

	if err := requireFile(toolFreeplane, md); err != nil {
		return "", err
	}
	return md, nil
}
