// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/freeplane-helper/internal/repair"
	"github.com/pdiddy/freeplane-helper/internal/runner"
	"github.com/pdiddy/freeplane-helper/pkg/types"
)

const exportedMarkdown = "  Plan\n\n# Goals\n    (see: Risks)\n# Risks\n## Budget\n"

// fakeTools resolves binaries from a map and simulates each tool by writing
// the file it would produce.
type fakeTools struct {
	paths map[string]string
	runs  []runner.Command
	// fail maps a tool name to the error its run returns.
	fail map[string]error
	// skipOutput lists tools that exit cleanly without writing output.
	skipOutput map[string]bool
	markdown   string
}

func newFakeTools() *fakeTools {
	return &fakeTools{
		paths: map[string]string{
			"freeplane":    "/usr/bin/freeplane",
			"pandoc":       "/usr/bin/pandoc",
			"libreoffice*": "/usr/bin/libreoffice7.6",
		},
		fail:       map[string]error{},
		skipOutput: map[string]bool{},
		markdown:   exportedMarkdown,
	}
}

func (f *fakeTools) Lookup(name string) (string, error) {
	if p, ok := f.paths[name]; ok {
		return p, nil
	}
	return "", errors.Join(runner.ErrToolNotFound, errors.New(name))
}

func (f *fakeTools) Run(_ context.Context, c runner.Command) error {
	f.runs = append(f.runs, c)
	if err, ok := f.fail[c.Tool]; ok {
		return err
	}
	if f.skipOutput[c.Tool] {
		return nil
	}
	switch c.Tool {
	case toolFreeplane:
		src := c.Args[len(c.Args)-1]
		return os.WriteFile(MarkdownPath(c.Dir, src), []byte(f.markdown), 0o644)
	case toolPandoc:
		return os.WriteFile(c.Args[5], []byte("odt"), 0o644)
	case toolOffice:
		odt := c.Args[len(c.Args)-1]
		return os.WriteFile(filepath.Join(c.Args[4], baseName(odt)+".pdf"), []byte("pdf"), 0o644)
	}
	return nil
}

func (f *fakeTools) tools() []string {
	var names []string
	for _, r := range f.runs {
		names = append(names, r.Tool)
	}
	return names
}

type fixture struct {
	pipeline  *Pipeline
	tools     *fakeTools
	workDir   string
	source    string
	prepared  []string
	prepError error
	log       *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	workDir := filepath.Join(root, "out")
	require.NoError(t, os.Mkdir(workDir, 0o755))
	source := filepath.Join(root, "maps", "plan.mm")
	require.NoError(t, os.MkdirAll(filepath.Dir(source), 0o755))
	require.NoError(t, os.WriteFile(source, []byte("<map/>"), 0o644))

	cfg := types.DefaultConfig()
	cfg.WorkDir = workDir
	cfg.Freeplane.ConfigDir = filepath.Join(root, "fpconfig")

	fx := &fixture{tools: newFakeTools(), workDir: workDir, source: source, log: &bytes.Buffer{}}
	fx.pipeline = NewPipeline(cfg, fx.tools, fx.log, io.Discard, nil)
	fx.pipeline.prepare = func(dir string, w io.Writer) error {
		fx.prepared = append(fx.prepared, dir)
		return fx.prepError
	}
	return fx
}

func (fx *fixture) run(format types.Format, number bool) (Outcome, error) {
	return fx.pipeline.Run(context.Background(), Request{Source: fx.source, Format: format, NumberSections: number})
}

func TestRun_Markdown(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.run(types.FormatMarkdown, false)
	require.NoError(t, err)

	md := filepath.Join(fx.workDir, "plan.md")
	assert.Equal(t, md, out.Markdown)
	assert.Empty(t, out.ODT)
	assert.Empty(t, out.PDF)
	assert.Equal(t, []string{md}, out.Outputs())
	assert.Equal(t, md, out.Final())
	assert.Equal(t, []string{"freeplane"}, fx.tools.tools())
	assert.Len(t, fx.prepared, 1)

	data, err := os.ReadFile(md)
	require.NoError(t, err)
	assert.Equal(t, "%  Plan\n\n# Goals\n    (see: Risks)\n\n# Risks\n## Budget\n", string(data))
	assert.Contains(t, fx.log.String(), "exported:")
	assert.Contains(t, fx.log.String(), "repaired:")
}

func TestRun_ExportInvocation(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.run(types.FormatMarkdown, false)
	require.NoError(t, err)

	require.Len(t, fx.tools.runs, 1)
	c := fx.tools.runs[0]
	assert.Equal(t, "/usr/bin/freeplane", c.Path)
	assert.Equal(t, []string{"-S", "-N", "-XExportToMarkdown_on_selected_node", fx.source}, c.Args)
	assert.Equal(t, fx.workDir, c.Dir)
}

func TestRun_NumberSections(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.run(types.FormatMarkdown, true)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Repair.Headings)

	data, err := os.ReadFile(out.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# 1  Goals\n")
	assert.Contains(t, string(data), "# 2  Risks\n")
	assert.Contains(t, string(data), "## 2.1  Budget\n")
}

func TestRun_ODT(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.run(types.FormatODT, false)
	require.NoError(t, err)

	odt := filepath.Join(fx.workDir, "plan.odt")
	assert.Equal(t, odt, out.ODT)
	assert.Empty(t, out.PDF)
	assert.Equal(t, []string{"freeplane", "pandoc"}, fx.tools.tools())
	assert.Equal(t, PandocArgs(out.Markdown, odt), fx.tools.runs[1].Args)
	assert.FileExists(t, odt)
}

func TestRun_PDF(t *testing.T) {
	fx := newFixture(t)

	out, err := fx.run(types.FormatPDF, true)
	require.NoError(t, err)

	pdf := filepath.Join(fx.workDir, "plan.pdf")
	assert.Equal(t, pdf, out.PDF)
	assert.Equal(t, pdf, out.Final())
	assert.Len(t, out.Outputs(), 3)
	assert.Equal(t, []string{"freeplane", "pandoc", "libreoffice"}, fx.tools.tools())

	office := fx.tools.runs[2]
	assert.Equal(t, "/usr/bin/libreoffice7.6", office.Path)
	assert.Equal(t, OfficeArgs(out.ODT, fx.workDir), office.Args)
	assert.Contains(t, fx.log.String(), "generated:")
}

func TestRun_MissingToolsBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name    string
		format  types.Format
		missing []string
	}{
		{"freeplane missing", types.FormatMarkdown, []string{"freeplane"}},
		{"pandoc missing for odt", types.FormatODT, []string{"pandoc"}},
		{"office missing for pdf", types.FormatPDF, []string{"libreoffice*"}},
		{"several missing", types.FormatPDF, []string{"pandoc", "libreoffice*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			for _, m := range tt.missing {
				delete(fx.tools.paths, m)
			}

			_, err := fx.run(tt.format, false)
			require.Error(t, err)
			assert.ErrorIs(t, err, runner.ErrToolNotFound)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, types.StagePrepare, se.Stage)
			for _, m := range tt.missing {
				assert.Contains(t, err.Error(), m)
			}

			assert.Empty(t, fx.prepared, "environment must not be touched")
			assert.Empty(t, fx.tools.runs, "no tool may run")
		})
	}
}

func TestRun_MarkdownDoesNotNeedConverters(t *testing.T) {
	fx := newFixture(t)
	delete(fx.tools.paths, "pandoc")
	delete(fx.tools.paths, "libreoffice*")

	_, err := fx.run(types.FormatMarkdown, false)
	require.NoError(t, err)
}

func TestRun_StageFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(fx *fixture)
		format    types.Format
		number    bool
		wantStage types.Stage
		wantMsg   string
	}{
		{
			name:      "prepare fails",
			setup:     func(fx *fixture) { fx.prepError = errors.New("scripts dir missing") },
			format:    types.FormatODT,
			wantStage: types.StagePrepare,
			wantMsg:   "environment preparation failed: scripts dir missing",
		},
		{
			name: "freeplane exits non-zero",
			setup: func(fx *fixture) {
				fx.tools.fail[toolFreeplane] = &runner.ExitError{Tool: toolFreeplane, Code: 3}
			},
			format:    types.FormatODT,
			wantStage: types.StageExport,
			wantMsg:   "freeplane exited with status 3",
		},
		{
			name:      "freeplane writes nothing",
			setup:     func(fx *fixture) { fx.tools.skipOutput[toolFreeplane] = true },
			format:    types.FormatMarkdown,
			wantStage: types.StageExport,
			wantMsg:   "did not produce",
		},
		{
			name:      "heading underflow",
			setup:     func(fx *fixture) { fx.tools.markdown = "### a\n## b\n# c\n" },
			format:    types.FormatODT,
			number:    true,
			wantStage: types.StageRepair,
			wantMsg:   "no enclosing section",
		},
		{
			name: "pandoc exits non-zero",
			setup: func(fx *fixture) {
				fx.tools.fail[toolPandoc] = &runner.ExitError{Tool: toolPandoc, Code: 64}
			},
			format:    types.FormatPDF,
			wantStage: types.StageConvert,
			wantMsg:   "pandoc exited with status 64",
		},
		{
			name:      "office writes nothing",
			setup:     func(fx *fixture) { fx.tools.skipOutput[toolOffice] = true },
			format:    types.FormatPDF,
			wantStage: types.StagePDF,
			wantMsg:   "libreoffice did not produce",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			tt.setup(fx)

			_, err := fx.run(tt.format, tt.number)
			require.Error(t, err)

			var se *StageError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRun_StopsAfterFailure(t *testing.T) {
	fx := newFixture(t)
	fx.tools.fail[toolPandoc] = errors.New("boom")

	out, err := fx.run(types.FormatPDF, false)
	require.Error(t, err)
	assert.NotEmpty(t, out.Markdown)
	assert.Empty(t, out.ODT)
	assert.Equal(t, []string{"freeplane", "pandoc"}, fx.tools.tools())
}

func TestRun_EmptyExport(t *testing.T) {
	fx := newFixture(t)
	fx.tools.markdown = ""

	out, err := fx.run(types.FormatMarkdown, true)
	require.NoError(t, err)
	assert.Equal(t, repair.Result{Path: out.Markdown}, out.Repair)
}

func TestRun_StaleOutput(t *testing.T) {
	tests := []struct {
		name      string
		tool      string
		wantStage types.Stage
		stale     string
	}{
		{"markdown from earlier export", toolFreeplane, types.StageExport, "plan.md"},
		{"odt from earlier conversion", toolPandoc, types.StageConvert, "plan.odt"},
		{"pdf from earlier conversion", toolOffice, types.StagePDF, "plan.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			_, err := fx.run(types.FormatPDF, true)
			require.NoError(t, err)

			fx.tools.skipOutput[tt.tool] = true
			_, err = fx.run(types.FormatPDF, true)
			require.Error(t, err)

			var se *StageError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStage, se.Stage)
			assert.Contains(t, err.Error(), "did not produce")
			assert.NoFileExists(t, filepath.Join(fx.workDir, tt.stale))
		})
	}
}

func TestRun_RerunDoesNotRepairTwice(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.run(types.FormatMarkdown, true)
	require.NoError(t, err)

	out, err := fx.run(types.FormatMarkdown, true)
	require.NoError(t, err)

	data, err := os.ReadFile(out.Markdown)
	require.NoError(t, err)
	assert.Equal(t, "%  Plan\n\n# 1  Goals\n    (see: Risks)\n\n# 2  Risks\n## 2.1  Budget\n", string(data))
}

func TestPipelineDirs(t *testing.T) {
	t.Run("config dir override", func(t *testing.T) {
		cfg := types.DefaultConfig()
		cfg.Freeplane.ConfigDir = "/etc/fp"
		p := NewPipeline(cfg, newFakeTools(), io.Discard, io.Discard, nil)
		dir, err := p.ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, "/etc/fp", dir)
	})

	t.Run("config dir from version", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		cfg := types.DefaultConfig()
		p := NewPipeline(cfg, newFakeTools(), io.Discard, io.Discard, nil)
		dir, err := p.ConfigDir()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".config", "freeplane", "1.6.x"), dir)
	})

	t.Run("work dir defaults to cwd", func(t *testing.T) {
		p := NewPipeline(types.DefaultConfig(), newFakeTools(), io.Discard, io.Discard, nil)
		dir, err := p.WorkDir()
		require.NoError(t, err)
		wd, _ := os.Getwd()
		assert.Equal(t, wd, dir)
	})

	t.Run("relative work dir made absolute", func(t *testing.T) {
		cfg := types.DefaultConfig()
		cfg.WorkDir = "build"
		p := NewPipeline(cfg, newFakeTools(), io.Discard, io.Discard, nil)
		dir, err := p.WorkDir()
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(dir))
		assert.True(t, strings.HasSuffix(dir, "build"))
	})
}

func TestMarkdownPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/work", "plan.md"), MarkdownPath("/work", "/maps/plan.mm"))
	assert.Equal(t, filepath.Join("/work", "my.map.md"), MarkdownPath("/work", "my.map.mm"))
}

func TestStageErrorUnwrap(t *testing.T) {
	inner := &runner.ExitError{Tool: "pandoc", Code: 1}
	err := error(&StageError{Stage: types.StageConvert, Err: inner})

	var exitErr *runner.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, "ODT conversion failed: pandoc exited with status 1", err.Error())
}
