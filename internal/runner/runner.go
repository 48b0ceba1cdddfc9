// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package runner finds external tools on PATH and runs them one at a time,
// waiting for each to exit.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// ErrToolNotFound is returned by Lookup when no executable matches.
var ErrToolNotFound = errors.New("required tool not found")

// ExitError reports a tool that ran but exited with a non-zero status.
type ExitError struct {
	Tool string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Tool, e.Code)
}

// Command describes one external process invocation.
type Command struct {
	// Tool is the name used in messages (e.g. "freeplane").
	Tool string
	// Path is the resolved executable.
	Path string
	Args []string
	// Dir is the working directory; empty means the current one.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line for logs.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// executor abstracts the operating system for testing.
type executor interface {
	LookPath(file string) (string, error)
	ReadDir(dir string) ([]string, error)
	IsExecutable(path string) bool
	Run(ctx context.Context, c Command) error
	Getenv(key string) string
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) ReadDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func (o *osExecutor) IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

func (o *osExecutor) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		return &ExitError{Tool: c.Tool, Code: exitErr.ExitCode()}
	}
	return err
}

func (o *osExecutor) Getenv(key string) string {
	return os.Getenv(key)
}

// Runner resolves and runs external tools.
type Runner struct {
	exec    executor
	goos    string
	timeout time.Duration
	log     *slog.Logger
}

// New returns a Runner backed by the operating system. A zero timeout waits
// for every process indefinitely.
func New(timeout time.Duration, log *slog.Logger) *Runner {
	return newRunner(&osExecutor{}, runtime.GOOS, timeout, log)
}

func newRunner(exec executor, goos string, timeout time.Duration, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{exec: exec, goos: goos, timeout: timeout, log: log}
}

// Lookup resolves name to an executable path. Plain names go through the
// standard PATH lookup. Names with glob metacharacters, such as
// "libreoffice*", are matched against each PATH directory in order and the
// first executable match (in lexical order within a directory) wins; on
// Windows that match ignores case and only accepts PATHEXT extensions.
func (r *Runner) Lookup(name string) (string, error) {
	if !hasMeta(name) {
		p, err := r.exec.LookPath(name)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrToolNotFound, name, err)
		}
		return p, nil
	}

	dirs := []string{filepath.Dir(name)}
	pattern := filepath.Base(name)
	if !strings.ContainsAny(name, `/\`) {
		dirs = r.searchPath()
	}

	for _, dir := range dirs {
		if p, ok := r.globDir(dir, pattern); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no executable matching %s on PATH", ErrToolNotFound, name)
}

func (r *Runner) searchPath() []string {
	var dirs []string
	seen := make(map[string]bool)
	if r.goos == "windows" {
		dirs = append(dirs, ".")
		seen["."] = true
	}
	for _, dir := range filepath.SplitList(r.exec.Getenv("PATH")) {
		if dir == "" {
			dir = "."
		}
		key := dir
		if r.goos == "windows" {
			key = strings.ToLower(dir)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

func (r *Runner) globDir(dir, pattern string) (string, bool) {
	names, err := r.exec.ReadDir(dir)
	if err != nil {
		return "", false
	}
	sort.Strings(names)
	for _, n := range names {
		if !r.matches(pattern, n) {
			continue
		}
		p := filepath.Join(dir, n)
		if r.exec.IsExecutable(p) {
			return p, true
		}
	}
	return "", false
}

func (r *Runner) matches(pattern, name string) bool {
	if r.goos != "windows" {
		ok, _ := filepath.Match(pattern, name)
		return ok
	}
	// Windows only runs files whose extension is listed in PATHEXT.
	pattern, name = strings.ToLower(pattern), strings.ToLower(name)
	ext := filepath.Ext(name)
	if ext == "" || !r.isPathExt(ext) {
		return false
	}
	if ok, _ := filepath.Match(pattern, name); ok {
		return true
	}
	ok, _ := filepath.Match(pattern, strings.TrimSuffix(name, ext))
	return ok
}

func (r *Runner) isPathExt(ext string) bool {
	for _, pe := range strings.Split(r.exec.Getenv("PATHEXT"), ";") {
		if pe != "" && strings.EqualFold(pe, ext) {
			return true
		}
	}
	return false
}

// Run starts c and waits for it to exit. A non-zero exit status is returned
// as *ExitError. When the Runner has a timeout, the process is killed once it
// elapses.
func (r *Runner) Run(ctx context.Context, c Command) error {
	if c.Stdout == nil {
		c.Stdout = io.Discard
	}
	if c.Stderr == nil {
		c.Stderr = io.Discard
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.log.Debug("running external tool", "tool", c.Tool, "cmd", c.String(), "dir", c.Dir)
	start := time.Now()
	err := r.exec.Run(ctx, c)
	r.log.Debug("external tool finished", "tool", c.Tool, "elapsed", time.Since(start), "err", err)

	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s: %w", c.Tool, r.timeout, ctx.Err())
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	return fmt.Errorf("running %s: %w", c.Tool, err)
}

func hasMeta(name string) bool {
	return strings.ContainsAny(name, `*?[`)
}
