// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package repair

import (
	"fmt"
	"os"
	"strings"
)

// Result summarizes a RepairFile run.
type Result struct {
	Path  string
	Lines int
	Stats
}

// SplitLines splits content into lines that keep their "\n" terminator.
// CRLF endings are normalized to LF first. The last line has no terminator
// when content does not end in a newline.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// JoinLines concatenates lines produced by SplitLines and Repair.
func JoinLines(lines []string) string {
	return strings.Join(lines, "")
}

// RepairFile reads the Markdown file at path, repairs it, and writes it back
// in place. An empty file is left untouched. When numbering fails the file is
// not rewritten.
func RepairFile(path string, numberSections bool) (Result, error) {
	res := Result{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("reading %s: %w", path, err)
	}

	lines := SplitLines(string(data))
	res.Lines = len(lines)
	if len(lines) == 0 {
		return res, nil
	}

	st, err := repair(lines, numberSections)
	res.Stats = st
	if err != nil {
		return res, fmt.Errorf("repairing %s: %w", path, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(JoinLines(lines)), mode); err != nil {
		return res, fmt.Errorf("writing %s: %w", path, err)
	}
	return res, nil
}
