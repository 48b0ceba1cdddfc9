// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package repair patches the Markdown emitted by the Freeplane export script
// so that pandoc can build a title block and a table of contents from it.
//
// The document is handled as a slice of lines, each keeping its trailing
// "\n" when it had one. Every transform works line by line and never adds or
// removes a line:
//
//  1. FixTitle marks the indented first line as a pandoc title with "%".
//  2. FixReferences ends each "(see: ...)" line with an extra newline so the
//     next heading is not folded into the same paragraph.
//  3. NumberSections (optional) prefixes every heading with a dotted label.
package repair

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrHeadingUnderflow is returned when a heading closes more sections than
// are open, e.g. "### a", "## b", "# c".
var ErrHeadingUnderflow = errors.New("heading level has no enclosing section")

// NumberingError locates a numbering failure in the document.
type NumberingError struct {
	// Line is the zero-based index of the offending heading.
	Line  int
	Level int
	Err   error
}

func (e *NumberingError) Error() string {
	return fmt.Sprintf("numbering sections: line %d: level %d: %v", e.Line+1, e.Level, e.Err)
}

func (e *NumberingError) Unwrap() error { return e.Err }

const (
	titleMarker     = "%"
	referencePrefix = "(see:"
)

// headingLine captures the "#" run and the rest of the line, excluding the
// line terminator. The leading class is the set unicode.IsSpace accepts, so
// all three transforms agree on what whitespace is.
var headingLine = regexp.MustCompile(`^[\s\v\x{85}\p{Z}]*(#+)([^\n]*)`)

// Stats counts how many lines each transform changed.
type Stats struct {
	Title      bool
	References int
	Headings   int
}

// Repair applies FixTitle, FixReferences and, when numberSections is set,
// NumberSections to lines in place and returns the same slice. An empty
// document is returned unchanged. On a numbering error lines may be partly
// numbered; callers that persist the result must discard it.
func Repair(lines []string, numberSections bool) ([]string, error) {
	_, err := repair(lines, numberSections)
	return lines, err
}

func repair(lines []string, numberSections bool) (Stats, error) {
	var st Stats
	if len(lines) == 0 {
		return st, nil
	}

	st.Title = FixTitle(lines)
	st.References = FixReferences(lines)
	if numberSections {
		n, err := NumberSections(lines)
		if err != nil {
			return st, err
		}
		st.Headings = n
	}
	return st, nil
}

// FixTitle prefixes the first line with "%" when it is non-empty and starts
// with whitespace. A line already starting with "%" no longer matches, so
// the fix is idempotent. It reports whether the line changed.
func FixTitle(lines []string) bool {
	if len(lines) == 0 || !startsWithSpace(lines[0]) {
		return false
	}
	lines[0] = titleMarker + lines[0]
	return true
}

// FixReferences appends "\n" to every line made of leading whitespace
// followed by "(see:". Each call appends another newline; callers run it
// once per document. It returns the number of lines changed.
func FixReferences(lines []string) int {
	n := 0
	for i, line := range lines {
		if !isReference(line) {
			continue
		}
		lines[i] = line + "\n"
		n++
	}
	return n
}

// NumberSections rewrites every heading as "<#run> <label> <rest>\n" where
// label is the dotted section number, e.g. "## 1.2  Intro". Siblings at the
// same level count up, a deeper heading starts a new count at 1, and a
// shallower heading resumes and advances the enclosing count. The outermost
// counter is not shown, so top-level headings read 1, 2, 3.
//
// A heading that closes more sections than are open fails with
// ErrHeadingUnderflow wrapped in a *NumberingError. It returns the number of
// headings numbered.
func NumberSections(lines []string) (int, error) {
	var (
		stack     []int
		lastLevel int
		num       = 1
		count     int
	)

	for i, line := range lines {
		m := headingLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		hashes, rest := m[1], m[2]
		level := len(hashes)

		switch {
		case level == lastLevel:
			num++
		case level > lastLevel:
			stack = append(stack, num)
			num = 1
			lastLevel = level
		default:
			if len(stack) == 0 {
				return count, &NumberingError{Line: i, Level: level, Err: ErrHeadingUnderflow}
			}
			num = stack[len(stack)-1] + 1
			stack = stack[:len(stack)-1]
			lastLevel = level
		}

		lines[i] = hashes + " " + label(stack, num) + " " + rest + "\n"
		count++
	}
	return count, nil
}

// label joins the counters below the outermost with the current count.
func label(stack []int, num int) string {
	parts := make([]string, 0, len(stack))
	if len(stack) > 1 {
		for _, n := range stack[1:] {
			parts = append(parts, strconv.Itoa(n))
		}
	}
	parts = append(parts, strconv.Itoa(num))
	return strings.Join(parts, ".")
}

func startsWithSpace(line string) bool {
	for _, r := range line {
		return unicode.IsSpace(r)
	}
	return false
}

func isReference(line string) bool {
	rest := strings.TrimLeftFunc(line, unicode.IsSpace)
	return len(rest) < len(line) && strings.HasPrefix(rest, referencePrefix)
}
