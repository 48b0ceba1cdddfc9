// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package properties reads and writes flat key/value settings files such as
// Freeplane's auto.properties. A file is a single unnamed section: an ordered
// list of key/value pairs interleaved with comment and blank lines, which are
// kept in place on rewrite.
package properties

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Delimiter is written between key and value, with no surrounding padding.
const Delimiter = "="

type entry struct {
	key   string
	value string
	// raw holds comment and blank lines verbatim; pairs leave it empty.
	raw    string
	isPair bool
}

// File is an ordered key/value mapping.
type File struct {
	entries []entry
	index   map[string]int
}

// New returns an empty File.
func New() *File {
	return &File{index: make(map[string]int)}
}

// Parse reads a settings file. Keys end at the first unescaped '=', ':' or
// whitespace, so "key value" is a pair as well; whitespace around keys and
// values is dropped. A value whose line ends in an
// unescaped backslash continues on the next line, and the continuation is
// kept verbatim so it survives a rewrite. When a key repeats, the last
// occurrence wins.
func Parse(r io.Reader) (*File, error) {
	f := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cont *entry
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")

		if cont != nil {
			cont.value += "\n" + line
			if !continues(line) {
				f.add(*cont)
				cont = nil
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isComment(trimmed) {
			f.entries = append(f.entries, entry{raw: line})
			continue
		}

		key, value := splitPair(trimmed)
		e := entry{key: key, value: value, isPair: true}
		if continues(trimmed) {
			cont = &e
			continue
		}
		f.add(e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading properties: %w", err)
	}
	if cont != nil {
		f.add(*cont)
	}
	return f, nil
}

func (f *File) add(e entry) {
	if i, ok := f.index[e.key]; ok {
		f.entries[i].value = e.value
		return
	}
	f.index[e.key] = len(f.entries)
	f.entries = append(f.entries, e)
}

// Get returns the value for key and whether it is present.
func (f *File) Get(key string) (string, bool) {
	i, ok := f.index[key]
	if !ok {
		return "", false
	}
	return f.entries[i].value, true
}

// Set updates key in place, or appends it when absent.
func (f *File) Set(key, value string) {
	f.add(entry{key: key, value: value, isPair: true})
}

// Keys returns the keys in file order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.index))
	for _, e := range f.entries {
		if e.isPair {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Len returns the number of key/value pairs.
func (f *File) Len() int {
	return len(f.index)
}

// WriteTo writes the file as key=value lines, keeping comments and blank
// lines where they were.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range f.entries {
		var line string
		if e.isPair {
			line = e.key + Delimiter + e.value + "\n"
		} else {
			line = e.raw + "\n"
		}
		m, err := bw.WriteString(line)
		n += int64(m)
		if err != nil {
			return n, fmt.Errorf("writing properties: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("writing properties: %w", err)
	}
	return n, nil
}

// String renders the file as WriteTo would.
func (f *File) String() string {
	var b strings.Builder
	_, _ = f.WriteTo(&b)
	return b.String()
}

func isComment(trimmed string) bool {
	switch trimmed[0] {
	case '#', '!', ';':
		return true
	}
	return false
}

// splitPair splits a trimmed line into key and value. The key ends at the
// first unescaped '=', ':' or whitespace; whitespace around a following '='
// or ':' belongs to the separator. A line with no separator is a key with an
// empty value.
func splitPair(line string) (key, value string) {
	escaped := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '=' || c == ':':
			return line[:i], strings.TrimSpace(line[i+1:])
		case c == ' ' || c == '\t' || c == '\f':
			rest := strings.TrimLeft(line[i:], " \t\f")
			if rest != "" && (rest[0] == '=' || rest[0] == ':') {
				rest = rest[1:]
			}
			return line[:i], strings.TrimSpace(rest)
		}
	}
	return line, ""
}

// continues reports whether line ends with an odd number of backslashes.
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
