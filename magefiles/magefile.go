// Package main contains Mage build targets for freeplane-helper developer
// tooling.
package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "freeplane-helper"
	cmdPkg  = "./cmd/freeplane-helper"
)

// Default runs when mage is invoked without a target.
var Default = Build

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Install puts the CLI binary into GOBIN.
func Install() error {
	return sh.RunV("go", "install", cmdPkg)
}

// Vet runs go vet over every package.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Test runs the unit tests. The history store needs cgo for SQLite.
func Test() error {
	args := []string{"test", "./..."}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "1"}, "go", args...)
}

// Check vets and tests the module.
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}

// Stats prints non-blank Go lines per package directory, split into
// production and test code, and the word count of the top-level Markdown docs.
func Stats() error {
	counts, err := goLinesByDir(".")
	if err != nil {
		return err
	}
	dirs := make([]string, 0, len(counts))
	for dir := range counts {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var prod, test int
	for _, dir := range dirs {
		c := counts[dir]
		fmt.Printf("%-28s %6d %6d\n", dir, c.prod, c.test)
		prod += c.prod
		test += c.test
	}
	fmt.Printf("%-28s %6d %6d\n", "total", prod, test)

	docs, err := filepath.Glob("*.md")
	if err != nil {
		return err
	}
	words := 0
	for _, doc := range docs {
		data, err := os.ReadFile(doc)
		if err != nil {
			return fmt.Errorf("reading %s: %w", doc, err)
		}
		words += len(strings.Fields(string(data)))
	}
	fmt.Printf("Words (%s): %d\n", strings.Join(docs, ", "), words)
	return nil
}

type lineCount struct{ prod, test int }

// goLinesByDir counts non-blank lines of .go files under root, keyed by
// directory. Directories the go tool ignores (_examples, .git) are skipped.
func goLinesByDir(root string) (map[string]lineCount, error) {
	counts := make(map[string]lineCount)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.ContainsAny(d.Name()[:1], "_.") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		n := 0
		for _, line := range strings.Split(string(data), "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
		dir, _ := filepath.Rel(root, filepath.Dir(path))
		c := counts[dir]
		if strings.HasSuffix(path, "_test.go") {
			c.test += n
		} else {
			c.prod += n
		}
		counts[dir] = c
		return nil
	})
	return counts, err
}
