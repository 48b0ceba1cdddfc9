// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package freeplane prepares a Freeplane user directory for unattended,
// headless Markdown export: it installs the export script and relaxes the
// script security settings that would otherwise prompt for confirmation.
package freeplane

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// ScriptName is the export script file installed into the user scripts
	// directory.
	ScriptName = "ExportToMarkdown.groovy"

	// ScriptAction is the menu action Freeplane derives from ScriptName; it
	// is passed to freeplane with -X to run the script on the selected node.
	ScriptAction = "ExportToMarkdown_on_selected_node"

	scriptsDir = "scripts"
)

//go:embed scripts/ExportToMarkdown.groovy
var exportScript []byte

// ConfigDir returns the Freeplane user directory for the given home directory
// and Freeplane version series, e.g. ~/.config/freeplane/1.6.x.
func ConfigDir(home, version string) string {
	return filepath.Join(home, ".config", "freeplane", version)
}

// LocateConfigDir returns the Freeplane user directory for the current user.
// It does not check that the directory exists.
func LocateConfigDir(version string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return ConfigDir(home, version), nil
}

// ResolveConfigDir returns override when set, otherwise the user directory
// for version.
func ResolveConfigDir(override, version string) (string, error) {
	if override != "" {
		return override, nil
	}
	return LocateConfigDir(version)
}

// ExportScript returns the bundled export script.
func ExportScript() []byte {
	return exportScript
}

// InstallExportScript writes the bundled export script into
// configDir/scripts/, replacing any existing copy. The scripts directory must
// already exist; Freeplane creates it on first start.
func InstallExportScript(configDir string) (string, error) {
	dest := filepath.Join(configDir, scriptsDir, ScriptName)
	if err := os.WriteFile(dest, exportScript, 0o644); err != nil {
		return "", fmt.Errorf("installing export script: %w", err)
	}
	return dest, nil
}

// Prepare makes configDir ready for a headless export: script security
// settings first, then the export script. Progress lines go to w.
func Prepare(configDir string, w io.Writer) error {
	changed, err := EnsureUnattendedExecution(configDir)
	if err != nil {
		return err
	}
	if changed {
		fmt.Fprintf(w, "updated: %s (backup in %s)\n",
			SettingsPath(configDir), BackupPath(configDir))
	}

	dest, err := InstallExportScript(configDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "installed: %s\n", dest)
	return nil
}
