// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package freeplane

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/freeplane-helper/internal/properties"
)

const (
	settingsFile = "auto.properties"
	backupSuffix = ".bak"
	enabled      = "true"
)

// UnattendedKeys are the script security settings that must all be "true"
// for Freeplane to run scripts without asking.
var UnattendedKeys = []string{
	"execute_scripts_without_network_restriction",
	"execute_scripts_without_write_restriction",
	"execute_scripts_without_exec_restriction",
	"execute_scripts_without_asking",
	"execute_scripts_without_file_restriction",
}

// SettingsPath returns the path of auto.properties under configDir.
func SettingsPath(configDir string) string {
	return filepath.Join(configDir, settingsFile)
}

// BackupPath returns where the previous settings are saved before a rewrite.
func BackupPath(configDir string) string {
	return SettingsPath(configDir) + backupSuffix
}

// EnsureUnattendedExecution sets every key in UnattendedKeys to "true" in
// configDir/auto.properties. If any key differs, the original file is copied
// to auto.properties.bak (replacing an older backup) and the settings are
// rewritten as key=value lines. If all keys already match, nothing is written.
// A missing settings file is not an error: Freeplane has not run yet and
// there is nothing to fix. It reports whether the file was rewritten.
func EnsureUnattendedExecution(configDir string) (bool, error) {
	path := SettingsPath(configDir)

	original, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("reading settings %s: %w", path, err)
	}

	props, err := properties.Parse(bytes.NewReader(original))
	if err != nil {
		return false, fmt.Errorf("parsing settings %s: %w", path, err)
	}

	modified := false
	for _, key := range UnattendedKeys {
		if v, ok := props.Get(key); !ok || v != enabled {
			props.Set(key, enabled)
			modified = true
		}
	}
	if !modified {
		return false, nil
	}

	backup := BackupPath(configDir)
	if err := os.Remove(backup); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("removing old backup %s: %w", backup, err)
	}
	if err := os.WriteFile(backup, original, 0o644); err != nil {
		return false, fmt.Errorf("writing backup %s: %w", backup, err)
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, []byte(props.String()), mode); err != nil {
		return false, fmt.Errorf("writing settings %s: %w", path, err)
	}
	return true, nil
}
