// Package config loads, defaults and validates autopilot settings.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	appDir          = "autopilot"
	historyFileName = "history.db"
)

// ExpandPath resolves $VARS and a leading ~ in a user-supplied path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// ConfigDir is where config.yaml is looked up:
// $XDG_CONFIG_HOME/autopilot, else ~/.config/autopilot.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir holds the run history: $XDG_DATA_HOME/autopilot, else
// ~/.local/share/autopilot.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", ".local", "share")
}

// DefaultHistoryPath is the history database used when database.path is unset.
func DefaultHistoryPath() string {
	return filepath.Join(DataDir(), historyFileName)
}

// xdgDir follows the XDG base directory rule: relative values are ignored.
func xdgDir(env string, homeFallback ...string) string {
	if base := os.Getenv(env); base != "" && filepath.IsAbs(base) {
		return filepath.Join(base, appDir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return appDir
	}
	parts := append([]string{home}, homeFallback...)
	return filepath.Join(append(parts, appDir)...)
}
