package config

import (
	"os"
	"path/filepath"
)

const appDir = "vykazy"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}

	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}

	return filepath.Join(home, ".local", "share")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "vykazy.db")
}

// DefaultPeoplePath returns the default path of the people file.
func DefaultPeoplePath() string {
	return filepath.Join(XDGConfigHome(), appDir, "people.toml")
}

// DefaultExportDir is where CSV exports and backups are written.
func DefaultExportDir() string {
	return filepath.Join(XDGDataHome(), appDir, "export")
}
