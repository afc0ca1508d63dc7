package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the textdump home directory
const HomeEnvVar = "TEXTDUMP_HOME"

// GetHome returns the textdump home directory
// Priority order:
//  1. TEXTDUMP_HOME environment variable (if set)
//  2. ~/.textdump
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnvVar)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get user home directory: %w", err)
		}
		home = filepath.Join(userHome, ".textdump")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create textdump home directory: %w", err)
	}

	return home, nil
}

// GetHistoryDBPath returns the history database path, honouring an explicit
// history.db_path before falling back to $TEXTDUMP_HOME/history.db
func (c *Config) GetHistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}

	home, err := GetHome()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, "history.db"), nil
}
