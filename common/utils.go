// Package common provides shared constants, types, and utilities
// used across the Wireless Manager application.
package common

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns ~/.config/<app>, creating it if needed.
func GetConfigDir() (string, error) {
	return appDir("config", ".config")
}

// GetDataDir returns ~/.local/share/<app>, creating it if needed.
func GetDataDir() (string, error) {
	return appDir("data", ".local", "share")
}

// appDir creates the application directory under the home directory.
// kind names the directory in errors.
func appDir(kind string, base ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", WrapError(err, "failed to get home directory")
	}

	dir := filepath.Join(append(append([]string{home}, base...), ConfigDirName)...)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", WrapError(err, "failed to create "+kind+" directory")
	}
	return dir, nil
}

// FileExists reports whether anything exists at path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
