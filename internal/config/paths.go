// ABOUTME: Standard filesystem paths for meridian configuration
// ABOUTME: Resolves ~/.meridian/ the way node daemons keep their dotdir

package config

import (
	"os"
	"path/filepath"
)

const dotDirName = ".meridian"

// Dir returns the per-user data directory (~/.meridian/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", dotDirName)
	}
	return filepath.Join(home, dotDirName)
}

// ConfigFile returns the default config file path (~/.meridian/config.yaml).
func ConfigFile() string {
	return filepath.Join(Dir(), "config.yaml")
}
