package config

import (
	"os"
	"path/filepath"
	"strings"
)

const appDir = ".cryptowidget"

// DefaultSettingsPath is ~/.cryptowidget/settings.json, or a relative
// fallback when the home directory cannot be resolved.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(appDir, "settings.json")
	}
	return filepath.Join(home, appDir, "settings.json")
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
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
