package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// appDir is the per-user directory name under the XDG base directories.
const appDir = "fq"

// ConfigPath returns the user config file location. FQ_CONFIG wins over the
// XDG default.
func ConfigPath() string {
	if p := os.Getenv("FQ_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(xdg.ConfigHome, appDir, "config.toml")
}

// RunLogPath returns where the run log lives unless cfg overrides it.
func RunLogPath(cfg *Config) string {
	if cfg != nil && cfg.Log.Path != "" {
		return cfg.Log.Path
	}
	return filepath.Join(xdg.StateHome, appDir, "runs.log")
}

// LockPath returns the single-run lock file location.
func LockPath() string {
	return filepath.Join(xdg.RuntimeDir, appDir+".lock")
}
