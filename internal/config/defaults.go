package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultConfigPath returns the default directory for the model manifest.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "indic-seamless", "config")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "indic-seamless")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "indic-seamless")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "indic-seamless")
		}
		return filepath.Join(home, ".config", "indic-seamless")
	}
}

// DefaultModelsPath returns the default directory for model snapshots.
func DefaultModelsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "indic-seamless", "models")
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "indic-seamless", "models")
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "indic-seamless", "models")
	default: // Linux, BSD, etc.
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "indic-seamless", "models")
		}
		return filepath.Join(home, ".cache", "indic-seamless", "models")
	}
}
