// Package xdg provides helpers to resolve XDG Base Directory paths for the portal.
// Configuration lives under the config dir; durable client data such as the
// file-backed token store lives under the data dir.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "parentportal"

// ConfigDir returns the XDG config directory for the portal.
// The directory is created with private permissions (0700) if missing.
// It falls back to ~/.config/parentportal when XDG_CONFIG_HOME is unset.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for the portal.
// It falls back to ~/.local/share/parentportal when XDG_DATA_HOME is unset.
func DataDir() (string, error) {
	return resolve("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func resolve(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, fallback)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}
