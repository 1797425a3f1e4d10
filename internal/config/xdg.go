package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns $XDG_CONFIG_HOME or ~/.config.
func XDGConfigHome() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// XDGStateHome returns $XDG_STATE_HOME or ~/.local/state.
func XDGStateHome() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, fallback)
}

// DefaultPath is the config file location.
func DefaultPath() string {
	return filepath.Join(XDGConfigHome(), "lingo", "config.toml")
}

// DefaultCredentialsPath is where the login token is kept.
func DefaultCredentialsPath() string {
	return filepath.Join(XDGConfigHome(), "lingo", "credentials.toml")
}

// DefaultLogPath is the log file location.
func DefaultLogPath() string {
	return filepath.Join(XDGStateHome(), "lingo", "lingo.log")
}
