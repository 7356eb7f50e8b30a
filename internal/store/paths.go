package store

import (
	"os"
	"path/filepath"
)

const (
	SessionsFile = "sessions.json"
	DatabaseFile = "taskonaut.db"
)

// DefaultDataDir returns $TASKONAUT_HOME, or ~/.config/taskonaut.
func DefaultDataDir() (string, error) {
	if dir := os.Getenv("TASKONAUT_HOME"); dir != "" {
		return dir, nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "taskonaut"), nil
}
