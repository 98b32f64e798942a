package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envBeaconDBPath  = "BEACON_DB_PATH"
	envBeaconDataDir = "BEACON_DATA_DIR"
)

func resolveDBPath() (string, error) {
	if path := strings.TrimSpace(os.Getenv(envBeaconDBPath)); path != "" {
		return expandHomePath(path)
	}

	if dir := strings.TrimSpace(os.Getenv(envBeaconDataDir)); dir != "" {
		dir, err := expandHomePath(dir)
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "beacon.db"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".beacon", "beacon.db"), nil
}

func expandHomePath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}

	return path, nil
}
