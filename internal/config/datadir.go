package config

import (
	"os"
	"path/filepath"
)

// DataDirEnv overrides the data directory when set.
const DataDirEnv = "CANADASPENDS_DATA"

// ResolveDataDir picks the data directory: an explicit flag value, then the
// environment, then the config file, then ./data.
func ResolveDataDir(flag string, cfg Config) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(DataDirEnv); env != "" {
		return env
	}
	if cfg.General.DataDir != "" {
		return expandHome(cfg.General.DataDir)
	}
	return "data"
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
