// Package config loads and saves the canadaspends TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/mackenziebowes/CanadaSpends/internal/budget"
)

// Config holds all canadaspends configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Breakdown  BreakdownConfig  `toml:"breakdown"`
	Budget     BudgetConfig     `toml:"budget"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	Province string  `toml:"province"`
	Income   float64 `toml:"income"`
	DataDir  string  `toml:"data_dir,omitempty"`
}

// BreakdownConfig holds personal breakdown settings.
type BreakdownConfig struct {
	Threshold float64 `toml:"threshold"`
}

// BudgetConfig holds federal budget settings.
type BudgetConfig struct {
	Live       bool               `toml:"live"`
	Reductions map[string]float64 `toml:"reductions,omitempty"`
}

// DaemonConfig holds HTTP service settings.
type DaemonConfig struct {
	Addr          string `toml:"addr"`
	IntervalSec   int    `toml:"interval_sec"`
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RateLimit     int    `toml:"rate_limit"`
	RateWindowSec int    `toml:"rate_window_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Province: "ontario",
			Income:   100000,
		},
		Breakdown: BreakdownConfig{
			Threshold: 20,
		},
		Budget: BudgetConfig{
			Live: true,
		},
		Daemon: DaemonConfig{
			Addr:          "127.0.0.1:8787",
			IntervalSec:   30,
			RateLimit:     60,
			RateWindowSec: 60,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "canadaspends")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "canadaspends")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path, creating its directory.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // path is the user's own config file
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Reductions resolves the effective budget reductions: the defaults for the
// configured budget stage, overlaid with configured per-category values.
func (c Config) Reductions() (budget.Reductions, error) {
	base := budget.DefaultReductions(c.Budget.Live)
	if len(c.Budget.Reductions) == 0 {
		return base, nil
	}
	overrides, err := budget.FromStringMap(c.Budget.Reductions)
	if err != nil {
		return base, fmt.Errorf("config [budget.reductions]: %w", err)
	}
	return base.Merge(overrides), nil
}
