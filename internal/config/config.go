// Package config handles TOML-based configuration loading and validation.
// Precedence: built-in defaults < config file < environment (.env aware)
// < CLI flags, the flags being applied by the cmd layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/losthumanity/TikDownloader/internal/media"
)

// Config holds all application configuration.
type Config struct {
	Quality     string `toml:"quality"`
	DownloadDir string `toml:"download_dir"`
	History     bool   `toml:"history"`
	Debug       bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Quality:     "high",
		DownloadDir: "~/Videos/tikdl",
		History:     true,
		Debug:       false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tikdl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "tikdl"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, applies environment overrides, and merges
// with defaults. A missing config file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnv layers environment variables over the file values. A local
// .env file is honored when present; real environment variables win
// over it.
func (c *Config) applyEnv() {
	_ = godotenv.Load() // missing .env is fine

	if v := os.Getenv("TIKDL_QUALITY"); v != "" {
		c.Quality = v
	}
	if v := os.Getenv("TIKDL_DOWNLOAD_DIR"); v != "" {
		c.DownloadDir = v
	}
	if v := os.Getenv("TIKDL_DEBUG"); v != "" {
		c.Debug = v == "1" || strings.EqualFold(v, "true")
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if _, err := media.ParseQualityTier(c.Quality); err != nil {
		return err
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("download_dir cannot be empty")
	}
	return nil
}

// Tier returns the configured quality as a tier value. Validate must
// have accepted the config first.
func (c *Config) Tier() media.QualityTier {
	tier, err := media.ParseQualityTier(c.Quality)
	if err != nil {
		return media.QualityHigh
	}
	return tier
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// HistoryPath returns the path to the download log.
func HistoryPath() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "tikdl", "history.tsv"), nil
}
