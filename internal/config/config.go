// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvDataDir    = "PHASEGATE_DATA_DIR"
	EnvDebounceMS = "PHASEGATE_DEBOUNCE_MS"
	EnvHTTPAddr   = "PHASEGATE_HTTP_ADDR"
)

// Config holds runtime settings.
type Config struct {
	// DataDir holds the SQLite database.
	DataDir string

	// Debounce is the quiet period before section edits are written.
	Debounce time.Duration

	// HTTPAddr is the listen address of the HTTP API.
	HTTPAddr string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:  filepath.Join(home, ".phasegate"),
		Debounce: time.Second,
		HTTPAddr: ":8080",
	}
}

// Load reads .env if present, then the environment. Variables already set
// in the environment win over .env entries.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv(EnvDebounceMS); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return Config{}, fmt.Errorf("config: %s must be a non-negative integer, got %q", EnvDebounceMS, v)
		}
		cfg.Debounce = time.Duration(ms) * time.Millisecond
	}
	return cfg, nil
}
