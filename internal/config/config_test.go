package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if !strings.HasSuffix(cfg.DataDir, ".phasegate") {
		t.Errorf("DataDir = %s, want ~/.phasegate", cfg.DataDir)
	}
	if cfg.Debounce != time.Second {
		t.Errorf("Debounce = %v, want 1s", cfg.Debounce)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %s, want :8080", cfg.HTTPAddr)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvDebounceMS, "250")
	t.Setenv(EnvHTTPAddr, "127.0.0.1:9000")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DataDir != dir {
		t.Errorf("DataDir = %s, want %s", cfg.DataDir, dir)
	}
	if cfg.Debounce != 250*time.Millisecond {
		t.Errorf("Debounce = %v, want 250ms", cfg.Debounce)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Errorf("HTTPAddr = %s", cfg.HTTPAddr)
	}
}

func TestLoad_InvalidDebounce(t *testing.T) {
	for _, v := range []string{"soon", "-5", "1.5"} {
		t.Setenv(EnvDebounceMS, v)
		if _, err := Load(); err == nil {
			t.Errorf("Load with %s=%q should fail", EnvDebounceMS, v)
		}
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := "PHASEGATE_HTTP_ADDR=:7070\nPHASEGATE_DEBOUNCE_MS=10\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(envFile), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	// t.Setenv registers the restore; unsetting lets .env supply the values.
	t.Setenv(EnvHTTPAddr, "")
	t.Setenv(EnvDebounceMS, "")
	os.Unsetenv(EnvHTTPAddr)
	os.Unsetenv(EnvDebounceMS)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" {
		t.Errorf("HTTPAddr = %s, want :7070 from .env", cfg.HTTPAddr)
	}
	if cfg.Debounce != 10*time.Millisecond {
		t.Errorf("Debounce = %v, want 10ms from .env", cfg.Debounce)
	}
}

func TestLoad_EnvironmentWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("PHASEGATE_HTTP_ADDR=:7070\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv(EnvHTTPAddr, ":6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":6060" {
		t.Errorf("HTTPAddr = %s, want :6060 from the environment", cfg.HTTPAddr)
	}
}
