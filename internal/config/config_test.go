package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	os.Unsetenv(EnvPort)
	os.Unsetenv(EnvLogLevel)
	os.Unsetenv(EnvAIKey)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("default Port = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != DefaultLogLevel {
		t.Errorf("default LogLevel = %q, want %q", cfg.LogLevel(), DefaultLogLevel)
	}
	if cfg.AIKey() != "" {
		t.Errorf("default AIKey = %q, want empty", cfg.AIKey())
	}
	if cfg.VideoPollInterval() != DefaultVideoPollInterval {
		t.Errorf("default VideoPollInterval = %v", cfg.VideoPollInterval())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvAIKey, "secret")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port = %d, want 9100", cfg.Port())
	}
	if cfg.LogLevel() != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel())
	}
	if !cfg.Headless() {
		t.Error("Headless = false, want true")
	}
	if cfg.AIKey() != "secret" {
		t.Errorf("AIKey = %q, want secret", cfg.AIKey())
	}
}

func TestInvalidPort(t *testing.T) {
	t.Setenv(EnvPort, "notaport")
	if _, err := New(); err == nil {
		t.Fatal("expected error for non-numeric port")
	}

	t.Setenv(EnvPort, "70000")
	if _, err := New(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestDerivedDirs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(EnvDataDir, dir)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AssetsDir() != filepath.Join(dir, "assets") {
		t.Errorf("AssetsDir = %q", cfg.AssetsDir())
	}
	if cfg.ExportsDir() != filepath.Join(dir, "exports") {
		t.Errorf("ExportsDir = %q", cfg.ExportsDir())
	}
}
