package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Point XDG_CONFIG_HOME at an empty dir so no real config is picked up.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != DefaultMode {
		t.Errorf("Mode = %q, want %q", cfg.Mode, DefaultMode)
	}
	if cfg.Fingerprint.Algorithm != DefaultAlgorithm {
		t.Errorf("Fingerprint.Algorithm = %q, want %q", cfg.Fingerprint.Algorithm, DefaultAlgorithm)
	}
	if cfg.Ledger.Dedupe {
		t.Error("Ledger.Dedupe = true, want false by default")
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true by default")
	}
	if cfg.CurrentManifest != DefaultCurrentManifest {
		t.Errorf("CurrentManifest = %q, want %q", cfg.CurrentManifest, DefaultCurrentManifest)
	}
}

func TestLoad_FromFile(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	dir := filepath.Join(configHome, "patchkit")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	content := `mode: full-scan
compress: true
fingerprint:
  algorithm: xxhash64
ledger:
  dedupe: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != "full-scan" {
		t.Errorf("Mode = %q, want full-scan", cfg.Mode)
	}
	if !cfg.Compress {
		t.Error("Compress = false, want true")
	}
	if cfg.Fingerprint.Algorithm != "xxhash64" {
		t.Errorf("Fingerprint.Algorithm = %q, want xxhash64", cfg.Fingerprint.Algorithm)
	}
	if !cfg.Ledger.Dedupe {
		t.Error("Ledger.Dedupe = false, want true")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("PATCHKIT_MODE", "disabled")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != "disabled" {
		t.Errorf("Mode = %q, want disabled from environment", cfg.Mode)
	}
}

func TestWriteDefault(t *testing.T) {
	configHome := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)

	if err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	configPath := filepath.Join(configHome, "patchkit", "config.yaml")
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	// A second call must not clobber an existing file.
	if err := os.WriteFile(configPath, []byte("mode: full-scan\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault() second call error = %v", err)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(data) != "mode: full-scan\n" {
		t.Error("WriteDefault() overwrote an existing config file")
	}
}

func TestConfigDir_RespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if dir != filepath.Join("/custom/config", "patchkit") {
		t.Errorf("ConfigDir() = %q, want /custom/config/patchkit", dir)
	}
}
