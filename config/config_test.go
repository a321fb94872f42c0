package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ServerPort != "8451" {
		t.Errorf("expected default port 8451, got %s", cfg.ServerPort)
	}
	if cfg.VideoStoreDir != filepath.Join(dir, "videos") {
		t.Errorf("unexpected video store dir: %s", cfg.VideoStoreDir)
	}
	if cfg.Pipeline.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("unexpected pipeline URL: %s", cfg.Pipeline.BaseURL)
	}

	// Validate must have created the directories.
	for _, p := range []string{cfg.LogDir, cfg.VideoStoreDir, cfg.PublicDir} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", t.TempDir())
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("PIPELINE_POLL_INTERVAL", "250ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.ServerPort)
	}
	if cfg.Pipeline.PollInterval != 250*time.Millisecond {
		t.Errorf("expected 250ms poll interval, got %v", cfg.Pipeline.PollInterval)
	}
}

func TestUserConfigRoundTrip(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}

	// Missing file reads as empty.
	uc, err := cfg.ReadUserConfig()
	if err != nil {
		t.Fatalf("ReadUserConfig failed: %v", err)
	}
	if len(uc) != 0 {
		t.Errorf("expected empty config, got %v", uc)
	}

	uc["theme"] = "dark"
	uc["access_token"] = "tok"
	if err := cfg.WriteUserConfig(uc); err != nil {
		t.Fatalf("WriteUserConfig failed: %v", err)
	}

	got, err := cfg.ReadUserConfig()
	if err != nil {
		t.Fatalf("ReadUserConfig failed: %v", err)
	}
	if got["theme"] != "dark" || got["access_token"] != "tok" {
		t.Errorf("round trip mismatch: %v", got)
	}

	// Last writer wins: a wholesale write drops previous keys.
	if err := cfg.WriteUserConfig(UserConfig{"theme": "light"}); err != nil {
		t.Fatalf("WriteUserConfig failed: %v", err)
	}
	got, err = cfg.ReadUserConfig()
	if err != nil {
		t.Fatalf("ReadUserConfig failed: %v", err)
	}
	if _, ok := got["access_token"]; ok {
		t.Error("expected wholesale replace to drop access_token")
	}
}
