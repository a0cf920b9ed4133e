package appconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConnectTimeout() != 20*time.Second {
		t.Fatalf("unexpected connect timeout: %s", cfg.ConnectTimeout())
	}
	if cfg.SwapTimeout() != 10*time.Second {
		t.Fatalf("unexpected swap timeout: %s", cfg.SwapTimeout())
	}
	if cfg.RestartMode != RestartInProcess {
		t.Fatalf("unexpected restart mode: %s", cfg.RestartMode)
	}
	if !cfg.RedactErrors {
		t.Fatal("expected redact_errors default true")
	}
	if _, err := os.Stat(filepath.Join(xdg, "gamblebot", "config.yaml")); err != nil {
		t.Fatalf("expected config.yaml to be written: %v", err)
	}
}

func TestLoad_NormalizesInvalidValues(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	dir := filepath.Join(xdg, "gamblebot")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := []byte(strings.Join([]string{
		"connect_timeout_seconds: 0",
		"swap_timeout_seconds: -4",
		"cleanup_grace_millis: -1",
		"restart_mode: sideways",
		"log_level: loud",
		"ui:",
		"  refresh_seconds: 0",
		"",
	}, "\n"))
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	def := Default()
	if cfg.ConnectTimeoutSeconds != def.ConnectTimeoutSeconds || cfg.SwapTimeoutSeconds != def.SwapTimeoutSeconds {
		t.Fatalf("expected default timeouts, got %+v", cfg)
	}
	if cfg.CleanupGraceMillis != def.CleanupGraceMillis {
		t.Fatalf("expected default grace, got %d", cfg.CleanupGraceMillis)
	}
	if cfg.RestartMode != RestartInProcess {
		t.Fatalf("expected normalized restart mode, got %s", cfg.RestartMode)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected normalized log level, got %s", cfg.LogLevel)
	}
	if cfg.UI.RefreshSeconds != 3 {
		t.Fatalf("expected default refresh, got %d", cfg.UI.RefreshSeconds)
	}
}

func TestLoad_LogLevelFromEnv(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GAMBLEBOT_LOG_LEVEL", "DEBUG")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug from env, got %s", cfg.LogLevel)
	}
}

func TestSaveRoundTripExitMode(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := Default()
	cfg.RestartMode = RestartExit
	cfg.SwapTimeoutSeconds = 5
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if got.RestartMode != RestartExit || got.SwapTimeout() != 5*time.Second {
		t.Fatalf("unexpected config after reload: %+v", got)
	}
}
