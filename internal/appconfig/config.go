// Package appconfig manages application configuration and runtime file paths.
package appconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/treykane/gamblebot/internal/util"
	"gopkg.in/yaml.v3"
)

// RestartMode selects how a new token is applied after a failed initial connect.
type RestartMode string

const (
	// RestartInProcess re-enters the connection state machine without exiting.
	RestartInProcess RestartMode = "in-process"
	// RestartExit saves the token and exits 0 so an external supervisor relaunches.
	RestartExit RestartMode = "exit"
)

// UIConfig contains dashboard display settings.
type UIConfig struct {
	RefreshSeconds int `yaml:"refresh_seconds"`
}

// Config holds application-level configuration.
type Config struct {
	ConnectTimeoutSeconds int         `yaml:"connect_timeout_seconds"`
	SwapTimeoutSeconds    int         `yaml:"swap_timeout_seconds"`
	CleanupGraceMillis    int         `yaml:"cleanup_grace_millis"`
	RestartMode           RestartMode `yaml:"restart_mode"`
	RedactErrors          bool        `yaml:"redact_errors"`
	LogLevel              string      `yaml:"log_level"`
	UI                    UIConfig    `yaml:"ui"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		ConnectTimeoutSeconds: int(util.DefaultConnectTimeout / time.Second),
		SwapTimeoutSeconds:    int(util.DefaultSwapTimeout / time.Second),
		CleanupGraceMillis:    int(util.DefaultCleanupGrace / time.Millisecond),
		RestartMode:           RestartInProcess,
		RedactErrors:          true,
		LogLevel:              "info",
		UI:                    UIConfig{RefreshSeconds: util.DefaultRefreshSeconds},
	}
}

// ConnectTimeout is the initial connection race window.
func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// SwapTimeout is the reconnect race window after a credential swap.
func (c Config) SwapTimeout() time.Duration {
	return time.Duration(c.SwapTimeoutSeconds) * time.Second
}

// CleanupGrace is the wait after stopping a timed-out session.
func (c Config) CleanupGrace() time.Duration {
	return time.Duration(c.CleanupGraceMillis) * time.Millisecond
}

// ConfigDir returns the application config directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/gamblebot.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, util.AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return filepath.Join(home, ".config", util.AppName), nil
}

func fileInConfigDir(name string) (string, error) {
	d, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, name), nil
}

// CredentialsFilePath returns the full path to credentials.json.
func CredentialsFilePath() (string, error) { return fileInConfigDir("credentials.json") }

// StatsFilePath returns the full path to stats.json.
func StatsFilePath() (string, error) { return fileInConfigDir("stats.json") }

// EventsFilePath returns the full path to the connection journal.
func EventsFilePath() (string, error) { return fileInConfigDir("events.jsonl") }

// LogFilePath returns the full path to the log file used while the dashboard
// owns the terminal.
func LogFilePath() (string, error) { return fileInConfigDir("gamblebot.log") }

// Load reads config.yaml from the config directory.
// If the file doesn't exist, creates it with defaults.
func Load() (Config, error) {
	d, err := ConfigDir()
	if err != nil {
		return Config{}, err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return Config{}, err
	}
	path := filepath.Join(d, "config.yaml")
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, err
		}
		if err := Save(Default()); err != nil {
			return Default(), err
		}
		b = nil
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if lvl := strings.TrimSpace(os.Getenv("GAMBLEBOT_LOG_LEVEL")); lvl != "" {
		cfg.LogLevel = lvl
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	def := Default()
	if cfg.ConnectTimeoutSeconds <= 0 {
		cfg.ConnectTimeoutSeconds = def.ConnectTimeoutSeconds
	}
	if cfg.SwapTimeoutSeconds <= 0 {
		cfg.SwapTimeoutSeconds = def.SwapTimeoutSeconds
	}
	if cfg.CleanupGraceMillis < 0 {
		cfg.CleanupGraceMillis = def.CleanupGraceMillis
	}
	switch cfg.RestartMode {
	case RestartInProcess, RestartExit:
	default:
		cfg.RestartMode = RestartInProcess
	}
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug", "info", "warn", "error":
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	default:
		cfg.LogLevel = def.LogLevel
	}
	if cfg.UI.RefreshSeconds <= 0 {
		cfg.UI.RefreshSeconds = util.DefaultRefreshSeconds
	}
}

// Save writes config to config.yaml.
func Save(cfg Config) error {
	d, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(d, 0o700); err != nil {
		return err
	}
	path := filepath.Join(d, "config.yaml")
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
