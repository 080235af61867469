package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	BackendLocal     = "local"
	BackendDataverse = "dataverse"
)

type Config struct {
	Backend       BackendConfig   `toml:"backend"`
	Dataverse     DataverseConfig `toml:"dataverse"`
	Store         StoreConfig     `toml:"store"`
	Notifications NotifyConfig    `toml:"notifications"`
	Reminder      ReminderConfig  `toml:"reminder"`
	Log           LogConfig       `toml:"log"`
}

type BackendConfig struct {
	Kind string `toml:"kind"` // "local" or "dataverse"
}

type DataverseConfig struct {
	URL             string `toml:"url"`
	TenantID        string `toml:"tenant_id"`
	ClientID        string `toml:"client_id"`
	ClientSecret    string `toml:"client_secret"`
	AccessToken     string `toml:"access_token"`
	UserID          string `toml:"user_id"`
	MappingVersion  string `toml:"mapping_version"` // "v1" or "v2"
	CacheTTLSeconds int    `toml:"cache_ttl_seconds"`
	// TokenFile caches the signed-in user's token when no client secret is set.
	TokenFile string `toml:"token_file"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

// ReminderConfig controls when the reminder daemon checks for unsubmitted
// drafts. WorkDays uses 1 for Monday through 7 for Sunday.
type ReminderConfig struct {
	Time     string `toml:"time"`
	WorkDays []int  `toml:"work_days"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

func DefaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Kind: BackendLocal,
		},
		Dataverse: DataverseConfig{
			MappingVersion:  "v1",
			CacheTTLSeconds: 300,
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
		Reminder: ReminderConfig{
			Time:     "16:30",
			WorkDays: []int{1, 2, 3, 4, 5},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "timegrid"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.fillPaths(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIMEGRID_BACKEND"); v != "" {
		cfg.Backend.Kind = v
	}
	if v := os.Getenv("DATAVERSE_URL"); v != "" {
		cfg.Dataverse.URL = v
	}
	if v := os.Getenv("DATAVERSE_TENANT_ID"); v != "" {
		cfg.Dataverse.TenantID = v
	}
	if v := os.Getenv("DATAVERSE_CLIENT_ID"); v != "" {
		cfg.Dataverse.ClientID = v
	}
	if v := os.Getenv("DATAVERSE_CLIENT_SECRET"); v != "" {
		cfg.Dataverse.ClientSecret = v
	}
	if v := os.Getenv("DATAVERSE_ACCESS_TOKEN"); v != "" {
		cfg.Dataverse.AccessToken = v
	}
	if v := os.Getenv("DATAVERSE_USER_ID"); v != "" {
		cfg.Dataverse.UserID = v
	}
	if v := os.Getenv("TIMEGRID_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("TIMEGRID_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

func (c *Config) fillPaths() error {
	if c.Store.Path != "" && c.Log.File != "" && c.Dataverse.TokenFile != "" {
		return nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(dir, "timegrid.db")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(dir, "timegrid.log")
	}
	if c.Dataverse.TokenFile == "" {
		c.Dataverse.TokenFile = filepath.Join(dir, "dataverse_token.json")
	}
	return nil
}

// Validate checks that the selected backend has what it needs to start.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendLocal:
		return nil
	case BackendDataverse:
		if c.Dataverse.URL == "" {
			return fmt.Errorf("dataverse URL is empty: set dataverse.url in config or DATAVERSE_URL env var")
		}
		if c.Dataverse.AccessToken == "" && (c.Dataverse.TenantID == "" || c.Dataverse.ClientID == "") {
			return fmt.Errorf("dataverse credentials incomplete: set tenant_id and client_id, or access_token")
		}
		return nil
	}
	return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend.Kind, BackendLocal, BackendDataverse)
}

// LogLevel maps the configured level name onto slog; unknown names mean info.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// WriteDefault writes the default config file unless one exists already.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := EnsureConfigDir(); err != nil {
		return "", err
	}

	out, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}
	return path, nil
}
