// Package config loads mailroom configuration: TOML file defaults
// overridden by environment variables, with a .env file honored when
// present.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all mailroom configuration.
type Config struct {
	// Token is the shared secret each request must present in the
	// X-Auth-Token header.
	Token string `toml:"token" env:"MAILROOM_TOKEN"`

	// Port is the preferred listen port; serve scans upward when busy.
	Port int `toml:"port" env:"MAILROOM_PORT"`

	DBPath string `toml:"db_path" env:"MAILROOM_DB_PATH"`

	// EncryptionKey is optional 32-byte key material for the credential
	// secret box; when empty a key is managed through the OS keyring.
	EncryptionKey string `toml:"encryption_key" env:"MAILROOM_ENCRYPTION_KEY"`

	LogLevel  string `toml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `toml:"log_format" env:"LOG_FORMAT"`

	Gmail GmailConfig `toml:"gmail"`
	Sync  SyncConfig  `toml:"sync"`
}

// GmailConfig holds the operator's Google Cloud OAuth client credentials.
type GmailConfig struct {
	ClientID     string `toml:"client_id" env:"GMAIL_CLIENT_ID"`
	ClientSecret string `toml:"client_secret" env:"GMAIL_CLIENT_SECRET"`
	RedirectURL  string `toml:"redirect_url" env:"GMAIL_REDIRECT_URI"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	// MaxResults bounds one Gmail listing call.
	MaxResults int `toml:"max_results" env:"SYNC_MAX_RESULTS"`
}

func defaults() Config {
	return Config{
		Token:     "dev-token",
		Port:      8137,
		DBPath:    filepath.Join(DataDir(), "mailroom.db"),
		LogLevel:  "info",
		LogFormat: "text",
		Sync:      SyncConfig{MaxResults: 50},
	}
}

// Load reads config from path (skipped when empty or absent), then
// applies environment overrides. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the mailroom config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailroom")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mailroom")
}

// DataDir returns the mailroom data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailroom")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mailroom")
}
