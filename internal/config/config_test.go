package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Token != "dev-token" {
		t.Errorf("Token = %q, want dev-token", cfg.Token)
	}
	if cfg.Port != 8137 {
		t.Errorf("Port = %d, want 8137", cfg.Port)
	}
	if cfg.Sync.MaxResults != 50 {
		t.Errorf("Sync.MaxResults = %d, want 50", cfg.Sync.MaxResults)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("logging defaults = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
token = "file-token"
port = 9000

[gmail]
client_id = "cid"
client_secret = "secret"
redirect_url = "http://localhost:9000/gmail/callback"

[sync]
max_results = 10
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Token != "file-token" || cfg.Port != 9000 {
		t.Errorf("file values not applied: token=%q port=%d", cfg.Token, cfg.Port)
	}
	if cfg.Gmail.ClientID != "cid" || cfg.Gmail.ClientSecret != "secret" {
		t.Errorf("gmail section not applied: %+v", cfg.Gmail)
	}
	if cfg.Sync.MaxResults != 10 {
		t.Errorf("Sync.MaxResults = %d, want 10", cfg.Sync.MaxResults)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`port = 9000`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("MAILROOM_PORT", "9500")
	t.Setenv("MAILROOM_TOKEN", "env-token")
	t.Setenv("GMAIL_CLIENT_ID", "env-cid")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Port != 9500 {
		t.Errorf("Port = %d, want env override 9500", cfg.Port)
	}
	if cfg.Token != "env-token" {
		t.Errorf("Token = %q, want env override", cfg.Token)
	}
	if cfg.Gmail.ClientID != "env-cid" {
		t.Errorf("Gmail.ClientID = %q, want env override", cfg.Gmail.ClientID)
	}
}

func TestLoad_MissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() with absent file error: %v", err)
	}
	if cfg.Port != 8137 {
		t.Errorf("Port = %d, want default when file absent", cfg.Port)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`port = [not toml`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() with malformed file succeeded, want error")
	}
}
