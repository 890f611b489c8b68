package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"studyhub/internal/platform/config"
)

func TestNewRequiresDataDir(t *testing.T) {
	if _, err := config.New(""); err == nil {
		t.Fatalf("expected error for empty data dir")
	}
}

func TestNewDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STUDYHUB_API_URL", "")
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.APIBaseURL != config.DefaultAPIBaseURL {
		t.Fatalf("unexpected api url %q", cfg.APIBaseURL)
	}
	if cfg.CredentialPath != filepath.Join(dir, "session.json") {
		t.Fatalf("unexpected credential path %q", cfg.CredentialPath)
	}
	if cfg.Server.Prefix != "/api" {
		t.Fatalf("unexpected prefix %q", cfg.Server.Prefix)
	}
}

func TestFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	yaml := "api:\n  base_url: http://file.example/api\nserver:\n  listen: \":7000\"\n  prefix: /v1\nlog:\n  level: debug\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STUDYHUB_API_URL", "http://env.example/api")
	cfg, err := config.New(dir)
	if err != nil {
		t.Fatalf("new config: %v", err)
	}
	if cfg.APIBaseURL != "http://env.example/api" {
		t.Fatalf("env should win over file, got %q", cfg.APIBaseURL)
	}
	if cfg.Server.ListenAddr != ":7000" || cfg.Server.Prefix != "/v1" {
		t.Fatalf("file values not applied: %+v", cfg.Server)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %q", cfg.LogLevel)
	}
}

func TestInvalidYAMLFails(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("api: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.New(dir); err == nil {
		t.Fatalf("expected decode error")
	}
}
