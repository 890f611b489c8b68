package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL = "http://localhost:5000/api"
	DefaultListenAddr = ":5000"
	DefaultAPIPrefix  = "/api"
	fileName          = "config.yaml"
)

// Config is resolved once at startup and treated as immutable afterwards.
type Config struct {
	DataDir        string
	APIBaseURL     string
	CredentialPath string
	LogPath        string
	LogLevel       string
	ExportDir      string
	Server         ServerConfig
}

type ServerConfig struct {
	ListenAddr string
	Prefix     string
	DBPath     string
}

// fileConfig mirrors config.yaml. Empty fields keep the defaults.
type fileConfig struct {
	API struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"api"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	ExportDir string `yaml:"export_dir"`
	Server    struct {
		Listen string `yaml:"listen"`
		Prefix string `yaml:"prefix"`
		DB     string `yaml:"db"`
	} `yaml:"server"`
}

// New resolves configuration for dataDir: defaults, then config.yaml inside
// dataDir, then a .env file in the working directory, then STUDYHUB_*
// environment variables.
func New(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Config{
		DataDir:        dataDir,
		APIBaseURL:     DefaultAPIBaseURL,
		CredentialPath: filepath.Join(dataDir, "session.json"),
		LogPath:        filepath.Join(dataDir, "studyhub.log"),
		LogLevel:       "info",
		ExportDir:      filepath.Join(dataDir, "notes"),
		Server: ServerConfig{
			ListenAddr: DefaultListenAddr,
			Prefix:     DefaultAPIPrefix,
			DBPath:     filepath.Join(dataDir, "server.db"),
		},
	}

	if err := cfg.mergeFile(filepath.Join(dataDir, fileName)); err != nil {
		return Config{}, err
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg.mergeEnv()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	setIfNotEmpty(&c.APIBaseURL, fc.API.BaseURL)
	setIfNotEmpty(&c.LogLevel, fc.Log.Level)
	setIfNotEmpty(&c.ExportDir, fc.ExportDir)
	setIfNotEmpty(&c.Server.ListenAddr, fc.Server.Listen)
	setIfNotEmpty(&c.Server.Prefix, fc.Server.Prefix)
	setIfNotEmpty(&c.Server.DBPath, fc.Server.DB)
	return nil
}

func (c *Config) mergeEnv() {
	setIfNotEmpty(&c.APIBaseURL, os.Getenv("STUDYHUB_API_URL"))
	setIfNotEmpty(&c.LogLevel, os.Getenv("STUDYHUB_LOG_LEVEL"))
	setIfNotEmpty(&c.ExportDir, os.Getenv("STUDYHUB_EXPORT_DIR"))
	setIfNotEmpty(&c.Server.ListenAddr, os.Getenv("STUDYHUB_LISTEN"))
	setIfNotEmpty(&c.Server.Prefix, os.Getenv("STUDYHUB_API_PREFIX"))
	setIfNotEmpty(&c.Server.DBPath, os.Getenv("STUDYHUB_DB"))
}

func setIfNotEmpty(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

// DefaultDataDir returns the per-user directory used when --data-dir is unset.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "studyhub")
	}
	return ".studyhub"
}
