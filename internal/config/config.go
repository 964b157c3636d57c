// Package config loads and stores portal configuration in the XDG config dir.
// Only non-secret settings are kept here; the session token goes to the token store.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"

	"parentportal/cli/internal/manifest"
	"parentportal/cli/internal/xdg"
)

// Storage backends accepted by StorageConfig.Backend.
const (
	StorageKeychain = "keychain"
	StorageFile     = "file"
	StorageMemory   = "memory"
)

// Backend transports accepted by Config.Transport.
const (
	TransportHTTP = "http"
	TransportGRPC = "grpc"
)

// Config holds non-sensitive portal settings.
type Config struct {
	BaseURL        string                 `json:"base_url"`
	Transport      string                 `json:"transport"`
	GRPCAddr       string                 `json:"grpc_addr"`
	GRPCInsecure   bool                   `json:"grpc_insecure"`
	Listen         string                 `json:"listen"`
	Language       string                 `json:"language"`
	LogLevel       string                 `json:"log_level"`
	RequestTimeout string                 `json:"request_timeout"`
	Storage        StorageConfig          `json:"storage"`
	Endpoints      manifest.HTTPEndpoints `json:"endpoints"`
	RemoteManifest bool                   `json:"remote_manifest"`
}

// StorageConfig selects where the session token is persisted.
type StorageConfig struct {
	Backend string `json:"backend"`
	// Path is the bbolt file used by the "file" backend. Empty means
	// tokens.db in the XDG data dir.
	Path string `json:"path"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:        "https://portal.example.org",
		Transport:      TransportHTTP,
		Listen:         "127.0.0.1:8787",
		Language:       "en",
		LogLevel:       "info",
		RequestTimeout: "10s",
		Storage:        StorageConfig{Backend: StorageKeychain},
		Endpoints:      manifest.DefaultHTTPEndpoints(),
	}
}

// DefaultPath returns the path to the config file in the XDG config dir.
func DefaultPath() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration from p (or the default path when p is empty),
// applies PORTAL_* environment overrides and validates the result.
// A missing file yields defaults.
func Load(p string) (Config, error) {
	c := Default()
	if p == "" {
		var err error
		if p, err = DefaultPath(); err != nil {
			return c, err
		}
	}
	data, err := os.ReadFile(p)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return c, err
	default:
		if err := json.Unmarshal(data, &c); err != nil {
			return c, fmt.Errorf("parse %s: %w", p, err)
		}
	}
	c.Endpoints = c.Endpoints.WithDefaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(p string, c Config) error {
	if p == "" {
		var err error
		if p, err = DefaultPath(); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORTAL_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("PORTAL_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := os.Getenv("PORTAL_GRPC_ADDR"); v != "" {
		c.GRPCAddr = v
	}
	if v := os.Getenv("PORTAL_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := os.Getenv("PORTAL_LANGUAGE"); v != "" {
		c.Language = v
	}
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("PORTAL_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
}

// Validate checks enumerations and parseable values.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportHTTP:
		if strings.TrimSpace(c.BaseURL) == "" {
			return errors.New("config: base_url is required for the http transport")
		}
	case TransportGRPC:
		if strings.TrimSpace(c.GRPCAddr) == "" {
			return errors.New("config: grpc_addr is required for the grpc transport")
		}
	default:
		return fmt.Errorf("config: unknown transport %q", c.Transport)
	}
	switch c.Storage.Backend {
	case StorageKeychain, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}
	if _, err := language.Parse(c.Language); err != nil {
		return fmt.Errorf("config: language: %w", err)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("config: request_timeout: %w", err)
	}
	return nil
}

// LanguageTag returns the configured UI language, defaulting to English.
func (c Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}

// Timeout returns the per-request timeout for backend calls.
func (c Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.RequestTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// TokenDBPath returns the bbolt file used by the file storage backend.
func (c Config) TokenDBPath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := xdg.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tokens.db"), nil
}
