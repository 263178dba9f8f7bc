// Package config provides configuration management for Mnemon.
// It loads settings from environment variables with the MNEMON_ prefix
// and provides sensible defaults for all configuration options.
//
// User settings (provider credentials, the fixtures toggle, the auto-cycle
// pause) are persisted to the settings table through the storage layer.
// LoadConfigFromStore reads persisted values first and falls back to
// environment variables. SaveConfig writes user settings back.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/scrypster/mnemon/internal/storage"
)

// Config holds all configuration settings for the Mnemon application.
// Server, Storage and Security are fixed after startup; the provider
// settings can change at runtime from the settings form and are only
// reachable through ProviderSettings / UpdateProviderSettings.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Security SecurityConfig

	mu        sync.RWMutex
	providers ProvidersConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 6373)
	Host string // Server host (default: 127.0.0.1)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory (default: ./data)
	PostgresURL   string // Connection string when StorageEngine is postgres
}

// ProvidersConfig contains external metadata provider configuration.
// Credentials are user settings: the persisted value takes precedence over
// the environment variable so they can be managed from the settings form.
type ProvidersConfig struct {
	// TmdbToken is the TMDB API read access token (movies and TV/anime).
	// Env var: MNEMON_TMDB_TOKEN. Settings key: tmdb_access_token.
	TmdbToken string

	// RawgKey is the RAWG API key (games).
	// Env var: MNEMON_RAWG_KEY. Settings key: rawg_api_key.
	RawgKey string

	// UseFixtures answers searches from the built-in fixture catalog
	// instead of the live providers.
	// Env var: MNEMON_USE_FIXTURES. Settings key: use_fixtures.
	UseFixtures bool

	// AutoCyclePaused persists the slideshow pause toggle.
	// Settings key: auto_cycle_paused.
	AutoCyclePaused bool
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // API authentication token
}

// ProviderSettings returns a consistent snapshot of the user settings.
func (c *Config) ProviderSettings() ProvidersConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.providers
}

// UpdateProviderSettings applies fn to the user settings under the lock.
// fn must not block.
func (c *Config) UpdateProviderSettings(fn func(*ProvidersConfig)) {
	c.mu.Lock()
	fn(&c.providers)
	c.mu.Unlock()
}

// HasTmdbCredential reports whether TMDB search can be attempted.
func (c *Config) HasTmdbCredential() bool {
	return c.ProviderSettings().TmdbToken != ""
}

// HasRawgCredential reports whether RAWG search can be attempted.
func (c *Config) HasRawgCredential() bool {
	return c.ProviderSettings().RawgKey != ""
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. Use LoadConfigFromStore to also read persisted user settings.
func LoadConfig() (*Config, error) {
	return buildBaseConfig(), nil
}

// LoadConfigFromStore loads configuration from both environment variables
// and the settings table. The persisted value takes precedence over the
// environment variable for user settings. Falls back to the environment when
// no entry exists.
//
// Returns an error if store is nil.
func LoadConfigFromStore(ctx context.Context, store storage.Store) (*Config, error) {
	if store == nil {
		return nil, errors.New("config: storage is required")
	}

	cfg := buildBaseConfig()

	for _, s := range []struct {
		key   string
		apply func(string)
	}{
		{"tmdb_access_token", func(v string) { cfg.providers.TmdbToken = v }},
		{"rawg_api_key", func(v string) { cfg.providers.RawgKey = v }},
		{"use_fixtures", func(v string) { cfg.providers.UseFixtures = v == "true" }},
		{"auto_cycle_paused", func(v string) { cfg.providers.AutoCyclePaused = v == "true" }},
	} {
		value, err := store.GetSetting(ctx, s.key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("config: failed to load %s: %w", s.key, err)
		}
		if value != "" {
			s.apply(value)
		}
	}

	return cfg, nil
}

// SaveConfig persists user configuration settings to the settings table.
// Uses upsert semantics so settings survive application restarts.
//
// Returns an error if store is nil.
func (c *Config) SaveConfig(ctx context.Context, store storage.Store) error {
	if store == nil {
		return errors.New("config: storage is required")
	}

	p := c.ProviderSettings()
	settings := map[string]string{
		"tmdb_access_token": p.TmdbToken,
		"rawg_api_key":      p.RawgKey,
		"use_fixtures":      strconv.FormatBool(p.UseFixtures),
		"auto_cycle_paused": strconv.FormatBool(p.AutoCyclePaused),
	}
	for key, value := range settings {
		if err := store.SetSetting(ctx, key, value); err != nil {
			return fmt.Errorf("config: failed to save %s: %w", key, err)
		}
	}
	return nil
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults. This is the shared base for LoadConfig and
// LoadConfigFromStore.
func buildBaseConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("MNEMON_PORT", 6373),
			Host: getEnv("MNEMON_HOST", "127.0.0.1"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("MNEMON_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("MNEMON_DATA_PATH", "./data"),
			PostgresURL:   getEnv("MNEMON_POSTGRES_URL", ""),
		},
		providers: ProvidersConfig{
			TmdbToken:   getEnv("MNEMON_TMDB_TOKEN", ""),
			RawgKey:     getEnv("MNEMON_RAWG_KEY", ""),
			UseFixtures: getEnvBool("MNEMON_USE_FIXTURES", false),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("MNEMON_SECURITY_MODE", "development"),
			APIToken:     getEnv("MNEMON_API_TOKEN", ""),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. Accepts the forms strconv.ParseBool accepts.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
