// Package config provides configuration management for Siaka.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/guilhermegouw/siaka/internal/gateway"
)

const appName = "siaka"

// Storage backends.
const (
	StorageSQLite = "sqlite"
	StorageFile   = "file"
)

// Defaults applied when the file leaves a field empty.
const (
	DefaultProvider   = catwalk.TypeGoogle
	DefaultLightModel = "gemini-2.5-flash"
	DefaultHeavyModel = "gemini-3-pro-preview"
	DefaultStorage    = StorageSQLite
)

// Environment variables read when no key is configured, in order.
var apiKeyEnvVars = []string{"GEMINI_API_KEY", "API_KEY"}

// ProviderConfig holds provider authentication and settings.
//
//nolint:govet // Field order is intentional for JSON readability.
type ProviderConfig struct {
	Type         catwalk.Type      `json:"type,omitempty"`
	APIKey       string            `json:"api_key,omitempty"`
	BaseURL      string            `json:"base_url,omitempty"`
	ExtraHeaders map[string]string `json:"extra_headers,omitempty"`
}

// ModelsConfig selects the model of each tier.
type ModelsConfig struct {
	Light string `json:"light,omitempty"`
	Heavy string `json:"heavy,omitempty"`
}

// Options holds optional configuration settings.
//
//nolint:govet // Field order is intentional for JSON readability.
type Options struct {
	DataDir   string `json:"data_directory,omitempty"`
	ExportDir string `json:"export_directory,omitempty"`
	Storage   string `json:"storage,omitempty"`
	Debug     bool   `json:"debug,omitempty"`
}

// Config is the top-level configuration structure.
//
//nolint:govet // Field order is intentional for JSON readability.
type Config struct {
	Provider        ProviderConfig `json:"provider"`
	Models          ModelsConfig   `json:"models"`
	ThinkingBudget  int64          `json:"thinking_budget,omitempty"`
	ReasoningEffort string         `json:"reasoning_effort,omitempty"`
	MaxOutputTokens int64          `json:"max_output_tokens,omitempty"`
	Options         *Options       `json:"options,omitempty"`

	// keySource names where the resolved API key came from.
	keySource string
	rawAPIKey string
	path      string
}

// NewConfig creates a Config with every default applied.
func NewConfig() *Config {
	cfg := &Config{Options: &Options{}}
	applyDefaults(cfg)
	return cfg
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// HasAPIKey reports whether a key was found in the file or the environment.
func (c *Config) HasAPIKey() bool {
	return c.Provider.APIKey != ""
}

// KeySource describes where the API key came from: "config", an
// environment variable name, or "" when there is none.
func (c *Config) KeySource() string {
	return c.keySource
}

// DataDir returns the data directory path from configuration.
func (c *Config) DataDir() string {
	if c.Options != nil && c.Options.DataDir != "" {
		return c.Options.DataDir
	}
	return filepath.Join(xdg.DataHome, appName)
}

// ExportDir returns where transcripts are written when they cannot be shared.
func (c *Config) ExportDir() string {
	if c.Options != nil && c.Options.ExportDir != "" {
		return c.Options.ExportDir
	}
	if xdg.UserDirs.Download != "" {
		return xdg.UserDirs.Download
	}
	return "."
}

// Storage returns the storage backend name.
func (c *Config) Storage() string {
	if c.Options != nil && c.Options.Storage != "" {
		return c.Options.Storage
	}
	return DefaultStorage
}

// DebugLogPath returns the debug log location.
func (c *Config) DebugLogPath() string {
	return filepath.Join(c.DataDir(), "debug.log")
}

// Gateway returns the gateway settings described by c.
func (c *Config) Gateway() gateway.Config {
	return gateway.Config{
		Provider:        c.Provider.Type,
		APIKey:          c.Provider.APIKey,
		BaseURL:         c.Provider.BaseURL,
		Headers:         c.Provider.ExtraHeaders,
		LightModel:      c.Models.Light,
		HeavyModel:      c.Models.Heavy,
		ThinkingBudget:  c.ThinkingBudget,
		ReasoningEffort: c.ReasoningEffort,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

// GlobalConfigPath returns the path to the global configuration file.
func GlobalConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// SetConfigField updates a single field in the global config file.
func SetConfigField(key string, value any) error {
	return SetConfigFieldAt(GlobalConfigPath(), key, value)
}

// SetConfigFieldAt updates a single field of the config file at path using
// JSON path notation. Only that field is modified; the rest of the file,
// including unresolved $VAR references, is kept as written.
func SetConfigFieldAt(path, key string, value any) error {
	//nolint:gosec // G304: path is a config location, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("reading config file: %w", err)
		}
		data = []byte("{}")
	}

	newData, err := sjson.SetBytes(data, key, value)
	if err != nil {
		return fmt.Errorf("setting config field %q: %w", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	//nolint:gosec // 0o600 is intentionally restrictive for security.
	if err := os.WriteFile(path, newData, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// GetConfigField reads a raw field of the config file at path. The value
// is returned as written, before environment resolution.
func GetConfigField(path, key string) (string, bool, error) {
	//nolint:gosec // G304: path is a config location, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading config file: %w", err)
	}
	res := gjson.GetBytes(data, key)
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}
