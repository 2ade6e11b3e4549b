package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Save writes cfg to the global config file.
func Save(cfg *Config) error {
	return SaveToFile(cfg, GlobalConfigPath())
}

// SaveToFile writes the configuration to a specific file path. The key is
// written as it was read, so "$VAR" references stay unresolved, and a key
// that only came from the environment is not written at all.
func SaveToFile(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	out := *cfg
	switch {
	case cfg.rawAPIKey != "":
		out.Provider.APIKey = cfg.rawAPIKey
	case cfg.keySource != "" && cfg.keySource != "config":
		out.Provider.APIKey = ""
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil { //nolint:gosec // Restrictive permissions for security.
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SetAPIKey stores key in the config file at path. key may be a literal
// or an environment reference such as "$GEMINI_API_KEY".
func SetAPIKey(path, key string) error {
	return SetConfigFieldAt(path, "provider.api_key", key)
}
