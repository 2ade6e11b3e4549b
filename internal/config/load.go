package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/gateway"
	"github.com/guilhermegouw/siaka/internal/provider"
)

const configFileName = "siaka.json"

// Load reads the global config file. A missing file is not an error: the
// defaults and the environment are used instead.
func Load() (*Config, error) {
	return LoadFromFile(GlobalConfigPath())
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return loadWith(path, NewResolver())
}

func loadWith(path string, resolver *Resolver) (*Config, error) {
	cfg := &Config{path: path}
	if err := loadFile(path, cfg); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := resolveValues(cfg, resolver); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	//nolint:gosec // G304: Path is from trusted config locations, not user input.
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

// resolveValues expands $VAR references and falls back to the environment
// for a missing API key. A key referencing an unset variable counts as
// missing so the gateway can report it.
func resolveValues(cfg *Config, resolver *Resolver) error {
	cfg.rawAPIKey = cfg.Provider.APIKey
	if cfg.Provider.APIKey != "" {
		key, err := resolver.Resolve(cfg.Provider.APIKey)
		if err != nil {
			debug.Error("config", err, "resolving provider.api_key")
		}
		cfg.Provider.APIKey = key
		if key != "" {
			cfg.keySource = "config"
		}
	}
	if cfg.Provider.APIKey == "" {
		for _, name := range apiKeyEnvVars {
			if v := resolver.Lookup(name); v != "" {
				cfg.Provider.APIKey = v
				cfg.keySource = name
				break
			}
		}
	}

	if cfg.Provider.BaseURL != "" {
		u, err := resolver.Resolve(cfg.Provider.BaseURL)
		if err != nil {
			return fmt.Errorf("resolving provider.base_url: %w", err)
		}
		cfg.Provider.BaseURL = u
	}
	for k, v := range cfg.Provider.ExtraHeaders {
		resolved, err := resolver.Resolve(v)
		if err != nil {
			return fmt.Errorf("resolving header %s: %w", k, err)
		}
		cfg.Provider.ExtraHeaders[k] = resolved
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Options == nil {
		cfg.Options = &Options{}
	}
	if cfg.Provider.Type == "" {
		cfg.Provider.Type = DefaultProvider
	}
	if cfg.Provider.Type == DefaultProvider {
		if cfg.Models.Light == "" {
			cfg.Models.Light = DefaultLightModel
		}
		if cfg.Models.Heavy == "" {
			cfg.Models.Heavy = DefaultHeavyModel
		}
	} else if tpl, ok := provider.TemplateFor(cfg.Provider.Type); ok {
		if cfg.Models.Light == "" {
			cfg.Models.Light = tpl.LightModelID
		}
		if cfg.Models.Heavy == "" {
			cfg.Models.Heavy = tpl.HeavyModelID
		}
	}
	if cfg.ThinkingBudget == 0 {
		cfg.ThinkingBudget = gateway.DefaultThinkingBudget
	}
	if cfg.Options.Storage == "" {
		cfg.Options.Storage = DefaultStorage
	}
	if cfg.Options.DataDir == "" {
		cfg.Options.DataDir = cfg.DataDir()
	}
}
