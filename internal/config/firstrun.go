package config

import "os"

// IsFirstRun reports whether no global config file exists yet.
func IsFirstRun() bool {
	return IsFirstRunAt(GlobalConfigPath())
}

// IsFirstRunAt reports whether no config file exists at path.
func IsFirstRunAt(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

// NeedsSetup reports whether cfg lacks what a turn needs: an API key and
// a model for each tier.
func NeedsSetup(cfg *Config) bool {
	if cfg == nil {
		return true
	}
	return !cfg.HasAPIKey() || cfg.Models.Light == "" || cfg.Models.Heavy == ""
}
