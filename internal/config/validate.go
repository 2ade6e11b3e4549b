package config

import (
	"fmt"
	"net/url"

	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"github.com/guilhermegouw/siaka/internal/provider"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationWarning represents a validation warning (non-fatal).
type ValidationWarning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (vw ValidationWarning) String() string {
	return fmt.Sprintf("%s: %s", vw.Field, vw.Message)
}

// ValidationResult holds the result of validating a configuration.
type ValidationResult struct {
	IsValid  bool                `json:"is_valid"`
	Errors   []ValidationError   `json:"errors,omitempty"`
	Warnings []ValidationWarning `json:"warnings,omitempty"`
}

func (vr *ValidationResult) fail(field, format string, args ...any) {
	vr.IsValid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (vr *ValidationResult) warn(field, format string, args ...any) {
	vr.Warnings = append(vr.Warnings, ValidationWarning{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a loaded configuration. A missing key is only a warning:
// the application still starts and the gateway reports it on the first
// send.
func Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{IsValid: true}

	typ := cfg.Provider.Type
	if !provider.Supported(typ) {
		result.fail("provider.type", "unsupported provider type %q, must be one of: google, openai, anthropic, openai-compat", typ)
	}

	if cfg.Provider.BaseURL != "" {
		if err := validateURL(cfg.Provider.BaseURL); err != nil {
			result.fail("provider.base_url", "%s", err.Error())
		}
	} else if typ == catwalk.TypeOpenAICompat {
		result.fail("provider.base_url", "base URL is required for openai-compat providers")
	}

	if !cfg.HasAPIKey() {
		result.warn("provider.api_key", "no API key configured (set provider.api_key or GEMINI_API_KEY)")
	}

	tiers := []struct{ field, id string }{
		{"models.light", cfg.Models.Light},
		{"models.heavy", cfg.Models.Heavy},
	}
	for _, tier := range tiers {
		field, id := tier.field, tier.id
		switch {
		case id == "":
			result.fail(field, "model ID is required")
		case typ != catwalk.TypeOpenAICompat:
			if _, ok := provider.Lookup(typ, id); !ok {
				result.warn(field, "model %q is not in the %s catalog", id, typ)
			}
		}
	}

	if cfg.ThinkingBudget < 0 {
		result.fail("thinking_budget", "must not be negative")
	}
	if cfg.MaxOutputTokens < 0 {
		result.fail("max_output_tokens", "must not be negative")
	}
	switch cfg.Storage() {
	case StorageSQLite, StorageFile:
	default:
		result.fail("options.storage", "unknown storage %q, must be sqlite or file", cfg.Storage())
	}

	return result
}

// validateURL validates that a string is a valid URL.
func validateURL(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme == "" {
		return fmt.Errorf("URL must include a scheme (http:// or https://)")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// Error returns a combined error message from all validation errors.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	msg := "validation failed:"
	for _, err := range vr.Errors {
		msg += "\n  - " + err.Error()
	}
	return fmt.Errorf("%s", msg)
}

// WarningStrings returns all warnings as strings.
func (vr *ValidationResult) WarningStrings() []string {
	warnings := make([]string, len(vr.Warnings))
	for i, w := range vr.Warnings {
		warnings[i] = w.String()
	}
	return warnings
}
