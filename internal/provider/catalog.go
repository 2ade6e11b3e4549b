package provider

import (
	"slices"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
)

// Template is the built-in description of a supported provider type.
type Template struct {
	Name         string
	Type         catwalk.Type
	APIEndpoint  string
	LightModelID string
	HeavyModelID string
	Models       []catwalk.Model
}

var templates = []Template{
	{
		Name:         "Google Gemini",
		Type:         catwalk.TypeGoogle,
		APIEndpoint:  "https://generativelanguage.googleapis.com",
		LightModelID: "gemini-2.5-flash",
		HeavyModelID: "gemini-3-pro-preview",
		Models: []catwalk.Model{
			{
				ID:               "gemini-2.5-flash",
				Name:             "Gemini 2.5 Flash",
				ContextWindow:    1048576,
				DefaultMaxTokens: 65536,
				CanReason:        true,
				SupportsImages:   true,
			},
			{
				ID:               "gemini-3-pro-preview",
				Name:             "Gemini 3 Pro (preview)",
				ContextWindow:    1048576,
				DefaultMaxTokens: 65536,
				CanReason:        true,
				SupportsImages:   true,
			},
			{
				ID:               "gemini-2.5-pro",
				Name:             "Gemini 2.5 Pro",
				ContextWindow:    1048576,
				DefaultMaxTokens: 65536,
				CanReason:        true,
				SupportsImages:   true,
			},
		},
	},
	{
		Name:         "OpenAI",
		Type:         catwalk.TypeOpenAI,
		APIEndpoint:  "https://api.openai.com/v1",
		LightModelID: "gpt-4o-mini",
		HeavyModelID: "gpt-4o",
		Models: []catwalk.Model{
			{
				ID:               "gpt-4o-mini",
				Name:             "GPT-4o mini",
				ContextWindow:    128000,
				DefaultMaxTokens: 16384,
				SupportsImages:   true,
			},
			{
				ID:               "gpt-4o",
				Name:             "GPT-4o",
				ContextWindow:    128000,
				DefaultMaxTokens: 16384,
				SupportsImages:   true,
			},
		},
	},
	{
		Name:         "Anthropic",
		Type:         catwalk.TypeAnthropic,
		APIEndpoint:  "https://api.anthropic.com",
		LightModelID: "claude-3-5-haiku-latest",
		HeavyModelID: "claude-sonnet-4-5",
		Models: []catwalk.Model{
			{
				ID:               "claude-3-5-haiku-latest",
				Name:             "Claude 3.5 Haiku",
				ContextWindow:    200000,
				DefaultMaxTokens: 8192,
				SupportsImages:   true,
			},
			{
				ID:               "claude-sonnet-4-5",
				Name:             "Claude Sonnet 4.5",
				ContextWindow:    200000,
				DefaultMaxTokens: 64000,
				CanReason:        true,
				SupportsImages:   true,
			},
		},
	},
	{
		Name:        "OpenAI-compatible",
		Type:        catwalk.TypeOpenAICompat,
		APIEndpoint: "http://localhost:11434/v1",
	},
}

// Templates returns the supported provider types.
func Templates() []Template {
	return slices.Clone(templates)
}

// TemplateFor returns the template of provider type t.
func TemplateFor(t catwalk.Type) (Template, bool) {
	for _, tpl := range templates {
		if tpl.Type == t {
			return tpl, true
		}
	}
	return Template{}, false
}

// Supported reports whether t can be built.
func Supported(t catwalk.Type) bool {
	_, ok := TemplateFor(t)
	return ok
}

// Lookup finds the catalog entry of a model.
func Lookup(t catwalk.Type, modelID string) (catwalk.Model, bool) {
	tpl, ok := TemplateFor(t)
	if !ok {
		return catwalk.Model{}, false
	}
	for _, m := range tpl.Models {
		if m.ID == modelID {
			return m, true
		}
	}
	return catwalk.Model{}, false
}
