package provider

import (
	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/google"
	"charm.land/fantasy/providers/openai"

	"github.com/guilhermegouw/siaka/internal/debug"
)

// Reasoning is the effort hint attached to heavy-tier requests.
type Reasoning struct {
	// Budget is the thinking token budget (Google, Anthropic).
	Budget int64
	// Effort is the reasoning effort level (OpenAI).
	Effort string
}

// ProviderOptions converts the hint into the options of provider type t.
// It returns nil when there is nothing to send.
func (r Reasoning) ProviderOptions(t catwalk.Type) fantasy.ProviderOptions {
	//nolint:exhaustive // Other providers take no hint.
	switch t {
	case catwalk.TypeGoogle:
		if r.Budget <= 0 {
			return nil
		}
		parsed, err := google.ParseOptions(map[string]any{
			"thinking_config": map[string]any{"thinking_budget": r.Budget},
		})
		if err != nil {
			debug.Error("provider", err, "building google thinking options")
			return nil
		}
		return fantasy.ProviderOptions{google.Name: parsed}
	case catwalk.TypeAnthropic:
		if r.Budget <= 0 {
			return nil
		}
		parsed, err := anthropic.ParseOptions(map[string]any{
			"thinking": map[string]any{"budget_tokens": r.Budget},
		})
		if err != nil {
			debug.Error("provider", err, "building anthropic thinking options")
			return nil
		}
		return fantasy.ProviderOptions{anthropic.Name: parsed}
	case catwalk.TypeOpenAI:
		if r.Effort == "" {
			return nil
		}
		parsed, err := openai.ParseOptions(map[string]any{"reasoning_effort": r.Effort})
		if err != nil {
			debug.Error("provider", err, "building openai reasoning options")
			return nil
		}
		return fantasy.ProviderOptions{openai.Name: parsed}
	default:
		return nil
	}
}
