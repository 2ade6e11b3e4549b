// Package provider builds fantasy language models for each model tier.
package provider

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/google"
	"charm.land/fantasy/providers/openai"

	"github.com/guilhermegouw/siaka/internal/subject"
)

// Settings selects the provider and the model used for each tier.
type Settings struct {
	Type       catwalk.Type
	APIKey     string
	BaseURL    string
	Headers    map[string]string
	LightModel string
	HeavyModel string
}

// ModelID returns the configured model for tier.
func (s Settings) ModelID(tier subject.Tier) string {
	if tier == subject.TierHeavy {
		return s.HeavyModel
	}
	return s.LightModel
}

// Model wraps a fantasy language model with its metadata.
type Model struct {
	// LM is the fantasy language model interface.
	LM fantasy.LanguageModel
	// Info holds the model metadata from the catalog, zero when unknown.
	Info catwalk.Model
	// Type is the provider type the model came from.
	Type catwalk.Type
	// Tier is the capability class the model serves.
	Tier subject.Tier
}

// ID returns the model identifier.
func (m Model) ID() string {
	if m.LM != nil {
		return m.LM.Model()
	}
	return m.Info.ID
}

// Models holds one model per tier.
type Models struct {
	Light Model
	Heavy Model
}

// For returns the model serving tier.
func (m Models) For(tier subject.Tier) Model {
	if tier == subject.TierHeavy {
		return m.Heavy
	}
	return m.Light
}

// Builder creates fantasy providers and models from settings. Built models
// are cached; building does not touch the network.
type Builder struct {
	settings Settings
	mu       sync.Mutex
	provider fantasy.Provider
	models   map[subject.Tier]Model
}

// NewBuilder creates a new provider Builder.
func NewBuilder(settings Settings) *Builder {
	if settings.Type == "" {
		settings.Type = catwalk.TypeGoogle
	}
	return &Builder{
		settings: settings,
		models:   make(map[subject.Tier]Model),
	}
}

// Settings returns the settings the builder was created with.
func (b *Builder) Settings() Settings {
	return b.settings
}

// BuildModels creates the light and heavy models.
func (b *Builder) BuildModels(ctx context.Context) (Models, error) {
	light, err := b.Model(ctx, subject.TierLight)
	if err != nil {
		return Models{}, fmt.Errorf("building light model: %w", err)
	}
	heavy, err := b.Model(ctx, subject.TierHeavy)
	if err != nil {
		return Models{}, fmt.Errorf("building heavy model: %w", err)
	}
	return Models{Light: light, Heavy: heavy}, nil
}

// Model returns the model for tier, building it on first use.
func (b *Builder) Model(ctx context.Context, tier subject.Tier) (Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if m, ok := b.models[tier]; ok {
		return m, nil
	}

	id := b.settings.ModelID(tier)
	if id == "" {
		return Model{}, fmt.Errorf("no %s model configured", tier)
	}

	p, err := b.getOrBuildProvider()
	if err != nil {
		return Model{}, err
	}
	lm, err := p.LanguageModel(ctx, id)
	if err != nil {
		return Model{}, fmt.Errorf("getting language model %q: %w", id, err)
	}

	info, _ := Lookup(b.settings.Type, id)
	m := Model{
		LM:   lm,
		Info: info,
		Type: b.settings.Type,
		Tier: tier,
	}
	b.models[tier] = m
	return m, nil
}

func (b *Builder) getOrBuildProvider() (fantasy.Provider, error) {
	if b.provider != nil {
		return b.provider, nil
	}
	p, err := b.buildProvider()
	if err != nil {
		return nil, err
	}
	b.provider = p
	return p, nil
}

// buildProvider creates a fantasy provider from the settings.
func (b *Builder) buildProvider() (fantasy.Provider, error) {
	headers := maps.Clone(b.settings.Headers)
	apiKey := b.settings.APIKey
	baseURL := b.settings.BaseURL

	//nolint:exhaustive // Only the providers below are supported.
	switch b.settings.Type {
	case catwalk.TypeGoogle:
		return buildGoogleProvider(baseURL, apiKey, headers)
	case catwalk.TypeOpenAI, catwalk.TypeOpenAICompat:
		return buildOpenAIProvider(baseURL, apiKey, headers)
	case catwalk.TypeAnthropic:
		return buildAnthropicProvider(baseURL, apiKey, headers)
	default:
		return nil, fmt.Errorf("unsupported provider type: %q", b.settings.Type)
	}
}

func buildGoogleProvider(baseURL, apiKey string, headers map[string]string) (fantasy.Provider, error) {
	opts := []google.Option{google.WithGeminiAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, google.WithBaseURL(baseURL))
	}
	if len(headers) > 0 {
		opts = append(opts, google.WithHeaders(headers))
	}
	return google.New(opts...)
}

func buildOpenAIProvider(baseURL, apiKey string, headers map[string]string) (fantasy.Provider, error) {
	var opts []openai.Option
	if apiKey != "" {
		opts = append(opts, openai.WithAPIKey(apiKey))
	}
	if len(headers) > 0 {
		opts = append(opts, openai.WithHeaders(headers))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	return openai.New(opts...)
}

func buildAnthropicProvider(baseURL, apiKey string, headers map[string]string) (fantasy.Provider, error) {
	var opts []anthropic.Option
	if apiKey != "" {
		opts = append(opts, anthropic.WithAPIKey(apiKey))
	}
	if len(headers) > 0 {
		opts = append(opts, anthropic.WithHeaders(headers))
	}
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}
	return anthropic.New(opts...)
}
