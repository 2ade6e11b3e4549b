// Package gateway turns a conversation into a streaming request against the
// configured language model and reports the answer as it grows.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/catwalk/pkg/catwalk"

	"charm.land/fantasy"

	"github.com/guilhermegouw/siaka/internal/debug"
	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/provider"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// DefaultThinkingBudget is the reasoning budget of heavy-tier requests.
const DefaultThinkingBudget = 4096

// ErrEmptyResponse is returned when a stream ends without any text.
var ErrEmptyResponse = errors.New("model returned an empty answer")

// Config is everything the gateway needs, validated by New.
type Config struct {
	Provider        catwalk.Type
	APIKey          string
	BaseURL         string
	Headers         map[string]string
	LightModel      string
	HeavyModel      string
	ThinkingBudget  int64
	ReasoningEffort string
	MaxOutputTokens int64
}

// Validate reports configuration problems before any network use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return &Error{Kind: KindConfiguration, Message: MissingKeyMessage}
	}
	if c.Provider != "" && !provider.Supported(c.Provider) {
		return &Error{Kind: KindConfiguration, Message: fmt.Sprintf("fournisseur inconnu : %s", c.Provider)}
	}
	if strings.TrimSpace(c.LightModel) == "" || strings.TrimSpace(c.HeavyModel) == "" {
		return &Error{Kind: KindConfiguration, Message: "ERREUR CONFIGURATION : modèle non défini."}
	}
	return nil
}

func (c Config) settings() provider.Settings {
	return provider.Settings{
		Type:       c.Provider,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Headers:    c.Headers,
		LightModel: c.LightModel,
		HeavyModel: c.HeavyModel,
	}
}

// ModelSource hands out the model serving a tier.
type ModelSource interface {
	Model(ctx context.Context, tier subject.Tier) (provider.Model, error)
}

// Request is one turn to answer.
type Request struct {
	// History holds the prior turns, oldest first.
	History []message.Message
	// Text and Images make up the new user turn.
	Text    string
	Images  []message.Image
	Subject subject.Subject
}

// Gateway streams answers from the configured provider. It holds no
// conversation state.
type Gateway struct {
	cfg    Config
	models ModelSource
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithModelSource replaces the provider builder.
func WithModelSource(src ModelSource) Option {
	return func(g *Gateway) {
		g.models = src
	}
}

// New validates cfg and creates a gateway.
func New(cfg Config, opts ...Option) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Provider == "" {
		cfg.Provider = catwalk.TypeGoogle
	}
	g := &Gateway{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	if g.models == nil {
		g.models = provider.NewBuilder(cfg.settings())
	}
	return g, nil
}

// Config returns the validated configuration.
func (g *Gateway) Config() Config {
	return g.cfg
}

// ModelID returns the model that answers questions about s.
func (g *Gateway) ModelID(s subject.Subject) string {
	return g.cfg.settings().ModelID(s.Tier())
}

// Stream sends req and calls onChunk with the full answer so far every time
// more text arrives. The returned text equals the last value passed to
// onChunk. Failures are *Error values; nothing is retried.
func (g *Gateway) Stream(ctx context.Context, req Request, onChunk func(text string)) (string, error) {
	tier := req.Subject.Tier()
	model, err := g.models.Model(ctx, tier)
	if err != nil {
		return "", &Error{Kind: KindConfiguration, Message: "modèle indisponible", Err: err}
	}

	call := fantasy.Call{
		Prompt: BuildPrompt(req),
	}
	if maxTokens := g.maxOutputTokens(model); maxTokens > 0 {
		call.MaxOutputTokens = &maxTokens
	}
	if tier == subject.TierHeavy {
		call.ProviderOptions = g.reasoning().ProviderOptions(model.Type)
	}

	debug.Event("gateway", "stream", fmt.Sprintf("subject=%s tier=%s model=%s history=%d images=%d",
		req.Subject, tier, model.ID(), len(req.History), len(req.Images)))

	stream, err := model.LM.Stream(ctx, call)
	if err != nil {
		gwErr := classify(err)
		debug.Error("gateway", gwErr, "starting stream")
		return "", gwErr
	}

	var text strings.Builder
	var streamErr error
	for part := range stream {
		switch part.Type {
		case fantasy.StreamPartTypeTextDelta:
			if part.Delta == "" {
				continue
			}
			text.WriteString(part.Delta)
			if onChunk != nil {
				onChunk(text.String())
			}
		case fantasy.StreamPartTypeError:
			streamErr = part.Error
			if streamErr == nil {
				streamErr = errors.New("stream failed")
			}
		}
		if streamErr != nil {
			break
		}
	}

	if streamErr != nil {
		gwErr := classify(streamErr)
		debug.Error("gateway", gwErr, "streaming")
		return "", gwErr
	}
	if err := ctx.Err(); err != nil {
		return "", classify(err)
	}
	if text.Len() == 0 {
		return "", &Error{Kind: KindUpstream, Err: ErrEmptyResponse}
	}
	return text.String(), nil
}

// defaultAnthropicMaxTokens is used when nothing else is known: the
// Anthropic API rejects requests without a limit.
const defaultAnthropicMaxTokens = 8192

func (g *Gateway) maxOutputTokens(model provider.Model) int64 {
	if g.cfg.MaxOutputTokens > 0 {
		return g.cfg.MaxOutputTokens
	}
	if model.Type != catwalk.TypeAnthropic {
		return 0
	}
	if model.Info.DefaultMaxTokens > 0 {
		return model.Info.DefaultMaxTokens
	}
	return defaultAnthropicMaxTokens
}

func (g *Gateway) reasoning() provider.Reasoning {
	return provider.Reasoning{
		Budget: g.cfg.ThinkingBudget,
		Effort: g.cfg.ReasoningEffort,
	}
}

// BuildPrompt lays out the request: the subject's system prompt, then the
// usable history, then the new user turn. Error-flagged and still-empty
// model messages are left out. Images come before the text of their turn,
// in the order they were attached.
func BuildPrompt(req Request) fantasy.Prompt {
	prompt := make(fantasy.Prompt, 0, len(req.History)+2)
	prompt = append(prompt, fantasy.NewSystemMessage(req.Subject.SystemPrompt()))

	for _, m := range req.History {
		if m.IsError {
			continue
		}
		switch m.Role {
		case message.RoleUser:
			if m.Text == "" && len(m.Images) == 0 {
				continue
			}
			prompt = append(prompt, userMessage(m.Text, m.Images))
		case message.RoleModel:
			if m.Text == "" {
				continue
			}
			prompt = append(prompt, fantasy.Message{
				Role:    fantasy.MessageRoleAssistant,
				Content: []fantasy.MessagePart{fantasy.TextPart{Text: m.Text}},
			})
		}
	}

	return append(prompt, userMessage(req.Text, req.Images))
}

func userMessage(text string, images []message.Image) fantasy.Message {
	parts := make([]fantasy.MessagePart, 0, len(images)+1)
	for _, img := range images {
		data, err := img.Bytes()
		if err != nil {
			debug.Error("gateway", err, "skipping undecodable image")
			continue
		}
		parts = append(parts, fantasy.FilePart{Data: data, MediaType: img.MIMEType})
	}
	if text != "" || len(parts) == 0 {
		parts = append(parts, fantasy.TextPart{Text: text})
	}
	return fantasy.Message{Role: fantasy.MessageRoleUser, Content: parts}
}
