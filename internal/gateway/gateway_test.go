package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/catwalk/pkg/catwalk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charm.land/fantasy"
	"google.golang.org/genai"

	"github.com/guilhermegouw/siaka/internal/message"
	"github.com/guilhermegouw/siaka/internal/provider"
	"github.com/guilhermegouw/siaka/internal/subject"
)

// mockModel implements fantasy.LanguageModel for testing.
type mockModel struct {
	id         string
	parts      []fantasy.StreamPart
	streamErr  error
	calls      []fantasy.Call
	afterYield func()
}

func (m *mockModel) Generate(context.Context, fantasy.Call) (*fantasy.Response, error) {
	return &fantasy.Response{}, nil
}

func (m *mockModel) Stream(_ context.Context, call fantasy.Call) (fantasy.StreamResponse, error) {
	m.calls = append(m.calls, call)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	return func(yield func(fantasy.StreamPart) bool) {
		for _, p := range m.parts {
			if !yield(p) {
				return
			}
			if m.afterYield != nil {
				m.afterYield()
			}
		}
	}, nil
}

func (m *mockModel) GenerateObject(context.Context, fantasy.ObjectCall) (*fantasy.ObjectResponse, error) {
	return &fantasy.ObjectResponse{}, nil
}

func (m *mockModel) StreamObject(context.Context, fantasy.ObjectCall) (fantasy.ObjectStreamResponse, error) {
	return func(yield func(fantasy.ObjectStreamPart) bool) {}, nil
}

func (m *mockModel) Provider() string { return "mock" }
func (m *mockModel) Model() string    { return m.id }

var _ fantasy.LanguageModel = (*mockModel)(nil)

type mockSource struct {
	light, heavy *mockModel
	err          error
	typ          catwalk.Type
}

func (s *mockSource) Model(_ context.Context, tier subject.Tier) (provider.Model, error) {
	if s.err != nil {
		return provider.Model{}, s.err
	}
	lm := s.light
	if tier == subject.TierHeavy {
		lm = s.heavy
	}
	typ := s.typ
	if typ == "" {
		typ = catwalk.TypeGoogle
	}
	return provider.Model{LM: lm, Type: typ, Tier: tier}, nil
}

func textParts(deltas ...string) []fantasy.StreamPart {
	parts := []fantasy.StreamPart{{Type: fantasy.StreamPartTypeTextStart, ID: "0"}}
	for _, d := range deltas {
		parts = append(parts, fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, ID: "0", Delta: d})
	}
	return append(parts,
		fantasy.StreamPart{Type: fantasy.StreamPartTypeTextEnd, ID: "0"},
		fantasy.StreamPart{Type: fantasy.StreamPartTypeFinish, FinishReason: fantasy.FinishReasonStop},
	)
}

func validConfig() Config {
	return Config{
		APIKey:         "key",
		LightModel:     "gemini-2.5-flash",
		HeavyModel:     "gemini-3-pro-preview",
		ThinkingBudget: DefaultThinkingBudget,
	}
}

func newTestGateway(t *testing.T, src *mockSource) *Gateway {
	t.Helper()
	g, err := New(validConfig(), WithModelSource(src))
	require.NoError(t, err)
	return g
}

func TestNew_ValidatesBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "blank key", mutate: func(c *Config) { c.APIKey = "  " }},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "bedrock" }},
		{name: "no heavy model", mutate: func(c *Config) { c.HeavyModel = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			src := &mockSource{light: &mockModel{}, heavy: &mockModel{}}

			g, err := New(cfg, WithModelSource(src))
			require.Error(t, err)
			assert.Nil(t, g)
			assert.Equal(t, KindConfiguration, KindOf(err))
			assert.True(t, IsConfiguration(err))
			assert.Empty(t, src.light.calls)
		})
	}

	_, err := New(Config{LightModel: "a", HeavyModel: "b"})
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, MissingKeyMessage, gwErr.Message)
}

func TestStream_CumulativeChunks(t *testing.T) {
	light := &mockModel{id: "light", parts: textParts("Bon", "jour", " !")}
	g := newTestGateway(t, &mockSource{light: light, heavy: &mockModel{id: "heavy"}})

	var chunks []string
	got, err := g.Stream(context.Background(), Request{Text: "Salut", Subject: subject.History}, func(text string) {
		chunks = append(chunks, text)
	})

	require.NoError(t, err)
	assert.Equal(t, "Bonjour !", got)
	assert.Equal(t, []string{"Bon", "Bonjour", "Bonjour !"}, chunks)
	assert.Equal(t, got, chunks[len(chunks)-1])
}

func TestStream_TierRouting(t *testing.T) {
	tests := []struct {
		subject   subject.Subject
		wantHeavy bool
	}{
		{subject.General, false},
		{subject.History, false},
		{subject.Literature, false},
		{subject.Maths, true},
		{subject.Sciences, true},
		{subject.Code, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.subject), func(t *testing.T) {
			light := &mockModel{id: "light", parts: textParts("ok")}
			heavy := &mockModel{id: "heavy", parts: textParts("ok")}
			g := newTestGateway(t, &mockSource{light: light, heavy: heavy})

			_, err := g.Stream(context.Background(), Request{Text: "q", Subject: tt.subject}, nil)
			require.NoError(t, err)

			if tt.wantHeavy {
				require.Len(t, heavy.calls, 1)
				assert.Empty(t, light.calls)
				assert.NotNil(t, heavy.calls[0].ProviderOptions, "heavy tier should carry a reasoning hint")
			} else {
				require.Len(t, light.calls, 1)
				assert.Empty(t, heavy.calls)
				assert.Nil(t, light.calls[0].ProviderOptions)
			}
		})
	}

	g := newTestGateway(t, &mockSource{light: &mockModel{}, heavy: &mockModel{}})
	assert.Equal(t, "gemini-3-pro-preview", g.ModelID(subject.Maths))
	assert.Equal(t, "gemini-2.5-flash", g.ModelID(subject.General))
}

func TestStream_MaxOutputTokens(t *testing.T) {
	light := &mockModel{parts: textParts("ok")}
	cfg := validConfig()
	cfg.MaxOutputTokens = 2048
	g, err := New(cfg, WithModelSource(&mockSource{light: light, heavy: &mockModel{}}))
	require.NoError(t, err)

	_, err = g.Stream(context.Background(), Request{Text: "q", Subject: subject.General}, nil)
	require.NoError(t, err)
	require.NotNil(t, light.calls[0].MaxOutputTokens)
	assert.EqualValues(t, 2048, *light.calls[0].MaxOutputTokens)
}

func TestBuildPrompt(t *testing.T) {
	img1 := message.NewImage("image/png", []byte("one"))
	img2 := message.NewImage("image/jpeg", []byte("two"))

	failed := message.NewPlaceholder()
	failed.IsError = true
	failed.Text = "Désolé"
	answer := message.NewPlaceholder()
	answer.Text = "4"

	req := Request{
		History: []message.Message{
			message.NewUser("2+2=?", nil),
			answer,
			message.NewUser("et ça ?", nil),
			failed,
			message.NewPlaceholder(),
		},
		Text:    "regarde",
		Images:  []message.Image{img1, img2},
		Subject: subject.Maths,
	}

	prompt := BuildPrompt(req)
	require.Len(t, prompt, 5)

	assert.Equal(t, fantasy.MessageRoleSystem, prompt[0].Role)
	assert.Equal(t, fantasy.MessageRoleUser, prompt[1].Role)
	assert.Equal(t, fantasy.MessageRoleAssistant, prompt[2].Role)
	assert.Equal(t, fantasy.MessageRoleUser, prompt[3].Role)

	last := prompt[4]
	assert.Equal(t, fantasy.MessageRoleUser, last.Role)
	require.Len(t, last.Content, 3)
	first, ok := last.Content[0].(fantasy.FilePart)
	require.True(t, ok, "images come before text")
	assert.Equal(t, "image/png", first.MediaType)
	assert.Equal(t, []byte("one"), first.Data)
	second, ok := last.Content[1].(fantasy.FilePart)
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", second.MediaType)
	text, ok := last.Content[2].(fantasy.TextPart)
	require.True(t, ok)
	assert.Equal(t, "regarde", text.Text)
}

func TestBuildPrompt_ImageOnlyTurn(t *testing.T) {
	prompt := BuildPrompt(Request{Images: []message.Image{message.NewImage("image/png", []byte("x"))}, Subject: subject.General})
	last := prompt[len(prompt)-1]
	require.Len(t, last.Content, 1)
	_, ok := last.Content[0].(fantasy.FilePart)
	assert.True(t, ok)
}

func TestStream_Errors(t *testing.T) {
	tests := []struct {
		name      string
		streamErr error
		parts     []fantasy.StreamPart
		wantKind  Kind
		wantMsg   string
	}{
		{
			name:      "provider 429",
			streamErr: &fantasy.ProviderError{StatusCode: 429, Message: "slow down"},
			wantKind:  KindRateLimit,
			wantMsg:   "slow down",
		},
		{
			name:      "provider 401",
			streamErr: &fantasy.ProviderError{StatusCode: 401, Message: "bad key"},
			wantKind:  KindConfiguration,
		},
		{
			name:      "provider 500",
			streamErr: &fantasy.ProviderError{StatusCode: 500, Message: "boom"},
			wantKind:  KindUpstream,
			wantMsg:   "boom",
		},
		{
			name:      "gemini resource exhausted",
			streamErr: fmt.Errorf("wrapped: %w", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota"}),
			wantKind:  KindRateLimit,
			wantMsg:   "quota",
		},
		{
			name:      "plain error",
			streamErr: errors.New("dial tcp: timeout"),
			wantKind:  KindUpstream,
		},
		{
			name: "error part mid-stream",
			parts: append(textParts("partial")[:2], fantasy.StreamPart{
				Type:  fantasy.StreamPartTypeError,
				Error: &fantasy.ProviderError{StatusCode: 429, Message: "later"},
			}),
			wantKind: KindRateLimit,
		},
		{
			name:     "empty answer",
			parts:    textParts(),
			wantKind: KindUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			light := &mockModel{parts: tt.parts, streamErr: tt.streamErr}
			g := newTestGateway(t, &mockSource{light: light, heavy: light})

			got, err := g.Stream(context.Background(), Request{Text: "q", Subject: subject.General}, nil)
			require.Error(t, err)
			assert.Empty(t, got)
			assert.Equal(t, tt.wantKind, KindOf(err))

			var gwErr *Error
			require.ErrorAs(t, err, &gwErr)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, gwErr.Message)
			}
		})
	}
}

func TestStream_ModelSourceFailure(t *testing.T) {
	g := newTestGateway(t, &mockSource{err: errors.New("no model")})
	_, err := g.Stream(context.Background(), Request{Text: "q", Subject: subject.General}, nil)
	assert.True(t, IsConfiguration(err))
}

func TestStream_DoesNotRetry(t *testing.T) {
	light := &mockModel{streamErr: &fantasy.ProviderError{StatusCode: 429}}
	g := newTestGateway(t, &mockSource{light: light, heavy: light})
	_, err := g.Stream(context.Background(), Request{Text: "q", Subject: subject.General}, nil)
	assert.True(t, IsRateLimit(err))
	assert.Len(t, light.calls, 1)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUpstream, KindOf(errors.New("x")))
	assert.Equal(t, KindRateLimit, KindOf(fmt.Errorf("turn: %w", &Error{Kind: KindRateLimit})))
	assert.False(t, IsRateLimit(nil))
	assert.Equal(t, "rate_limit", KindRateLimit.String())
	assert.Contains(t, (&Error{Kind: KindUpstream, Message: "m", Err: errors.New("e")}).Error(), "upstream error: m: e")
}

func TestStream_AnthropicAlwaysSendsALimit(t *testing.T) {
	light := &mockModel{parts: textParts("ok")}
	g := newTestGateway(t, &mockSource{light: light, heavy: light, typ: catwalk.TypeAnthropic})

	_, err := g.Stream(context.Background(), Request{Text: "q", Subject: subject.General}, nil)
	require.NoError(t, err)
	require.NotNil(t, light.calls[0].MaxOutputTokens)
	assert.EqualValues(t, defaultAnthropicMaxTokens, *light.calls[0].MaxOutputTokens)
}
