package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/openai"
)

const defaultMaxTokens = 2048

// Settings configures one backend. Empty fields are filled from the
// backend's environment variables, then from built-in defaults.
type Settings struct {
	APIKey    string
	BaseURL   string
	Model     string // ARK: endpoint ID
	MaxTokens int
}

type backendEnv struct {
	apiKey  string
	model   string
	baseURL string
	// defaultModel is empty when the model must be configured.
	defaultModel string
}

var backends = map[string]backendEnv{
	"anthropic": {apiKey: "ANTHROPIC_API_KEY", defaultModel: "claude-sonnet-4-20250514"},
	"openai":    {apiKey: "OPENAI_API_KEY", baseURL: "OPENAI_BASE_URL", defaultModel: "gpt-4o"},
	"ark":       {apiKey: "ARK_API_KEY", model: "ARK_MODEL_ID", baseURL: "ARK_BASE_URL"},
	"gemini":    {apiKey: "GEMINI_API_KEY", defaultModel: "gemini-2.0-flash"},
}

func envOr(v, key string) string {
	if v != "" || key == "" {
		return v
	}
	return os.Getenv(key)
}

// resolve completes s for backend id.
func (s Settings) resolve(id string) (Settings, error) {
	env := backends[id]
	s.APIKey = envOr(s.APIKey, env.apiKey)
	if s.APIKey == "" {
		return s, fmt.Errorf("%s not set", env.apiKey)
	}
	s.Model = envOr(s.Model, env.model)
	if s.Model == "" {
		s.Model = env.defaultModel
	}
	if s.Model == "" {
		return s, fmt.Errorf("%s not set", env.model)
	}
	s.BaseURL = envOr(s.BaseURL, env.baseURL)
	if s.MaxTokens == 0 {
		s.MaxTokens = defaultMaxTokens
	}
	return s, nil
}

// NewAnthropic creates a Completer backed by Claude.
func NewAnthropic(ctx context.Context, s Settings) (*ChatModelCompleter, error) {
	s, err := s.resolve("anthropic")
	if err != nil {
		return nil, err
	}
	cfg := &claude.Config{APIKey: s.APIKey, Model: s.Model, MaxTokens: s.MaxTokens}
	if s.BaseURL != "" {
		cfg.BaseURL = &s.BaseURL
	}
	m, err := claude.NewChatModel(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create Claude model: %w", err)
	}
	return NewChatModelCompleter("anthropic", m), nil
}

// NewOpenAI creates a Completer backed by an OpenAI chat model. BaseURL
// lets any OpenAI-compatible endpoint be used.
func NewOpenAI(ctx context.Context, s Settings) (*ChatModelCompleter, error) {
	s, err := s.resolve("openai")
	if err != nil {
		return nil, err
	}
	m, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:              s.APIKey,
		BaseURL:             s.BaseURL,
		Model:               s.Model,
		MaxCompletionTokens: &s.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create OpenAI model: %w", err)
	}
	return NewChatModelCompleter("openai", m), nil
}

// NewArk creates a Completer backed by a Volcengine ARK endpoint.
func NewArk(ctx context.Context, s Settings) (*ChatModelCompleter, error) {
	s, err := s.resolve("ark")
	if err != nil {
		return nil, err
	}
	m, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:    s.APIKey,
		BaseURL:   s.BaseURL,
		Model:     s.Model,
		MaxTokens: &s.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("create ARK model: %w", err)
	}
	return NewChatModelCompleter("ark", m), nil
}
