package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// ErrNoProvider is returned by New when no provider has credentials.
var ErrNoProvider = errors.New("no LLM provider configured")

// preference is the order providers are tried in when the configured model
// does not name one.
var preference = []string{"gemini", "anthropic", "openai", "ark"}

// ParseModelString parses "provider/model" format.
func ParseModelString(s string) (providerID, modelID string) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "", s
}

// New builds the Completer selected by config.Model, or the first
// provider in preference order that has an API key.
func New(ctx context.Context, config *types.Config) (Completer, error) {
	providerID, modelID := ParseModelString(config.Model)
	if providerID != "" {
		return build(ctx, providerID, modelID, config.Provider[providerID])
	}

	for _, id := range preference {
		pc, ok := config.Provider[id]
		if !ok || pc.APIKey == "" || pc.Disable {
			continue
		}
		c, err := build(ctx, id, pc.Model, pc)
		if err != nil {
			logging.Warn().Err(err).Str("provider", id).Msg("provider init failed")
			continue
		}
		return c, nil
	}
	return nil, ErrNoProvider
}

func build(ctx context.Context, id, modelID string, pc types.ProviderConfig) (Completer, error) {
	if pc.Disable {
		return nil, fmt.Errorf("provider %s is disabled", id)
	}
	if modelID == "" {
		modelID = pc.Model
	}
	s := Settings{APIKey: pc.APIKey, BaseURL: pc.BaseURL, Model: modelID}
	switch id {
	case "anthropic":
		return NewAnthropic(ctx, s)
	case "openai":
		return NewOpenAI(ctx, s)
	case "ark":
		return NewArk(ctx, s)
	case "gemini", "google":
		return NewGemini(ctx, s)
	default:
		return nil, fmt.Errorf("unknown provider: %s", id)
	}
}
