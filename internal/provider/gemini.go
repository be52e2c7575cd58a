package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// GeminiCompleter runs completions through the Gemini API.
type GeminiCompleter struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Completer backed by the Gemini API. BaseURL and
// MaxTokens are ignored.
func NewGemini(ctx context.Context, s Settings) (*GeminiCompleter, error) {
	s, err := s.resolve("gemini")
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  s.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	return &GeminiCompleter{client: client, model: s.Model}, nil
}

// ID returns the provider identifier.
func (g *GeminiCompleter) ID() string { return "gemini" }

// Complete implements Completer.
func (g *GeminiCompleter) Complete(ctx context.Context, systemPrompt string, conversation []types.Message) (string, error) {
	contents := make([]*genai.Content, 0, len(conversation))
	for _, m := range conversation {
		role := genai.RoleUser
		if m.Role == types.RoleAgent {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	if len(contents) == 0 {
		return "", errors.New("empty conversation")
	}

	var cfg *genai.GenerateContentConfig
	if systemPrompt != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}
