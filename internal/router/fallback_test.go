package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
)

func TestFallback(t *testing.T) {
	tests := []struct {
		message    string
		kind       agent.Kind
		confidence float64
		rewritten  string
	}{
		{"list files in my project", agent.KindCommand, 0.9, ListCommand},
		{"What's in this FOLDER?", agent.KindCommand, 0.9, ListCommand},
		{"run ls please", agent.KindCommand, 0.9, ListCommand},
		{"!exec ls /tmp", agent.KindCommand, 0.9, "!exec ls /tmp"},
		{"open a terminal and check uptime", agent.KindCommand, 0.8, ""},
		{"!exec whoami", agent.KindCommand, 0.8, ""},
		{"search for golang generics", agent.KindBrowser, 0.8, ""},
		{"what does https://go.dev/doc say", agent.KindBrowser, 0.8, ""},
		{"please edit file notes.txt", agent.KindFile, 0.8, ""},
		{"what's the weather in Paris", agent.KindTool, 0.8, ""},
		{"show me the latest news", agent.KindTool, 0.8, ""},
		{"which tools do you have", agent.KindTool, 0.8, ""},
		{"tell me a joke", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			m := Fallback(tt.message)
			assert.Equal(t, tt.kind, m.Kind)
			assert.InDelta(t, tt.confidence, m.Confidence, 1e-9)
			if tt.kind == "" {
				return
			}
			want := tt.rewritten
			if want == "" {
				want = tt.message
			}
			assert.Equal(t, want, m.Message)
		})
	}
}

func TestDirectiveKind(t *testing.T) {
	tests := map[string]agent.Kind{
		"!exec pwd":              agent.KindCommand,
		"!file read a.txt":       agent.KindFile,
		"!plan list":             agent.KindPlanner,
		"!tool weather Paris":    agent.KindTool,
		"!list tools":            agent.KindTool,
		"!apikey weather abc123": agent.KindTool,
	}
	for msg, want := range tests {
		got, ok := DirectiveKind(msg)
		assert.True(t, ok, msg)
		assert.Equal(t, want, got, msg)
	}

	_, ok := DirectiveKind("hello")
	assert.False(t, ok)
}
