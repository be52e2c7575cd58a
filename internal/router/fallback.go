package router

import (
	"regexp"
	"strings"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/command"
)

// ListCommand replaces listing requests that carry no explicit command.
const ListCommand = "!exec ls -la"

// Match is the outcome of the fallback rules. Kind is empty when no rule
// matched.
type Match struct {
	Kind       agent.Kind
	Confidence float64
	Message    string
}

type rule struct {
	kind       agent.Kind
	confidence float64
	phrases    []string
	patterns   []*regexp.Regexp
	rewrite    func(msg string) string
}

func (r rule) matches(msg, lower string) bool {
	for _, p := range r.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	for _, re := range r.patterns {
		if re.MatchString(msg) {
			return true
		}
	}
	return false
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// rules are checked in order and the first match wins. Listing comes
// before the general terminal rule because it needs a rewrite.
var rules = []rule{
	{
		kind:       agent.KindCommand,
		confidence: 0.9,
		phrases:    []string{"list files", "directory", "folder", "find file", "file system"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`(?i)\b(ls|dir)\b`)},
		rewrite: func(msg string) string {
			if command.HasExec(msg) {
				return msg
			}
			return ListCommand
		},
	},
	{
		kind:       agent.KindCommand,
		confidence: 0.8,
		phrases:    []string{"terminal", "command", "bash", "shell"},
		patterns:   []*regexp.Regexp{regexp.MustCompile(`(?i)^\s*!exec\b`)},
	},
	{
		kind:       agent.KindBrowser,
		confidence: 0.8,
		phrases:    []string{"search", "browse", "website", "look up"},
		patterns:   []*regexp.Regexp{urlPattern},
	},
	{
		kind:       agent.KindFile,
		confidence: 0.8,
		phrases: []string{
			"edit file", "create file", "modify file", "write file", "read file",
			"delete file", "show file content", "code analysis", "editor",
		},
	},
	{
		kind:       agent.KindTool,
		confidence: 0.8,
		phrases: []string{
			"api call", "external api", "tool", "weather", "news", "dictionary",
			"lookup", "external service", "3rd party", "third party",
		},
	},
}

// Fallback applies the deterministic rules to msg, case-insensitively.
func Fallback(msg string) Match {
	lower := strings.ToLower(msg)
	for _, r := range rules {
		if !r.matches(msg, lower) {
			continue
		}
		out := msg
		if r.rewrite != nil {
			out = r.rewrite(msg)
		}
		return Match{Kind: r.kind, Confidence: r.confidence, Message: out}
	}
	return Match{}
}

// DirectiveKind returns the worker kind an explicit directive addresses.
func DirectiveKind(msg string) (agent.Kind, bool) {
	d, ok := command.Parse(msg)
	if !ok {
		return "", false
	}
	switch d.Name {
	case command.Exec:
		return agent.KindCommand, true
	case command.File:
		return agent.KindFile, true
	case command.Plan:
		return agent.KindPlanner, true
	case command.Tool, command.Register, command.ListTool, command.APIKey:
		return agent.KindTool, true
	}
	return "", false
}
