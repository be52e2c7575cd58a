// Package provider adapts LLM backends to the text-in/text-out Completer
// contract used by the router and the workers.
package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// ErrUnavailable is returned by a Completer that has no backend.
var ErrUnavailable = errors.New("completion service unavailable")

// Completer produces a text reply for a system prompt and a conversation.
// Replies are untrusted text: structured output is usually, not reliably,
// a fenced JSON block.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, conversation []types.Message) (string, error)
}

// Unavailable is a Completer that always fails. The router treats its
// errors as "no decision" and falls back to deterministic rules.
type Unavailable struct{}

func (Unavailable) Complete(ctx context.Context, systemPrompt string, conversation []types.Message) (string, error) {
	return "", ErrUnavailable
}

// WithTimeout bounds every Complete call on c to d. A non-positive d
// returns c unchanged.
func WithTimeout(c Completer, d time.Duration) Completer {
	if c == nil || d <= 0 {
		return c
	}
	return &timeoutCompleter{next: c, timeout: d}
}

type timeoutCompleter struct {
	next    Completer
	timeout time.Duration
}

func (t *timeoutCompleter) Complete(ctx context.Context, systemPrompt string, conversation []types.Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, systemPrompt, conversation)
}

// ChatModelCompleter runs completions through an Eino chat model.
type ChatModelCompleter struct {
	id    string
	model model.BaseChatModel
	opts  []model.Option
}

// NewChatModelCompleter wraps an Eino chat model.
func NewChatModelCompleter(id string, m model.BaseChatModel, opts ...model.Option) *ChatModelCompleter {
	return &ChatModelCompleter{id: id, model: m, opts: opts}
}

// ID returns the provider identifier.
func (c *ChatModelCompleter) ID() string { return c.id }

// Complete implements Completer.
func (c *ChatModelCompleter) Complete(ctx context.Context, systemPrompt string, conversation []types.Message) (string, error) {
	msg, err := c.model.Generate(ctx, ToEinoMessages(systemPrompt, conversation), c.opts...)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", errors.New("empty completion")
	}
	return strings.TrimSpace(msg.Content), nil
}

// ToEinoMessages converts a conversation to Eino format, with the system
// prompt first. Agent messages become assistant turns.
func ToEinoMessages(systemPrompt string, conversation []types.Message) []*schema.Message {
	out := make([]*schema.Message, 0, len(conversation)+1)
	if systemPrompt != "" {
		out = append(out, schema.SystemMessage(systemPrompt))
	}
	for _, m := range conversation {
		switch m.Role {
		case types.RoleAgent:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		case types.RoleSystem:
			out = append(out, schema.SystemMessage(m.Content))
		default:
			out = append(out, schema.UserMessage(m.Content))
		}
	}
	return out
}
