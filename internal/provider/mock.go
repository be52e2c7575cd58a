package provider

import (
	"context"
	"sync"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

// MockCompleter replays scripted replies for tests across packages.
type MockCompleter struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []MockCall
}

// MockCall records one Complete invocation.
type MockCall struct {
	SystemPrompt string
	Conversation []types.Message
}

// NewMockCompleter returns a mock that answers with replies in order and
// then repeats the last one.
func NewMockCompleter(replies ...string) *MockCompleter {
	return &MockCompleter{replies: replies}
}

// NewFailingCompleter returns a mock whose every call fails with err.
func NewFailingCompleter(err error) *MockCompleter {
	return &MockCompleter{err: err}
}

// Complete implements Completer.
func (m *MockCompleter) Complete(ctx context.Context, systemPrompt string, conversation []types.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, MockCall{
		SystemPrompt: systemPrompt,
		Conversation: append([]types.Message(nil), conversation...),
	})
	if m.err != nil {
		return "", m.err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(m.replies) == 0 {
		return "", nil
	}
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

// Calls returns the recorded invocations.
func (m *MockCompleter) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
