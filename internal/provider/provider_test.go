package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

func TestParseModelString(t *testing.T) {
	p, m := ParseModelString("anthropic/claude-sonnet-4")
	assert.Equal(t, "anthropic", p)
	assert.Equal(t, "claude-sonnet-4", m)

	p, m = ParseModelString("gpt-4o")
	assert.Empty(t, p)
	assert.Equal(t, "gpt-4o", m)
}

func TestToEinoMessages(t *testing.T) {
	msgs := ToEinoMessages("be brief", []types.Message{
		types.NewMessage(types.RoleUser, "hi"),
		types.NewMessage(types.RoleAgent, "hello"),
	})
	require.Len(t, msgs, 3)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, schema.Assistant, msgs[2].Role)
	assert.Equal(t, "hello", msgs[2].Content)

	assert.Len(t, ToEinoMessages("", nil), 0)
}

func TestMockCompleter(t *testing.T) {
	m := NewMockCompleter("one", "two")
	ctx := context.Background()

	r, err := m.Complete(ctx, "sys", nil)
	require.NoError(t, err)
	assert.Equal(t, "one", r)
	r, _ = m.Complete(ctx, "sys", nil)
	assert.Equal(t, "two", r)
	r, _ = m.Complete(ctx, "sys", nil)
	assert.Equal(t, "two", r)
	assert.Len(t, m.Calls(), 3)
	assert.Equal(t, "sys", m.Calls()[0].SystemPrompt)

	boom := errors.New("boom")
	_, err = NewFailingCompleter(boom).Complete(ctx, "", nil)
	assert.ErrorIs(t, err, boom)
}

type blockingCompleter struct{}

func (blockingCompleter) Complete(ctx context.Context, _ string, _ []types.Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWithTimeout(t *testing.T) {
	c := WithTimeout(blockingCompleter{}, 20*time.Millisecond)

	start := time.Now()
	_, err := c.Complete(context.Background(), "", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)

	m := NewMockCompleter("fast")
	reply, err := WithTimeout(m, time.Second).Complete(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "fast", reply)

	assert.Same(t, m, WithTimeout(m, 0))
	assert.Nil(t, WithTimeout(nil, time.Second))
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Complete(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew_NoProvider(t *testing.T) {
	_, err := New(context.Background(), &types.Config{})
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &types.Config{Model: "nope/model"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNew_DisabledProvider(t *testing.T) {
	cfg := &types.Config{
		Model:    "openai/gpt-4o",
		Provider: map[string]types.ProviderConfig{"openai": {APIKey: "k", Disable: true}},
	}
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestSettings_Resolve(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:11434/v1")

	s, err := Settings{}.resolve("openai")
	require.NoError(t, err)
	assert.Equal(t, "env-key", s.APIKey)
	assert.Equal(t, "gpt-4o", s.Model)
	assert.Equal(t, "http://localhost:11434/v1", s.BaseURL)
	assert.Equal(t, defaultMaxTokens, s.MaxTokens)

	s, err = Settings{APIKey: "explicit", Model: "gpt-4o-mini", MaxTokens: 100}.resolve("openai")
	require.NoError(t, err)
	assert.Equal(t, "explicit", s.APIKey)
	assert.Equal(t, "gpt-4o-mini", s.Model)
	assert.Equal(t, 100, s.MaxTokens)
}

func TestSettings_ResolveMissing(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := Settings{}.resolve("anthropic")
	assert.EqualError(t, err, "ANTHROPIC_API_KEY not set")

	t.Setenv("ARK_MODEL_ID", "")
	_, err = Settings{APIKey: "k"}.resolve("ark")
	assert.EqualError(t, err, "ARK_MODEL_ID not set")
}
