package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

type echoWorker struct {
	agent.Info

	mu     sync.Mutex
	inputs []string
}

func (e *echoWorker) Initialize(context.Context) error { return nil }
func (e *echoWorker) Shutdown(context.Context) error   { return nil }

func (e *echoWorker) Handle(_ context.Context, input string, _ []types.Message) agent.Result {
	e.mu.Lock()
	e.inputs = append(e.inputs, input)
	e.mu.Unlock()
	return agent.OK("ran "+input, nil)
}

func newChat(t *testing.T, jsonOut bool) (*chat, *echoWorker, *bytes.Buffer) {
	t.Helper()
	w := &echoWorker{Info: agent.NewInfo(agent.NameTerminal, "runs commands", agent.KindCommand)}
	reg, err := agent.NewRegistry(w)
	require.NoError(t, err)

	store := session.NewStore()
	sess := store.Create("tester")

	var out bytes.Buffer
	return &chat{
		router:    router.New(reg, provider.Unavailable{}, router.WithStore(store)),
		sessions:  store,
		sessionID: sess.ID,
		render:    NewRenderer(&out, &out, true, jsonOut, false),
	}, w, &out
}

func TestChatLoop_RoutesLines(t *testing.T) {
	c, w, out := newChat(t, false)

	in := strings.NewReader("!exec echo hi\n\n/history\n/exit\n!exec never\n")
	require.NoError(t, chatLoop(context.Background(), in, c))

	assert.Equal(t, []string{"!exec echo hi"}, w.inputs)
	assert.Contains(t, out.String(), "you › !exec echo hi")
	assert.Contains(t, out.String(), "morpheus › [Terminal Agent]: ran !exec echo hi")
	assert.Contains(t, out.String(), "user: !exec echo hi")

	msgs, ok := c.sessions.GetMessages(c.sessionID, 0)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestChatLoop_ContinuationLines(t *testing.T) {
	c, w, _ := newChat(t, false)

	in := strings.NewReader("!exec echo \\\nmore\n")
	require.NoError(t, chatLoop(context.Background(), in, c))

	require.Len(t, w.inputs, 1)
	assert.Equal(t, "!exec echo \nmore", w.inputs[0])
}

func TestChatLoop_SessionCommands(t *testing.T) {
	c, _, out := newChat(t, false)

	in := strings.NewReader("/control on\n/instructions answer tersely\n/agents\n/bogus\n")
	require.NoError(t, chatLoop(context.Background(), in, c))

	sess, ok := c.sessions.Get(c.sessionID)
	require.True(t, ok)
	assert.True(t, sess.Metadata.UserControlMode)
	assert.Equal(t, "answer tersely", sess.Metadata.CustomInstructions)

	assert.Contains(t, out.String(), "Terminal Agent (command): runs commands")
	assert.Contains(t, out.String(), "Unknown command: /bogus")
}

func TestChatLoop_InvalidControlArgument(t *testing.T) {
	c, _, out := newChat(t, false)

	require.NoError(t, chatLoop(context.Background(), strings.NewReader("/control maybe\n"), c))

	sess, _ := c.sessions.Get(c.sessionID)
	assert.False(t, sess.Metadata.UserControlMode)
	assert.Contains(t, out.String(), "usage: /control on|off")
}

func TestRenderer_JSONOutcome(t *testing.T) {
	c, _, out := newChat(t, true)

	require.NoError(t, chatLoop(context.Background(), strings.NewReader("!exec pwd\n"), c))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var user map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &user))
	assert.Equal(t, "user", user["type"])

	var reply map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &reply))
	assert.Equal(t, "agent", reply["type"])
	assert.Equal(t, agent.NameTerminal, reply["agent"])
	assert.Equal(t, router.SourceDirective, reply["source"])
}
