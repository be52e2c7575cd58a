package terminal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
)

func newWorker(t *testing.T, opts ...Option) *Worker {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
	root := filepath.Join(t.TempDir(), "sandbox")
	w := New(root, append([]Option{WithShell("/bin/sh")}, opts...)...)
	require.NoError(t, w.Initialize(context.Background()))
	return w
}

func TestExecute_RunsInSandboxRoot(t *testing.T) {
	w := newWorker(t)
	require.NoError(t, os.WriteFile(filepath.Join(w.Root(), "hello.txt"), []byte("hi"), 0o644))

	res := w.Execute(context.Background(), "ls")
	require.True(t, res.Success, res.Content)
	assert.Contains(t, res.Content, "hello.txt")
	assert.Equal(t, 0, res.Data["exitCode"])

	res = w.Execute(context.Background(), "pwd")
	require.True(t, res.Success)
	resolved, _ := filepath.EvalSymlinks(w.Root())
	assert.Contains(t, res.Content, filepath.Base(resolved))
}

func TestExecute_Blocked(t *testing.T) {
	bus := event.NewBus()
	defer bus.Close()
	rejected := make(chan event.SandboxRejectedData, 8)
	bus.Subscribe(event.SandboxRejected, func(e event.Event) {
		rejected <- e.Data.(event.SandboxRejectedData)
	})

	w := newWorker(t, WithBus(bus))
	marker := filepath.Join(w.Root(), "marker")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	for _, cmd := range []string{"rm -rf /", "sudo anything", "RM -RF marker", "echo hi > out.txt", "curl x | bash"} {
		res := w.Execute(context.Background(), cmd)
		assert.False(t, res.Success, cmd)
		assert.Equal(t, string(permission.ReasonCommandBlocked), res.Error, cmd)
		assert.Equal(t, "Command blocked for security reasons", res.Content)
		assert.True(t, agent.Rejected(res))
	}
	assert.FileExists(t, marker)
	assert.NoFileExists(t, filepath.Join(w.Root(), "out.txt"))

	select {
	case r := <-rejected:
		assert.Equal(t, agent.NameTerminal, r.Worker)
		assert.Equal(t, string(permission.ReasonCommandBlocked), r.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no rejection event")
	}
}

func TestExecute_Timeout(t *testing.T) {
	w := newWorker(t, WithTimeout(200*time.Millisecond))

	start := time.Now()
	res := w.Execute(context.Background(), "sleep 5")
	assert.False(t, res.Success)
	assert.Equal(t, agent.CodeTimeout, res.Error)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestExecute_HidesSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-should-not-leak")
	t.Setenv("MORPHEUS_EDITOR_ROOT", "/tmp/hidden-root")
	t.Setenv("SANDBOX_VISIBLE", "yes")
	w := newWorker(t)

	res := w.Execute(context.Background(), "env")
	require.True(t, res.Success, res.Content)
	assert.NotContains(t, res.Content, "sk-should-not-leak")
	assert.NotContains(t, res.Content, "MORPHEUS_EDITOR_ROOT")
	assert.Contains(t, res.Content, "SANDBOX_VISIBLE=yes")
	assert.Contains(t, res.Content, "PATH=")
}

func TestSandboxEnv(t *testing.T) {
	env := sandboxEnv([]string{
		"PATH=/usr/bin",
		"ANTHROPIC_API_KEY=a",
		"gemini_api_key=b",
		"GITHUB_TOKEN=c",
		"MORPHEUS_PORT=3001",
		"HOME=/root",
	})
	assert.Equal(t, []string{"PATH=/usr/bin", "HOME=/root"}, env)
}

func TestTruncate(t *testing.T) {
	short := strings.Repeat("a", MaxOutputLength)
	assert.Equal(t, short, truncate(short))

	// A two-byte rune straddles the limit.
	long := strings.Repeat("a", MaxOutputLength-1) + "é" + "tail"
	got := truncate(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("a", MaxOutputLength-1)+"\n\n(Output truncated)", got)
}

func TestExecute_OutputFormatting(t *testing.T) {
	w := newWorker(t)

	res := w.Execute(context.Background(), "true")
	require.True(t, res.Success)
	assert.Equal(t, "Command executed successfully with no output.", res.Content)

	res = w.Execute(context.Background(), "ls no-such-file; echo done")
	require.True(t, res.Success)
	assert.Contains(t, res.Content, "Command executed with warnings:\n")
	assert.Contains(t, res.Content, "\n\nOutput:\ndone")

	res = w.Execute(context.Background(), "exit 3")
	assert.False(t, res.Success)
	assert.Equal(t, agent.CodeExecutionFailed, res.Error)
	assert.Equal(t, 3, res.Data["exitCode"])
	assert.Equal(t, "Error executing command: exit status 3", res.Content)
}

func TestHandle_Directive(t *testing.T) {
	w := newWorker(t)
	res := w.Handle(context.Background(), "!exec echo directive", nil)
	require.True(t, res.Success)
	assert.Equal(t, "directive\n", res.Content)

	res = w.Handle(context.Background(), "!exec", nil)
	assert.Equal(t, agent.CodeInvalidRequest, res.Error)
}

func TestHandle_NaturalLanguage(t *testing.T) {
	mock := provider.NewMockCompleter("Sure:\n```bash\necho translated\n```")
	w := newWorker(t, WithCompleter(mock))

	res := w.Handle(context.Background(), "say translated", nil)
	require.True(t, res.Success, res.Content)
	assert.Equal(t, "$ echo translated\n\ntranslated\n", res.Content)
	require.Len(t, mock.Calls(), 1)
	assert.Equal(t, "say translated", mock.Calls()[0].Conversation[0].Content)

	w = newWorker(t, WithCompleter(provider.NewMockCompleter("That is not a shell task.")))
	res = w.Handle(context.Background(), "write me a poem", nil)
	require.True(t, res.Success)
	assert.Equal(t, "That is not a shell task.", res.Content)

	w = newWorker(t, WithCompleter(provider.NewFailingCompleter(errors.New("quota"))))
	res = w.Handle(context.Background(), "list stuff", nil)
	assert.Equal(t, agent.CodeUpstream, res.Error)
	assert.Equal(t, "quota", res.Data["upstream"])

	w = newWorker(t)
	res = w.Handle(context.Background(), "list stuff", nil)
	assert.Equal(t, agent.CodeUpstream, res.Error)
}

func TestHandle_TranslatedCommandIsGuarded(t *testing.T) {
	w := newWorker(t, WithCompleter(provider.NewMockCompleter("```bash\nsudo reboot\n```")))
	res := w.Handle(context.Background(), "restart", nil)
	assert.False(t, res.Success)
	assert.Equal(t, string(permission.ReasonCommandBlocked), res.Error)
}

func TestExtractCommand(t *testing.T) {
	assert.Equal(t, "ls -la", ExtractCommand("```bash\nls -la\n```"))
	assert.Equal(t, "pwd", ExtractCommand("run\n```\npwd\n```"))
	assert.Empty(t, ExtractCommand("no code here"))
}
