package terminal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/shubharthaksangharsha/morpheusAI/internal/agent"
	"github.com/shubharthaksangharsha/morpheusAI/internal/command"
	"github.com/shubharthaksangharsha/morpheusAI/internal/event"
	"github.com/shubharthaksangharsha/morpheusAI/internal/logging"
	"github.com/shubharthaksangharsha/morpheusAI/internal/permission"
	"github.com/shubharthaksangharsha/morpheusAI/internal/provider"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

const (
	DefaultTimeout  = 10 * time.Second
	MaxOutputLength = 30000
	waitDelay       = 200 * time.Millisecond
)

const description = "Executes terminal commands in a sandboxed directory. " +
	"Use for shell commands, listing files and inspecting the environment."

const translatePrompt = `You turn requests into exactly one POSIX shell command.
The command runs in a sandbox directory with a 10 second timeout.
Reply with the command alone inside a ` + "```bash" + ` block.
If the request cannot be expressed as a shell command, reply with a short
explanation and no code block.`

var fencedCommand = regexp.MustCompile("(?s)```(?:bash|sh|shell)?\\s*\\n(.*?)```")

// Worker is the Command-Exec worker.
type Worker struct {
	agent.Info
	root      string
	shell     string
	timeout   time.Duration
	guard     *permission.CommandGuard
	completer provider.Completer
	bus       *event.Bus
	log       zerolog.Logger
}

// Option configures a Worker.
type Option func(*Worker)

// WithTimeout overrides the execution timeout.
func WithTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.timeout = d
		}
	}
}

// WithGuard replaces the default denylist.
func WithGuard(g *permission.CommandGuard) Option {
	return func(w *Worker) { w.guard = g }
}

// WithShell overrides shell detection.
func WithShell(shell string) Option {
	return func(w *Worker) { w.shell = shell }
}

// WithCompleter sets the completion service used for natural-language input.
func WithCompleter(c provider.Completer) Option {
	return func(w *Worker) { w.completer = c }
}

// WithBus publishes sandbox rejections on bus.
func WithBus(bus *event.Bus) Option {
	return func(w *Worker) { w.bus = bus }
}

// New creates a Command-Exec worker confined to root.
func New(root string, opts ...Option) *Worker {
	w := &Worker{
		Info:    agent.NewInfo(agent.NameTerminal, description, agent.KindCommand),
		root:    root,
		shell:   detectShell(),
		timeout: DefaultTimeout,
		guard:   permission.NewCommandGuard(),
		log:     logging.Component("terminal"),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// detectShell returns the user's shell, avoiding shells without POSIX
// "-c" semantics.
func detectShell() string {
	if s := os.Getenv("SHELL"); s != "" {
		if !strings.HasSuffix(s, "/fish") && !strings.HasSuffix(s, "/nu") {
			return s
		}
	}
	if runtime.GOOS == "windows" {
		if comspec := os.Getenv("COMSPEC"); comspec != "" {
			return comspec
		}
		return "cmd.exe"
	}
	if bash, err := exec.LookPath("bash"); err == nil {
		return bash
	}
	return "/bin/sh"
}

// Root returns the sandbox directory.
func (w *Worker) Root() string { return w.root }

// Initialize creates the sandbox directory.
func (w *Worker) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return fmt.Errorf("create command sandbox: %w", err)
	}
	w.log.Info().Str("root", w.root).Msg("command sandbox ready")
	return nil
}

// Shutdown is a no-op; commands do not outlive their call.
func (w *Worker) Shutdown(ctx context.Context) error { return nil }

// Execute runs command in the sandbox root.
func (w *Worker) Execute(ctx context.Context, cmdline string) agent.Result {
	cmdline = strings.TrimSpace(cmdline)
	if err := w.guard.Check(cmdline); err != nil {
		agent.NotifyRejected(w.bus, w.Name(), err)
		return agent.FromError(err)
	}

	cmdCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, w.shell, "/c", cmdline)
	} else {
		cmd = exec.CommandContext(cmdCtx, w.shell, "-c", cmdline)
	}
	cmd.Dir = w.root
	cmd.Env = sandboxEnv(os.Environ())
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	timedOut := errors.Is(cmdCtx.Err(), context.DeadlineExceeded)

	out := truncate(stdout.String())
	errOut := truncate(stderr.String())
	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	data := map[string]any{
		"command":  cmdline,
		"stdout":   out,
		"stderr":   errOut,
		"exitCode": exitCode,
		"commands": permission.CommandNames(cmdline),
	}

	w.log.Debug().
		Str("command", cmdline).
		Int("exit", exitCode).
		Dur("elapsed", time.Since(start)).
		Bool("timedOut", timedOut).
		Msg("command finished")

	switch {
	case timedOut:
		return agent.Fail(agent.CodeTimeout,
			fmt.Sprintf("Error executing command: timed out after %v", w.timeout), data)
	case err != nil:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return agent.Fail(agent.CodeExecutionFailed,
				fmt.Sprintf("Error executing command: %v", err), data)
		}
		msg := strings.TrimSpace(errOut)
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", exitCode)
		}
		return agent.Fail(agent.CodeExecutionFailed, "Error executing command: "+msg, data)
	}

	return agent.OK(formatOutput(out, errOut), data)
}

// Handle runs !exec directives directly. Other input is translated into a
// single command by the completion service and executed under the same
// guard.
func (w *Worker) Handle(ctx context.Context, input string, history []types.Message) agent.Result {
	if d, ok := command.Parse(input); ok && d.Name == command.Exec {
		if d.Args == "" {
			return agent.Fail(agent.CodeInvalidRequest, "Usage: !exec <command>", nil)
		}
		return w.Execute(ctx, d.Args)
	}

	if w.completer == nil {
		return agent.Fail(agent.CodeUpstream, "No completion service is configured. Use !exec <command> to run a command.", nil)
	}
	conv := append(append([]types.Message(nil), history...), types.NewMessage(types.RoleUser, input))
	reply, err := w.completer.Complete(ctx, translatePrompt, conv)
	if err != nil {
		return agent.Fail(agent.CodeUpstream, "I encountered an error processing your request: "+err.Error(),
			map[string]any{"upstream": err.Error()})
	}

	cmdline := ExtractCommand(reply)
	if cmdline == "" {
		return agent.OK(reply, nil)
	}
	res := w.Execute(ctx, cmdline)
	res.Content = fmt.Sprintf("$ %s\n\n%s", cmdline, res.Content)
	return res
}

// ExtractCommand returns the command inside the first fenced shell block of
// reply, or "" when there is none.
func ExtractCommand(reply string) string {
	m := fencedCommand.FindStringSubmatch(reply)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func formatOutput(stdout, stderr string) string {
	switch {
	case stderr != "":
		return fmt.Sprintf("Command executed with warnings:\n%s\n\nOutput:\n%s", stderr, stdout)
	case stdout == "":
		return "Command executed successfully with no output."
	default:
		return stdout
	}
}

// truncate caps s at MaxOutputLength bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= MaxOutputLength {
		return s
	}
	n := MaxOutputLength
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n\n(Output truncated)"
}

var secretSuffixes = []string{"_API_KEY", "_SECRET", "_TOKEN"}

// sandboxEnv drops credentials and MORPHEUS_* settings from env.
func sandboxEnv(env []string) []string {
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		upper := strings.ToUpper(key)
		if strings.HasPrefix(upper, "MORPHEUS_") || hasSuffix(upper, secretSuffixes) {
			continue
		}
		out = append(out, kv)
	}
	return out
}

func hasSuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}

var _ agent.CommandRunner = (*Worker)(nil)
