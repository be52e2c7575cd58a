package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shubharthaksangharsha/morpheusAI/internal/app"
	"github.com/shubharthaksangharsha/morpheusAI/internal/router"
	"github.com/shubharthaksangharsha/morpheusAI/internal/session"
	"github.com/shubharthaksangharsha/morpheusAI/pkg/types"
)

var (
	chatUser    string
	chatJSON    bool
	chatVerbose bool
)

const chatHelp = `Commands:
  /help                 Show this help
  /exit                 Leave the session
  /agents               List the registered agents
  /history [n]          Show the last n messages (default 10)
  /control on|off       Toggle user control mode
  /instructions <text>  Set custom instructions for this session

Anything else is routed to an agent. End a line with \ to continue it.
Prefix with !exec, !file, !plan or !tool to pick an agent directly.`

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive MorpheusAI session",
	Long: `Start an interactive session. Every line is routed by the supervisor
to the agent best suited to handle it.

Examples:
  morpheus chat
  morpheus chat --verbose        # show which agent handled each line
  morpheus chat --offline        # route with the fallback rules only`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatUser, "user", "", "User ID to attach to the session")
	chatCmd.Flags().BoolVar(&chatJSON, "json", false, "Print JSON lines instead of text")
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "Show routing decisions")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	r := NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor, chatJSON, chatVerbose)
	sess := a.Sessions.Create(chatUser)
	r.Banner(sess.ID, a.Registry.Count())

	return chatLoop(ctx, cmd.InOrStdin(), &chat{
		router:    a.Router,
		sessions:  a.Sessions,
		sessionID: sess.ID,
		render:    r,
	})
}

// chat is one interactive session bound to the store.
type chat struct {
	router    *router.Router
	sessions  *session.Store
	sessionID string
	render    *Renderer
}

func readMultiline(reader *bufio.Reader) (string, error) {
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if len(lines) == 0 && line == "" {
				return "", err
			}
			return strings.Join(append(lines, line), "\n"), nil
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.HasSuffix(line, "\\") {
			lines = append(lines, strings.TrimSuffix(line, "\\"))
			continue
		}
		lines = append(lines, line)
		return strings.Join(lines, "\n"), nil
	}
}

// chatLoop reads lines from in until EOF or /exit.
func chatLoop(ctx context.Context, in io.Reader, c *chat) error {
	reader := bufio.NewReader(in)
	for {
		line, err := readMultiline(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "/") {
			if done := c.command(trimmed); done {
				return nil
			}
			continue
		}

		c.render.User(trimmed)
		out, err := c.router.Dispatch(ctx, router.Request{SessionID: c.sessionID, Message: trimmed})
		if err != nil {
			c.render.Error(err)
			continue
		}
		c.render.Outcome(out)
	}
}

// command runs a slash command and reports whether the session should end.
func (c *chat) command(line string) bool {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "exit", "quit":
		return true
	case "help":
		c.render.Help(chatHelp)
	case "agents":
		for _, w := range c.router.Registry().List() {
			c.render.Notice("%s (%s): %s", w.Name(), w.Kind(), w.Description())
		}
	case "history":
		n := 10
		if arg != "" {
			v, err := strconv.Atoi(arg)
			if err != nil || v < 0 {
				c.render.Error(fmt.Errorf("invalid count: %q", arg))
				return false
			}
			n = v
		}
		msgs, _ := c.sessions.GetMessages(c.sessionID, n)
		for _, m := range msgs {
			c.render.Notice("%s: %s", m.Role, m.Content)
		}
	case "control":
		var enabled bool
		switch arg {
		case "on":
			enabled = true
		case "off":
		default:
			c.render.Error(errors.New("usage: /control on|off"))
			return false
		}
		c.sessions.SetUserControl(c.sessionID, enabled)
		c.render.Notice("user control %s", arg)
	case "instructions":
		c.sessions.Update(c.sessionID, types.SessionPatch{CustomInstructions: &arg})
		if arg == "" {
			c.render.Notice("custom instructions cleared")
		} else {
			c.render.Notice("custom instructions set")
		}
	default:
		c.render.Help(fmt.Sprintf("Unknown command: /%s\n%s", name, chatHelp))
	}
	return false
}
